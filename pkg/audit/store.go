package audit

import (
	"database/sql"
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// insertMessage matches the messages table created by the audit migration.
// The actor, operation, and result columns are lifted out of the structured
// data so events can be queried without unpacking the jsonb payload.
const insertMessage = `
	INSERT INTO messages (facility, severity, timestamp, hostname, appname, procid, msgid, actor, operation, result, sdata, message)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

// Store persists audit events to the audit database. Persistence is
// optional; a nil store or connection drops events.
type Store struct {
	db      *sql.DB
	appName string
}

// Message is one persisted audit row in RFC5424 field layout plus the
// lifted query columns.
type Message struct {
	Facility  int
	Severity  int
	Timestamp time.Time
	Hostname  string
	Appname   string
	Procid    string
	Msgid     string
	Actor     string
	Operation string
	Result    string
	Sdata     map[string]map[string]string
	Message   string
}

// NewStore connects to the audit database named by AUDIT_DATABASE_URL.
// Returns nil without error when the variable is unset.
func NewStore() (*Store, error) {
	dbURL := os.Getenv("AUDIT_DATABASE_URL")
	if dbURL == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	return NewStoreWithDB(db), nil
}

// NewStoreWithDB wraps an existing connection. Used by sqlmock tests.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db, appName: "fabric-authz"}
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save persists an audit event. Events are dropped when no audit database
// is configured.
func (s *Store) Save(event Event) error {
	if s == nil || s.db == nil {
		return nil
	}

	row := s.newMessage(event)
	sdataJSON, err := json.Marshal(row.Sdata)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(insertMessage,
		row.Facility,
		row.Severity,
		row.Timestamp,
		row.Hostname,
		row.Appname,
		row.Procid,
		row.Msgid,
		row.Actor,
		row.Operation,
		row.Result,
		sdataJSON,
		row.Message,
	)
	return err
}

// newMessage assembles the persisted row from an event, lifting the acting
// user and the action outcome out of the structured data.
func (s *Store) newMessage(event Event) Message {
	hostname, _ := os.Hostname()
	sdata := event.StructuredData()

	row := Message{
		Facility:  event.Facility(),
		Severity:  int(event.Severity()),
		Timestamp: time.Now().UTC(),
		Hostname:  hostname,
		Appname:   s.appName,
		Procid:    strconv.Itoa(os.Getpid()),
		Msgid:     event.MessageID(),
		Sdata:     sdata,
		Message:   event.Message(),
	}
	if auth, ok := sdata[SDIDAuth]; ok {
		row.Actor = auth["user"]
	}
	if action, ok := sdata[SDIDAction]; ok {
		row.Operation = action["operation"]
		row.Result = action["result"]
	}
	return row
}

// DB returns the underlying database connection. Used by tests.
func (s *Store) DB() *sql.DB {
	return s.db
}
