package audit

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStoreSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)

	event := ResolveEvent{
		SubjectID:        "bob.smith",
		IdentityProvider: "windows",
		ClientIP:         "10.0.0.1",
		Scope:            "app:patientsafety",
		PermissionCount:  3,
		Success:          true,
	}

	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(
			FacilityAuthPriv,  // facility
			int(SeverityInfo), // severity
			sqlmock.AnyArg(),  // timestamp
			sqlmock.AnyArg(),  // hostname
			"fabric-authz",    // appname
			sqlmock.AnyArg(),  // procid
			"resolve",         // msgid
			"bob.smith",       // actor
			"resolve",         // operation
			"success",         // result
			sqlmock.AnyArg(),  // sdata (JSON)
			sqlmock.AnyArg(),  // message
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Save(event)
	if err != nil {
		t.Errorf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreSaveFailedEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)

	event := ResolveEvent{
		SubjectID:    "bob.smith",
		ClientIP:     "10.0.0.1",
		Scope:        "app:patientsafety",
		Success:      false,
		ErrorMessage: "store unavailable",
	}

	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(
			FacilityAuthPriv,
			int(SeverityWarning), // Failed events have warning severity
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			"fabric-authz",
			sqlmock.AnyArg(),
			"resolve",
			"bob.smith",
			"resolve",
			"failure",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Save(event)
	if err != nil {
		t.Errorf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreSaveGranularEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)

	event := GranularOverrideEvent{
		ActorID:          "admin",
		ClientIP:         "10.0.0.1",
		SubjectID:        "bob.smith",
		IdentityProvider: "windows",
		Action:           "denied",
		PermissionIDs:    []string{"p-1"},
		Success:          true,
	}

	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(
			FacilityAuthPriv,
			int(SeverityNotice),
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
			"fabric-authz",
			sqlmock.AnyArg(),
			"granular",
			"admin",  // actor
			"denied", // operation
			"success",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Save(event)
	if err != nil {
		t.Errorf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreNilDB(t *testing.T) {
	store := &Store{db: nil}

	event := ResolveEvent{
		SubjectID: "bob.smith",
		ClientIP:  "10.0.0.1",
		Scope:     "app:patientsafety",
		Success:   true,
	}

	// Should not error when db is nil
	err := store.Save(event)
	if err != nil {
		t.Errorf("Save() with nil db should not error, got: %v", err)
	}
}

func TestStoreClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	store := NewStoreWithDB(db)

	mock.ExpectClose()

	err = store.Close()
	if err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreCloseNilDB(t *testing.T) {
	store := &Store{db: nil}

	err := store.Close()
	if err != nil {
		t.Errorf("Close() with nil db should not error, got: %v", err)
	}
}

func TestNewMessageLiftsQueryColumns(t *testing.T) {
	store := NewStoreWithDB(nil)

	event := RoleEvent{
		ActorID:   "admin",
		ClientIP:  "10.0.0.1",
		RoleID:    "r-1",
		RoleName:  "admin",
		Operation: "grant-group",
		Target:    "PS Admins",
		Success:   true,
	}

	msg := store.newMessage(event)

	if msg.Actor != "admin" {
		t.Errorf("Message.Actor = %q, want 'admin'", msg.Actor)
	}
	if msg.Operation != "grant-group" {
		t.Errorf("Message.Operation = %q, want 'grant-group'", msg.Operation)
	}
	if msg.Result != "success" {
		t.Errorf("Message.Result = %q, want 'success'", msg.Result)
	}
	if msg.Appname != "fabric-authz" {
		t.Errorf("Message.Appname = %q, want 'fabric-authz'", msg.Appname)
	}
	if msg.Msgid != event.MessageID() {
		t.Errorf("Message.Msgid = %q, want %q", msg.Msgid, event.MessageID())
	}
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Minute {
		t.Errorf("Message.Timestamp = %v, want recent UTC time", msg.Timestamp)
	}
}
