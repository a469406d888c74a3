package server

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/config"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/resolver"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/store"
	gormstore "github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/store/inmem"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/service"
)

// Stores bundles the persistence contracts the server depends on.
type Stores struct {
	Roles       store.RolesStore
	Groups      store.GroupsStore
	Permissions store.PermissionsStore
	Items       store.SecurableItemsStore
	Clients     store.ClientsStore
	Granular    store.GranularStore
	Health      store.HealthStore
}

// NewGormStores builds the store bundle over a database connection.
func NewGormStores(db *gorm.DB) Stores {
	return Stores{
		Roles:       gormstore.NewRolesStore(db),
		Groups:      gormstore.NewGroupsStore(db),
		Permissions: gormstore.NewPermissionsStore(db),
		Items:       gormstore.NewSecurableItemsStore(db),
		Clients:     gormstore.NewClientsStore(db),
		Granular:    gormstore.NewGranularStore(db),
		Health:      gormstore.NewHealthStore(db),
	}
}

// NewInMemoryStores builds the store bundle over a single in-memory store.
func NewInMemoryStores() Stores {
	st := inmem.New()
	return Stores{
		Roles:       st,
		Groups:      st,
		Permissions: st,
		Items:       st,
		Clients:     st,
		Granular:    st,
		Health:      st,
	}
}

// Server is the authorization HTTP server with its stores and services.
type Server struct {
	Stores Stores
	Config *config.Config
	Router *mux.Router
	DB     *gorm.DB

	Resolver    *resolver.Service
	Permissions *service.PermissionService
	Roles       *service.RoleService
	Groups      *service.GroupService
	Members     *service.MemberSearchService

	srv *http.Server
}

// NewServer wires the services over the given stores and prepares the HTTP
// listener. identitySvc may be nil; member search then omits user metadata.
func NewServer(
	stores Stores,
	cfg *config.Config,
	db *gorm.DB,
	identitySvc service.IdentityServiceProvider,
	host string,
	port string,
) *Server {

	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, router),
		Addr:    host + ":" + port,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	res := resolver.NewService(stores.Roles, stores.Items, stores.Granular)

	return &Server{
		Stores:      stores,
		Config:      cfg,
		Router:      router,
		DB:          db,
		Resolver:    res,
		Permissions: service.NewPermissionService(stores.Permissions, stores.Granular, res),
		Roles:       service.NewRoleService(stores.Roles, stores.Permissions),
		Groups:      service.NewGroupService(stores.Groups),
		Members:     service.NewMemberSearchService(stores.Clients, stores.Roles, stores.Groups, identitySvc),
		srv:         srv,
	}
}

func (s Server) Start() error {
	return s.srv.ListenAndServe()
}
