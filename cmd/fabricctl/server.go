package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/config"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/db"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/server/endpoints"
	"github.com/doodlesbykumbi/fabric-authz-in-go/pkg/service"
)

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

func defaultPortInt() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 8000
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the authorization server",
	Long: `Run the authorization server.

The server requires the DATABASE_URL environment variable unless --in-memory
is set. By default, database migrations are run on startup. Use --no-migrate
to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Bad configuration: %v\n", err)
			os.Exit(1)
		}

		inMemory, _ := cmd.Flags().GetBool("in-memory")

		var stores server.Stores
		var conn *gorm.DB
		if inMemory {
			stores = server.NewInMemoryStores()
		} else {
			if os.Getenv("DATABASE_URL") == "" {
				fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
				os.Exit(1)
			}

			noMigrate, _ := cmd.Flags().GetBool("no-migrate")
			if !noMigrate {
				log.Println("Running database migrations...")
				if err := runMigrations(); err != nil {
					fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
					os.Exit(1)
				}
			}

			conn, err = db.Connect(db.Config{})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Unable to connect to DB: %v\n", err)
				os.Exit(1)
			}
			stores = server.NewGormStores(conn)
		}

		var identitySvc service.IdentityServiceProvider = service.NoopIdentityService{}
		if cfg.IdentityServiceURL != "" {
			identitySvc = service.NewHTTPIdentityService(cfg.IdentityServiceURL)
		}

		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		s := server.NewServer(stores, cfg, conn, identitySvc, host, port)

		endpoints.RegisterAll(s)

		if watch, _ := cmd.Flags().GetBool("watch-config"); watch {
			go func() {
				if err := config.Watch(context.Background()); err != nil {
					log.Printf("Config watcher stopped: %v", err)
				}
			}()
		}

		log.Printf("Running server at http://%s:%s...\n", host, port)
		log.Fatal(s.Start())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().Bool("in-memory", false, "run against an in-memory store (for development)")
	serverCmd.Flags().Bool("watch-config", false, "reload configuration when the config file changes")
}
