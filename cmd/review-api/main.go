package main

import (
	"log"

	"github.com/counselmatch/internal/config"
	"github.com/counselmatch/internal/db"
	"github.com/counselmatch/internal/web"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	var conn *db.Connection
	var err error
	if config.GetEnv("DB_DRIVER", "sqlite") == "postgres" {
		conn, err = db.NewPostgresConnection()
	} else {
		conn, err = db.NewSQLiteConnection(config.GetEnv("SQLITE_PATH", "counselmatch.db"))
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	server := web.NewServer(web.LoadConfig(), conn)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
