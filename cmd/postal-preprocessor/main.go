package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	postal "github.com/openvenues/gopostal/parser"

	"github.com/counselmatch/internal/config"
	"github.com/counselmatch/internal/db"
)

// Optional preprocessor: parses catalog addresses with libpostal and stores
// the extracted city and postcode components. The heuristic location-entity
// extraction works without it; this sharpens the signal where libpostal is
// installed.

func main() {
	var (
		command = flag.String("cmd", "", "Command: test-parse, preprocess-catalog, stats")
		address = flag.String("address", "", "Single address to test parsing")
		limit   = flag.Int("limit", 0, "Number of entities to process (0 = all)")
	)
	flag.Parse()

	if *command == "" {
		printUsage()
		return
	}

	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	switch *command {
	case "test-parse":
		if *address == "" {
			fmt.Println("Error: -address required for test-parse")
			return
		}
		testParse(*address)
	case "preprocess-catalog":
		conn := connect()
		defer conn.Close()
		if err := preprocessCatalog(conn, *limit); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "stats":
		conn := connect()
		defer conn.Close()
		showStats(conn)
	default:
		fmt.Printf("Unknown command: %s\n", *command)
		printUsage()
	}
}

func connect() *db.Connection {
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
	return conn
}

func testParse(address string) {
	fmt.Printf("Parsing: %s\n\n", address)
	for _, component := range postal.ParseAddress(address) {
		fmt.Printf("  %-12s %s\n", component.Label+":", component.Value)
	}
}

// parseComponents extracts the city and postcode labels from a parse.
func parseComponents(address string) (city, postcode string) {
	for _, component := range postal.ParseAddress(address) {
		switch component.Label {
		case "city", "city_district", "suburb":
			if city == "" {
				city = strings.ToUpper(component.Value)
			}
		case "postcode":
			postcode = component.Value
		}
	}
	return city, postcode
}

func preprocessCatalog(conn *db.Connection, limit int) error {
	if _, err := conn.DB.Exec(`
		CREATE TABLE IF NOT EXISTS postal_component (
			entity_id BIGINT PRIMARY KEY,
			city TEXT NOT NULL DEFAULT '',
			postcode TEXT NOT NULL DEFAULT ''
		)
	`); err != nil {
		return fmt.Errorf("failed to create postal_component: %w", err)
	}

	query := `SELECT id, address FROM master_entity WHERE address <> '' ORDER BY id`
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}
	rows, err := conn.DB.Query(query)
	if err != nil {
		return fmt.Errorf("failed to read catalog addresses: %w", err)
	}
	defer rows.Close()

	upsert := conn.DB.Rebind(`
		INSERT INTO postal_component (entity_id, city, postcode)
		VALUES (?, ?, ?)
		ON CONFLICT (entity_id) DO UPDATE SET
			city = EXCLUDED.city,
			postcode = EXCLUDED.postcode
	`)

	processed := 0
	withCity := 0
	for rows.Next() {
		var id int64
		var addr string
		if err := rows.Scan(&id, &addr); err != nil {
			return fmt.Errorf("failed to scan address row: %w", err)
		}
		city, postcode := parseComponents(addr)
		if _, err := conn.DB.Exec(upsert, id, city, postcode); err != nil {
			return fmt.Errorf("failed to upsert components for entity %d: %w", id, err)
		}
		processed++
		if city != "" {
			withCity++
		}
		if processed%500 == 0 {
			fmt.Printf("Processed %d addresses...\n", processed)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	fmt.Printf("Done: %d addresses, %d with a city component\n", processed, withCity)
	return nil
}

func showStats(conn *db.Connection) {
	var total, parsed, withCity, withPostcode int
	conn.DB.QueryRow(`SELECT COUNT(*) FROM master_entity`).Scan(&total)
	conn.DB.QueryRow(`SELECT COUNT(*) FROM postal_component`).Scan(&parsed)
	conn.DB.QueryRow(`SELECT COUNT(*) FROM postal_component WHERE city <> ''`).Scan(&withCity)
	conn.DB.QueryRow(`SELECT COUNT(*) FROM postal_component WHERE postcode <> ''`).Scan(&withPostcode)

	fmt.Printf("Catalog entities:    %d\n", total)
	fmt.Printf("Parsed addresses:    %d\n", parsed)
	fmt.Printf("  with city:         %d\n", withCity)
	fmt.Printf("  with postcode:     %d\n", withPostcode)
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  Test libpostal parsing:")
	fmt.Println("    ./postal-preprocessor -cmd=test-parse -address=\"ACHARYA DONDE MARG, PAREL, MUMBAI, 400012\"")
	fmt.Println()
	fmt.Println("  Parse all catalog addresses into components:")
	fmt.Println("    ./postal-preprocessor -cmd=preprocess-catalog")
	fmt.Println()
	fmt.Println("  Show component coverage:")
	fmt.Println("    ./postal-preprocessor -cmd=stats")
}
