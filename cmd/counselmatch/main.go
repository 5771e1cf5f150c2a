package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/counselmatch/internal/audit"
	"github.com/counselmatch/internal/catalog"
	"github.com/counselmatch/internal/config"
	"github.com/counselmatch/internal/db"
	"github.com/counselmatch/internal/importer"
	"github.com/counselmatch/internal/matcher"
	"github.com/counselmatch/internal/pipeline"
	"github.com/counselmatch/internal/store"
)

var dbConn *db.Connection

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}

	var err error
	dbConn, err = openConnection()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbConn.Close()

	rootCmd := &cobra.Command{
		Use:   "counselmatch",
		Short: "Counselling record resolution and rank aggregation",
		Long:  `Resolves noisy counselling records against the reference college catalog and aggregates opening/closing rank bands`,
	}

	rootCmd.AddCommand(createPingCmd())
	rootCmd.AddCommand(createImportCmd())
	rootCmd.AddCommand(createMatchCmd())
	rootCmd.AddCommand(createAggregateCmd())
	rootCmd.AddCommand(createReportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// openConnection picks the backend from DB_DRIVER. SQLite is the default for
// local runs; Postgres is the shared deployment.
func openConnection() (*db.Connection, error) {
	if config.GetEnv("DB_DRIVER", "sqlite") == "postgres" {
		return db.NewPostgresConnection()
	}
	return db.NewSQLiteConnection(config.GetEnv("SQLITE_PATH", "counselmatch.db"))
}

// createPingCmd creates a command to test database connectivity
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Database connection successful (%s)\n", dbConn.Driver)

			var count int
			if err := dbConn.DB.QueryRow("SELECT COUNT(*) FROM master_entity").Scan(&count); err != nil {
				log.Printf("Error counting master_entity records: %v", err)
			} else {
				fmt.Printf("Catalog entities loaded: %d\n", count)
			}
			if err := dbConn.DB.QueryRow("SELECT COUNT(*) FROM accepted_link").Scan(&count); err != nil {
				log.Printf("Error counting accepted_link records: %v", err)
			} else {
				fmt.Printf("Accepted links: %d\n", count)
			}
		},
	}
}

// createImportCmd creates the import subcommand
func createImportCmd() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import reference data",
	}
	importCmd.AddCommand(createImportCatalogCmd())
	return importCmd
}

func createImportCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog [filename]",
		Short: "Import the reference catalog CSV",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			st := store.NewSQLStore(dbConn)
			ctx := cmd.Context()
			if err := st.Init(ctx); err != nil {
				log.Fatalf("Failed to initialize schema: %v", err)
			}

			entities, skipped, err := importer.ReadCatalog(args[0])
			if err != nil {
				log.Fatalf("Failed to read catalog: %v", err)
			}
			// Classify before persisting so the types are queryable.
			for i := range entities {
				entities[i].InstitutionType = catalog.Classify(entities[i].CanonicalName)
			}
			if err := st.SaveCatalog(ctx, entities); err != nil {
				log.Fatalf("Failed to save catalog: %v", err)
			}
			fmt.Printf("Imported %d entities (%d rows skipped)\n", len(entities), skipped)
		},
	}
}

// createMatchCmd creates the command that runs the full pipeline
func createMatchCmd() *cobra.Command {
	var configPath string

	matchCmd := &cobra.Command{
		Use:   "match [records.csv]",
		Short: "Resolve a counselling export and aggregate rank bands",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()

			matching, err := config.LoadMatching(configPath)
			if err != nil {
				log.Fatalf("Failed to load matching config: %v", err)
			}
			if config.GetEnvBool("MATCH_DEBUG", false) {
				matching.Debug = true
			}

			st := store.NewSQLStore(dbConn)
			if err := st.Init(ctx); err != nil {
				log.Fatalf("Failed to initialize schema: %v", err)
			}

			entities, err := st.LoadCatalog(ctx)
			if err != nil {
				log.Fatalf("Failed to load catalog: %v", err)
			}
			if len(entities) == 0 {
				log.Fatal("Catalog is empty; run 'import catalog' first")
			}
			index := catalog.NewIndex(entities)
			fmt.Printf("Catalog index built: %d entities\n", index.Size())

			records, skipped, err := importer.ReadRawRecords(args[0])
			if err != nil {
				log.Fatalf("Failed to read records: %v", err)
			}
			fmt.Printf("Read %d records (%d rows skipped)\n", len(records), skipped)

			logger, err := zap.NewProduction()
			if err != nil {
				log.Fatalf("Failed to create logger: %v", err)
			}
			defer logger.Sync()

			runID := uuid.NewString()
			engine := matcher.NewEngine(index, matching.MatcherConfig())
			tracker := audit.NewTracker(logger, runID)
			p := pipeline.New(engine, st, tracker, matching.PipelineConfig(), runID)

			report, err := p.Run(ctx, records)
			printReport(report)
			if err != nil {
				log.Fatalf("Run failed: %v", err)
			}
		},
	}

	matchCmd.Flags().StringVar(&configPath, "config", "config.yaml", "Path to matching config")
	return matchCmd
}

func printReport(r *pipeline.Report) {
	fmt.Printf("\nRun %s\n", r.RunID)
	fmt.Printf("  Records:              %d\n", r.TotalRecords)
	fmt.Printf("  Units:                %d\n", r.Units)
	fmt.Printf("  Matched units:        %d\n", r.MatchedUnits)
	fmt.Printf("  Unmatched units:      %d\n", r.UnmatchedUnits)
	for reason, n := range r.UnmatchedReasons {
		fmt.Printf("    %-20s %d\n", reason+":", n)
	}
	fmt.Printf("  Accepted links:       %d\n", r.AcceptedLinks)
	fmt.Printf("  Dropped duplicates:   %d\n", r.DroppedDuplicates)
	fmt.Printf("  Records aggregated:   %d\n", r.RecordsAggregated)
	fmt.Printf("  Aggregates:           %d\n", r.Aggregates)
	fmt.Printf("  Suspicious:           %d\n", r.SuspiciousAggregates)
	if r.Failed {
		fmt.Printf("  FAILED: %s\n", r.FailureReason)
	}
}

// createAggregateCmd creates the rank band query command
func createAggregateCmd() *cobra.Command {
	var entityID int64
	var suspiciousOnly bool

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Show persisted opening/closing rank bands",
		Run: func(cmd *cobra.Command, args []string) {
			query := `
				SELECT entity_id, course_id, category, quota, source_body, level,
					year, round, opening_rank, closing_rank, record_count, suspicious
				FROM rank_aggregate
				WHERE 1 = 1
			`
			params := []interface{}{}
			if entityID > 0 {
				query += " AND entity_id = ?"
				params = append(params, entityID)
			}
			if suspiciousOnly {
				query += " AND suspicious"
			}
			query += " ORDER BY entity_id, course_id, category, quota, source_body, level, year, round"

			rows, err := dbConn.DB.QueryContext(cmd.Context(), dbConn.DB.Rebind(query), params...)
			if err != nil {
				log.Fatalf("Failed to read aggregates: %v", err)
			}
			defer rows.Close()

			count := 0
			for rows.Next() {
				var eID, courseID int64
				var category, quota, sourceBody, level string
				var year, round, opening, closing, records int
				var suspicious bool
				if err := rows.Scan(&eID, &courseID, &category, &quota, &sourceBody, &level,
					&year, &round, &opening, &closing, &records, &suspicious); err != nil {
					log.Fatalf("Failed to scan aggregate row: %v", err)
				}
				flag := ""
				if suspicious {
					flag = "  SUSPICIOUS"
				}
				scope := fmt.Sprintf("R%d", round)
				if round == 0 {
					scope = "year"
				}
				fmt.Printf("entity=%d course=%d %s/%s %s %s %d %s: %d-%d (%d records)%s\n",
					eID, courseID, category, quota, sourceBody, level, year, scope,
					opening, closing, records, flag)
				count++
			}
			if err := rows.Err(); err != nil {
				log.Fatalf("Failed to read aggregates: %v", err)
			}
			fmt.Printf("%d bands\n", count)
		},
	}

	aggregateCmd.Flags().Int64Var(&entityID, "entity", 0, "Filter by entity ID")
	aggregateCmd.Flags().BoolVar(&suspiciousOnly, "suspicious", false, "Only show suspicious bands")
	return aggregateCmd
}

// createReportCmd creates the post-run integrity report command
func createReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show run summaries and integrity checks",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			showRunSummaries(ctx)
			runIntegrityChecks(ctx)
		},
	}
}

func showRunSummaries(ctx context.Context) {
	rows, err := dbConn.DB.QueryContext(ctx, `
		SELECT run_id, matched, unmatched, dropped_duplicates, suspicious_aggregates, failed
		FROM run_summary ORDER BY started_at DESC
	`)
	if err != nil {
		log.Printf("Error reading run summaries: %v", err)
		return
	}
	defer rows.Close()

	fmt.Println("Runs:")
	for rows.Next() {
		var runID string
		var matched, unmatched, dropped, suspicious int
		var failed bool
		if err := rows.Scan(&runID, &matched, &unmatched, &dropped, &suspicious, &failed); err != nil {
			log.Printf("Error scanning run summary: %v", err)
			return
		}
		status := "ok"
		if failed {
			status = "FAILED"
		}
		fmt.Printf("  %s  matched=%d unmatched=%d dropped=%d suspicious=%d  %s\n",
			runID, matched, unmatched, dropped, suspicious, status)
	}
}

// runIntegrityChecks runs the post-run validation queries: a college linked
// in several states is worth a manual look, and duplicate (entity, state)
// links should be impossible while the gate works.
func runIntegrityChecks(ctx context.Context) {
	fmt.Println("\nIntegrity checks:")

	rows, err := dbConn.DB.QueryContext(ctx, `
		SELECT entity_id, COUNT(DISTINCT state) AS states
		FROM accepted_link
		GROUP BY entity_id
		HAVING COUNT(DISTINCT state) > 1
	`)
	if err != nil {
		log.Printf("Error checking multi-state links: %v", err)
		return
	}
	defer rows.Close()

	multiState := 0
	for rows.Next() {
		var entityID int64
		var states int
		if err := rows.Scan(&entityID, &states); err != nil {
			log.Printf("Error scanning multi-state row: %v", err)
			return
		}
		fmt.Printf("  WARN entity %d linked in %d states\n", entityID, states)
		multiState++
	}
	if multiState == 0 {
		fmt.Println("  No colleges linked across multiple states")
	}

	var dup int
	err = dbConn.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (
			SELECT entity_id, state FROM accepted_link
			GROUP BY entity_id, state HAVING COUNT(*) > 1
		) d
	`).Scan(&dup)
	if err != nil {
		log.Printf("Error checking duplicate links: %v", err)
		return
	}
	if dup > 0 {
		fmt.Printf("  VIOLATION: %d (entity, state) pairs with multiple links\n", dup)
	} else {
		fmt.Println("  No duplicate (entity, state) links")
	}
}
