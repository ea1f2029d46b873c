package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/JamesBuckley3/supply-chain-simulator/sim"
	"github.com/JamesBuckley3/supply-chain-simulator/sim/export"
	"github.com/JamesBuckley3/supply-chain-simulator/sim/seedgen"
	"github.com/JamesBuckley3/supply-chain-simulator/sim/store/postgres"
	"github.com/JamesBuckley3/supply-chain-simulator/sim/store/sqlite"
)

var (
	seed             int64  // Master seed; fixes the whole event sequence
	iterations       int    // Step count override (0 = scenario value)
	maintenanceEvery int    // Maintenance period override (0 = scenario value)
	logLevel         string // Log verbosity level
	scenarioPath     string // Scenario YAML overlaying the defaults
	storeBackend     string // memory, sqlite or postgres
	dbPath           string // sqlite database file
	databaseURL      string // postgres DSN (falls back to DATABASE_URL)
	fulfillmentCSV   string // fulfillment log export path ("" = skip)
	inventoryCSV     string // inventory history export path ("" = skip)
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "supply-chain-simulator",
	Short: "Discrete-event simulator for supply chain fulfillment dynamics",
}

// runCmd executes one simulation run using parameters from CLI flags and the
// scenario file.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the supply chain simulation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q", logLevel)
		}
		logrus.SetLevel(level)

		// .env is optional; real env vars win either way
		_ = godotenv.Load()

		scenario, err := LoadScenario(scenarioPath)
		if err != nil {
			return err
		}
		if iterations > 0 {
			scenario.Simulation.Iterations = iterations
		}
		if maintenanceEvery > 0 {
			scenario.Simulation.MaintenanceEvery = maintenanceEvery
		}

		wallStart := time.Now()
		ctx := context.Background()

		catalog, inventory, err := seedgen.Generate(scenario.Catalog, seed, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("generate catalog: %w", err)
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if err := store.SeedCatalog(ctx, catalog, inventory); err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}

		s, err := sim.NewSimulator(scenario.Simulation, catalog, store, seed)
		if err != nil {
			return err
		}
		logrus.Infof("run %s: seed=%d store=%s", s.RunID, seed, storeBackend)

		if err := s.Run(ctx); err != nil {
			return err
		}
		s.Metrics.Print(wallStart)

		if err := export.Dump(ctx, store, fulfillmentCSV, inventoryCSV); err != nil {
			return err
		}
		if fulfillmentCSV != "" {
			logrus.Infof("fulfillment log exported to %s", fulfillmentCSV)
		}
		if inventoryCSV != "" {
			logrus.Infof("inventory history exported to %s", inventoryCSV)
		}
		return nil
	},
}

// openStore picks the persistence backend. Loss of connectivity here is
// fatal by design: nothing has been simulated yet.
func openStore(ctx context.Context) (sim.Store, error) {
	switch storeBackend {
	case "memory":
		return sim.NewMemStore(), nil
	case "sqlite":
		return sqlite.Open(dbPath)
	case "postgres":
		url := databaseURL
		if url == "" {
			url = os.Getenv("DATABASE_URL")
		}
		if url == "" {
			return nil, fmt.Errorf("postgres backend requires --database-url or DATABASE_URL")
		}
		return postgres.Open(ctx, url)
	default:
		return nil, fmt.Errorf("unknown store backend %q", storeBackend)
	}
}

// Execute runs the CLI root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands.
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the deterministic run")
	runCmd.Flags().IntVar(&iterations, "iterations", 0, "Total simulation steps (0 = scenario value)")
	runCmd.Flags().IntVar(&maintenanceEvery, "maintenance-every", 0, "Maintenance period in steps (0 = scenario value)")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario YAML file overlaying the defaults")

	runCmd.Flags().StringVar(&storeBackend, "store", "memory", "Persistence backend (memory, sqlite, postgres)")
	runCmd.Flags().StringVar(&dbPath, "db-path", "supplychain.db", "SQLite database file (sqlite backend)")
	runCmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres DSN (postgres backend; defaults to DATABASE_URL)")

	runCmd.Flags().StringVar(&fulfillmentCSV, "fulfillment-csv", "fulfillment_log.csv", "Fulfillment log export path (empty = skip)")
	runCmd.Flags().StringVar(&inventoryCSV, "inventory-csv", "inventory_history.csv", "Inventory history export path (empty = skip)")

	rootCmd.AddCommand(runCmd)
}
