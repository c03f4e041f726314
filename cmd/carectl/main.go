package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"carelog/internal/calendar"
	"carelog/internal/config"
	"carelog/internal/database"
	"carelog/internal/logger"
	"carelog/internal/repository"
	"carelog/internal/security"
	"carelog/internal/service"
)

func main() {
	// Define subcommands
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	materializeCmd := flag.NewFlagSet("materialize", flag.ExitOnError)

	// Token flags
	tokenUser := tokenCmd.Int64("user", 0, "User id to issue the token for (required)")

	// Materialize flags
	materializeDate := materializeCmd.String("date", "", "Date to materialize, YYYY-MM-DD (default: server today)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"})
	defer log.Sync()

	switch os.Args[1] {
	case "migrate":
		migrateCmd.Parse(os.Args[2:])
		handleMigrate(cfg, log)

	case "token":
		tokenCmd.Parse(os.Args[2:])
		if *tokenUser <= 0 {
			fmt.Println("Error: -user flag is required")
			tokenCmd.PrintDefaults()
			os.Exit(1)
		}
		handleToken(cfg, *tokenUser)

	case "materialize":
		materializeCmd.Parse(os.Args[2:])
		handleMaterialize(cfg, log, *materializeDate)

	default:
		printUsage()
		os.Exit(1)
	}
}

func openDB(cfg *config.Config, log *zap.Logger) *database.DB {
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	return db
}

func handleMigrate(cfg *config.Config, log *zap.Logger) {
	// Opening the database applies pending migrations
	db := openDB(cfg, log)
	defer db.Close()

	log.Info("migrations applied", zap.String("type", cfg.DatabaseType))
}

func handleToken(cfg *config.Config, userID int64) {
	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	token, expiresAt, err := tokens.Issue(userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
}

func handleMaterialize(cfg *config.Config, log *zap.Logger, dateArg string) {
	resolver := calendar.NewResolver(calendar.Real(), cfg.DefaultTimezone)
	date := resolver.ServerToday()
	if dateArg != "" {
		parsed, err := calendar.ParseDate(dateArg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -date %q, expected YYYY-MM-DD\n", dateArg)
			os.Exit(1)
		}
		date = parsed
	}

	db := openDB(cfg, log)
	defer db.Close()

	schedules := service.NewScheduleService(
		repository.NewScheduleRepository(db),
		repository.NewRoutineRepository(db),
		log,
		cfg.StoreTimeout,
	)

	created, err := schedules.MaterializeAll(context.Background(), date)
	if err != nil {
		log.Fatal("materialization failed", zap.Error(err))
	}

	fmt.Printf("Materialized %d schedule(s) for %s\n", created, calendar.FormatDate(date))
}

func printUsage() {
	fmt.Println("Usage: carectl <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate                    Apply pending database migrations")
	fmt.Println("  token -user N              Issue a bearer token for user N")
	fmt.Println("  materialize [-date DATE]   Create schedule instances for every active routine on DATE")
}
