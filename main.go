package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wagerengine/cmd"
	"wagerengine/config"
	"wagerengine/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Get()
	cmd.ConfigureLogging(cfg)

	command := "serve"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "migrate":
		if err := handleMigrationCommand(cfg); err != nil {
			log.Fatalf("Migration error: %v", err)
		}
		return
	case "verify-ledger":
		if err := cmd.VerifyLedger(context.Background()); err != nil {
			log.Fatalf("Ledger verification failed: %v", err)
		}
		return
	case "serve":
	default:
		log.Fatalf("unknown command: %s (usage: wagerengine [serve|migrate|verify-ledger])", command)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func handleMigrationCommand(cfg *config.Config) error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: wagerengine migrate [up|down|status] [args...]")
	}

	databaseURL := cfg.GetDatabaseURL()
	switch os.Args[2] {
	case "up":
		return database.MigrateUp(databaseURL)
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(databaseURL, steps)
	case "status":
		return database.MigrateStatus(databaseURL)
	default:
		return fmt.Errorf("unknown migration command: %s", os.Args[2])
	}
}
