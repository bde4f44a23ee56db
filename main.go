package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"oddsmatch/cmd"
	"oddsmatch/config"
	"oddsmatch/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			if err := handleMigrationCommand(); err != nil {
				log.Fatal("Migration error: ", err)
			}
			return
		case "replay":
			if len(os.Args) < 3 {
				log.Fatal("usage: oddsmatch replay <command-log>")
			}
			if err := cmd.Replay(context.Background(), os.Args[2]); err != nil {
				log.Fatal("Replay error: ", err)
			}
			return
		case "run":
		default:
			log.Fatalf("unknown command: %s (expected run, replay or migrate)", os.Args[1])
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: oddsmatch migrate [up|down|status] [args...]")
	}

	cfg := config.Get()
	cmd.ConfigureLogging(cfg)
	databaseURL := cfg.GetDatabaseURL()
	if databaseURL == "" {
		return fmt.Errorf("database_url is not configured")
	}

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
