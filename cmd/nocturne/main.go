package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/josermendez0896/Nocturne-web/internal/buildinfo"
	"github.com/josermendez0896/Nocturne-web/internal/cli"
	"github.com/josermendez0896/Nocturne-web/internal/config"
	"github.com/josermendez0896/Nocturne-web/internal/logging"
	"github.com/josermendez0896/Nocturne-web/internal/repositories/repomanager"
	"github.com/josermendez0896/Nocturne-web/internal/storage"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger := logging.New(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("error opening database: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewSQLiteRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Printf("error running migrations: %v", err)
		return
	}

	logger.Debug(ctx, "database ready", "path", cfg.DatabasePath)

	app := cli.NewApp(cfg, db, rm, logger)
	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}
}
