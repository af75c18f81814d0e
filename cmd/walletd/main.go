package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/walletmesh/multiwallet/internal/adapter/repository/postgres"
	"github.com/walletmesh/multiwallet/internal/config"
	"github.com/walletmesh/multiwallet/internal/events"
	"github.com/walletmesh/multiwallet/internal/usecase/services"
)

func main() {
	migrationsDir := flag.String("migrations", "migrations", "directory holding .sql migration files")
	reconcile := flag.String("reconcile", "", "comma-separated wallet ids to validate and repair after startup")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(ctx, db, *migrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	log.Println("migrations applied")

	if *reconcile == "" {
		return
	}

	walletIDs := splitIDs(*reconcile)
	svc := services.NewReconciliationService(
		postgres.NewWalletRepository(db),
		postgres.NewEntryRepository(db),
		postgres.NewUnitOfWork(db),
		cfg,
		events.LogSink{},
	)

	results, err := svc.ReconcileAll(ctx, walletIDs)
	if err != nil {
		log.Fatalf("reconcile wallets: %v", err)
	}
	for _, result := range results {
		if result.Repaired {
			log.Printf("wallet %s repaired, %d bucket(s) corrected", result.WalletID, len(result.Changes))
			continue
		}
		log.Printf("wallet %s consistent", result.WalletID)
	}
}

func splitIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}
