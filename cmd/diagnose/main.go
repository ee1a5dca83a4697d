// Package main provides a CLI for diagnosing stored daily reports.
// Usage: diagnose [-unit <unit-id>]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"stockyard/internal/core/id"
	"stockyard/internal/domain/ledger"
	"stockyard/internal/domain/report"
	"stockyard/internal/infrastructure/storage/postgres"
	"stockyard/internal/infrastructure/storage/postgres/ledger_repo"
	"stockyard/internal/infrastructure/storage/postgres/report_repo"
	"stockyard/pkg/logger"
	"stockyard/pkg/numerator"
)

func main() {
	unitFlag := flag.String("unit", "", "restrict diagnosis to one unit id")
	flag.Parse()

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	var unitID *id.ID
	if *unitFlag != "" {
		parsed, err := id.Parse(*unitFlag)
		if err != nil {
			log.Fatalw("invalid unit id", "unit", *unitFlag)
		}
		unitID = &parsed
	}

	balanceRepo := ledger_repo.NewBalanceRepo(txManager)
	reportRepo := report_repo.NewDailyReportRepo(txManager)
	engine := report.NewEngine(reportRepo, readOnlyBalances{balanceRepo}, numerator.New(pool), txManager)

	discrepancies, err := engine.Diagnose(ctx, unitID)
	if err != nil {
		log.Fatalw("diagnosis failed", "error", err)
	}

	if len(discrepancies) == 0 {
		fmt.Println("all reports are consistent")
		return
	}

	fmt.Printf("%-36s  %-10s  %-36s  %-16s  %10s  %10s\n",
		"UNIT", "DATE", "PRODUCT", "REASON", "EXPECTED", "ACTUAL")
	for _, d := range discrepancies {
		fmt.Printf("%-36s  %-10s  %-36s  %-16s  %10d  %10d\n",
			d.UnitID, d.Date.Format("2006-01-02"), d.ProductID,
			d.Reason, d.ExpectedClosing, d.ActualClosing)
	}
	os.Exit(1)
}

// readOnlyBalances adapts the balance repo to the engine's read view.
type readOnlyBalances struct {
	repo *ledger_repo.BalanceRepo
}

func (r readOnlyBalances) ListBalances(ctx context.Context, scope ledger.Scope) ([]ledger.Balance, error) {
	return r.repo.ListByScope(ctx, scope)
}
