// Package main provides a CLI tool for seeding the database with demo
// data: two operating units, a small product catalog and opening
// central stock.
package main

import (
	"context"
	"fmt"
	"os"

	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/catalog/product"
	"stockyard/internal/domain/catalog/unit"
	"stockyard/internal/domain/ledger"
	"stockyard/internal/domain/replenishment"
	"stockyard/internal/infrastructure/storage/postgres"
	"stockyard/internal/infrastructure/storage/postgres/catalog_repo"
	"stockyard/internal/infrastructure/storage/postgres/document_repo"
	"stockyard/internal/infrastructure/storage/postgres/ledger_repo"
	"stockyard/pkg/logger"
	"stockyard/pkg/numerator"
)

func main() {
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
	num := numerator.New(pool)

	auditSink, err := postgres.NewAuditSink(txManager)
	if err != nil {
		log.Fatalw("failed to create audit sink", "error", err)
	}

	productRepo := catalog_repo.NewProductRepo(txManager)
	unitRepo := catalog_repo.NewUnitRepo(txManager)
	balanceRepo := ledger_repo.NewBalanceRepo(txManager)
	replenishmentRepo := document_repo.NewReplenishmentRepo(txManager)

	productService := product.NewService(productRepo, txManager, num)
	unitService := unit.NewService(unitRepo, txManager, num)
	ledgerService := ledger.NewService(balanceRepo, txManager, auditSink)
	replenishmentService := replenishment.NewService(replenishmentRepo, ledgerService, productService, num, txManager)

	seeder := id.New() // synthetic actor for seeded documents

	// --- Units ---
	units := []*unit.Unit{
		unit.New("Main Street Kiosk", "12 Main St"),
		unit.New("Riverside Stand", "3 Riverside Walk"),
	}
	for _, u := range units {
		if err := unitService.Create(ctx, u); err != nil {
			log.Fatalw("failed to create unit", "name", u.Name, "error", err)
		}
		log.Infow("unit created", "name", u.Name, "id", u.ID)
	}

	// --- Products ---
	water := product.New("Bottled Water 0.5L", "WATER-05", product.TypeSet, product.SourceCentralStock)
	water.ItemsPerSet = 12
	water.Uom, water.UomPlural = "bottle", "bottles"
	water.SetUom, water.SetUomPlural = "set", "sets"
	water.CostPrice = types.NewMoney(0.30)
	water.SellingPrice = types.NewMoney(0.80)

	soda := product.New("Orange Soda Can", "SODA-OR", product.TypeIndividual, product.SourceCentralStock)
	soda.Uom, soda.UomPlural = "can", "cans"
	soda.CostPrice = types.NewMoney(0.45)
	soda.SellingPrice = types.NewMoney(1.20)

	coffee := product.New("Fresh Brewed Coffee", "COFFEE", product.TypeIndividual, product.SourceUnitProduced)
	coffee.Uom, coffee.UomPlural = "cup", "cups"
	coffee.SellingPrice = types.NewMoney(2.50)

	for _, p := range []*product.Product{water, soda, coffee} {
		if err := productService.Create(ctx, p); err != nil {
			log.Fatalw("failed to create product", "sku", p.SKU, "error", err)
		}
		log.Infow("product created", "sku", p.SKU, "id", p.ID)
	}

	// --- Opening central stock ---
	openings := []struct {
		p     *product.Product
		items int64
		note  string
	}{
		{water, 50 * 12, "opening stock, 50 sets"},
		{soda, 200, "opening stock"},
	}
	for _, o := range openings {
		batch, err := replenishmentService.Replenish(ctx, o.p.ID, seeder, o.items, "", o.note)
		if err != nil {
			log.Fatalw("failed to replenish", "sku", o.p.SKU, "error", err)
		}
		log.Infow("central stock replenished", "sku", o.p.SKU, "items", o.items, "batch", batch.Number)
	}

	// --- Low stock thresholds ---
	for _, p := range []*product.Product{water, soda} {
		if err := ledgerService.SetLowStockThreshold(ctx, ledger.Central(), p.ID, 24); err != nil {
			log.Fatalw("failed to set threshold", "sku", p.SKU, "error", err)
		}
	}

	log.Info("seeding complete")
}
