package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"telegram-subscription-payments/internal/config"
	pg "telegram-subscription-payments/internal/infra/db/postgres"
	"telegram-subscription-payments/internal/infra/logging"
	"telegram-subscription-payments/internal/usecase"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planRepo := pg.NewPostgresPlanRepo(pool)
	txnRepo := pg.NewTransactionRepo(pool)
	planUC := usecase.NewPlanUseCase(planRepo, txnRepo, logger)

	// If plans already exist, do nothing
	plans, err := planUC.List(ctx)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (days=%d, price=%d som)\n", p.Name, p.DurationDays, p.Price.Value)
		}
		return
	}

	seed := []struct {
		Name  string
		Days  int
		Price int64
	}{
		{"Basic", 30, 7_777},
		{"Standard", 90, 5_000},
		{"Premium", 360, 15_000},
	}

	for _, s := range seed {
		p, err := planUC.Create(ctx, s.Name, s.Days, s.Price)
		if err != nil {
			log.Fatalf("create plan %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%s, days=%d, price=%d som)\n", p.Name, p.ID, p.DurationDays, p.Price.Value)
	}

	fmt.Println("✅ Seeding complete.")
}
