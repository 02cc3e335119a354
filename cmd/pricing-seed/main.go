// Command pricing-seed loads franchise pricing policies from a YAML file.
//
//	academies:
//	  - academy_id: acad-001
//	    billing_type: per_student
//	    price_per_student: 15000
//	  - academy_id: acad-002
//	    billing_type: flat_rate
//	    flat_rate_amount: 300000
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/repository"
	"github.com/noah-isme/academy-billing-api/pkg/config"
	"github.com/noah-isme/academy-billing-api/pkg/database"
	"github.com/noah-isme/academy-billing-api/pkg/logger"
)

func main() {
	var (
		path    string
		actor   string
		dryRun  bool
		timeout time.Duration
	)
	flag.StringVar(&path, "file", "pricing.yaml", "Path to the pricing YAML file")
	flag.StringVar(&actor, "actor", "", "User id recorded as updated_by")
	flag.BoolVar(&dryRun, "dry-run", false, "Validate the file without writing")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	f, err := os.Open(path)
	if err != nil {
		logr.Fatal("failed to open seed file", zap.String("file", path), zap.Error(err))
	}
	policies, err := parseSeed(f, validator.New())
	_ = f.Close()
	if err != nil {
		logr.Fatal("invalid seed file", zap.String("file", path), zap.Error(err))
	}
	if dryRun {
		logr.Info("seed file valid", zap.Int("academies", len(policies)))
		return
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	n, err := applySeed(ctx, repository.NewPricingRepository(db), policies, actor)
	if err != nil {
		logr.Fatal("seed aborted", zap.Int("applied", n), zap.Error(err))
	}
	logr.Info("pricing seeded", zap.Int("academies", n))
}
