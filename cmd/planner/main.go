package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/hondana/buyback-mailer/internal/config"
	"github.com/hondana/buyback-mailer/internal/domain"
	"github.com/hondana/buyback-mailer/internal/engine"
	"github.com/hondana/buyback-mailer/internal/ledger"
	"github.com/hondana/buyback-mailer/internal/pkg/distlock"
	"github.com/hondana/buyback-mailer/internal/pkg/logger"
	"github.com/hondana/buyback-mailer/internal/repository/postgres"
	"github.com/hondana/buyback-mailer/internal/roster"
	"github.com/hondana/buyback-mailer/internal/storage"
)

func main() {
	var (
		configPath    = flag.String("config", "config/config.yaml", "path to config file")
		rosterPath    = flag.String("roster", "", "roster file (.csv or .json)")
		warehousePath = flag.String("warehouse", "", "warehouse snapshot JSON file")
		scenarioKey   = flag.String("scenario", "", "use a canned scenario instead of -warehouse")
		policy        = flag.String("policy", "", "ranking policy override (standard/optimizer)")
		ruleset       = flag.String("ruleset", "", "classification ruleset override (v1/v2)")
		outPath       = flag.String("out", "", "write the full plan JSON here (default stdout)")
		archivePlan   = flag.Bool("archive", false, "save the plan to the configured archive")
		target        = flag.Int("target", 0, "solve for N expected applications instead of planning")
		targetCSV     = flag.String("target-csv", "", "write the target selection CSV here")
	)
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	now := time.Now().UTC()

	var redisClient *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var db *sql.DB
	if cfg.Database.Enabled && cfg.Database.URL != "" {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
	}

	var customers []domain.CustomerProfile
	switch {
	case *rosterPath != "":
		customers, err = roster.LoadFile(*rosterPath)
		if err != nil {
			log.Fatalf("Failed to load roster: %v", err)
		}
		log.Printf("Loaded %d customers from %s", len(customers), *rosterPath)
	case db != nil:
		customers, err = postgres.NewCustomerRepo(db).ListActive(ctx)
		if err != nil {
			log.Fatalf("Failed to load roster from database: %v", err)
		}
		log.Printf("Loaded %d active customers from the database", len(customers))
	default:
		log.Fatal("-roster is required when no database is configured")
	}

	// Target mode skips the warehouse entirely.
	if *target > 0 {
		sel := engine.NewTargetOptimizer(nil).Select(customers, *target, now)
		log.Printf("Target %d applications: selected %d customers (expected %.1f, mean score %.1f)",
			sel.TargetApplications, sel.SelectedCount, sel.ExpectedApplications, sel.MeanScore)
		for rank, n := range sel.RankBreakdown {
			log.Printf("  %-10s %d", rank, n)
		}
		if *targetCSV != "" {
			f, err := os.Create(*targetCSV)
			if err != nil {
				log.Fatalf("Failed to create %s: %v", *targetCSV, err)
			}
			defer f.Close()
			if err := sel.WriteCSV(f); err != nil {
				log.Fatalf("Failed to write CSV: %v", err)
			}
			log.Printf("Selection written to %s", *targetCSV)
		}
		return
	}

	warehouse, err := loadWarehouse(*warehousePath, *scenarioKey, now)
	if err != nil {
		log.Fatalf("Failed to load warehouse state: %v", err)
	}

	// Hold the run lock so two planners cannot book against the same
	// relationship state. Redis when available, PG advisory lock otherwise.
	if redisClient != nil || db != nil {
		lock := distlock.NewLock(redisClient, db, "buyback:plan-run", 10*time.Minute)
		ok, err := lock.Acquire(ctx)
		if err != nil {
			log.Fatalf("Run lock error: %v", err)
		}
		if !ok {
			log.Fatal("Another plan run holds the lock; try again later")
		}
		defer lock.Release(ctx)
	}

	if redisClient != nil {
		led := ledger.New(redisClient)
		if err := led.Hydrate(ctx, customers); err != nil {
			log.Printf("Warning: ledger hydration failed: %v", err)
		} else {
			log.Println("Roster hydrated from the relationship ledger")
		}
	}

	plannerCfg := engine.PlannerConfig{
		Budget: engine.BudgetConfig{
			BaseDailyEmails: cfg.Engine.BaseDailyEmails,
			MinDailyEmails:  cfg.Engine.MinDailyEmails,
			MaxDailyEmails:  cfg.Engine.MaxDailyEmails,
		},
		Policy:  engine.Policy(cfg.Engine.Policy),
		Ruleset: engine.Ruleset(cfg.Engine.Ruleset),
		Workers: cfg.Engine.Workers,
	}
	if *policy != "" {
		plannerCfg.Policy = engine.Policy(*policy)
	}
	if *ruleset != "" {
		plannerCfg.Ruleset = engine.Ruleset(*ruleset)
	}

	planner, err := engine.NewPlanner(plannerCfg)
	if err != nil {
		log.Fatalf("Planner config error: %v", err)
	}
	plan, err := planner.Run(warehouse, customers, now)
	if err != nil {
		log.Fatalf("Plan run failed: %v", err)
	}

	log.Printf("Plan %s: budget %d (debt %d / credit %d)",
		plan.ID, plan.Budget.TotalBudget, plan.Budget.DebtBudget, plan.Budget.CreditBudget)
	log.Printf("Admitted: debt %d, credit %d, neutral-promos %d, skipped %d",
		plan.AdmitCounts[domain.CategoryDebt],
		plan.AdmitCounts[domain.CategoryCredit],
		plan.TypeCounts[domain.EmailPurchasePromo],
		plan.SkipCount)

	if *archivePlan {
		archive, err := buildArchive(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize archive: %v", err)
		}
		key, err := archive.SavePlan(ctx, plan)
		if err != nil {
			log.Fatalf("Failed to archive plan: %v", err)
		}
		log.Printf("Plan archived: %s", key)

		if db != nil {
			if err := postgres.NewPlanRepo(db).Save(ctx, plan); err != nil {
				log.Printf("Warning: plan row insert failed: %v", err)
			} else {
				log.Println("Plan saved to plan history")
			}
		}
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *outPath, err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plan); err != nil {
		log.Fatalf("Failed to write plan: %v", err)
	}
}

// loadWarehouse reads the snapshot from a JSON file, or borrows one from
// a canned scenario.
func loadWarehouse(path, scenario string, now time.Time) (domain.WarehouseState, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.WarehouseState{}, err
		}
		var w domain.WarehouseState
		if err := json.Unmarshal(data, &w); err != nil {
			return domain.WarehouseState{}, err
		}
		if w.SlackThreshold == 0 {
			w.SlackThreshold = 0.35
		}
		if w.EmergencyLevel == 0 {
			w.DeriveEmergencyLevel()
		}
		return w, nil
	}
	if scenario != "" {
		sc, err := engine.ScenarioByKey(scenario, now)
		if err != nil {
			return domain.WarehouseState{}, err
		}
		return sc.Warehouse, nil
	}
	return domain.WarehouseState{}, fmt.Errorf("either -warehouse or -scenario is required")
}

func buildArchive(ctx context.Context, cfg *config.Config) (storage.Archive, error) {
	if cfg.Storage.Type == "s3" {
		return storage.NewS3Archive(ctx, cfg.Storage.S3Bucket, cfg.Storage.AWSRegion, cfg.Storage.GetAWSProfile())
	}
	return storage.NewLocalArchive(cfg.Storage.LocalPath)
}
