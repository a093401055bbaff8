package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/hondana/buyback-mailer/internal/api"
	"github.com/hondana/buyback-mailer/internal/config"
	"github.com/hondana/buyback-mailer/internal/content"
	"github.com/hondana/buyback-mailer/internal/engine"
	"github.com/hondana/buyback-mailer/internal/ledger"
	"github.com/hondana/buyback-mailer/internal/news"
	"github.com/hondana/buyback-mailer/internal/pkg/logger"
	"github.com/hondana/buyback-mailer/internal/repository/postgres"
	"github.com/hondana/buyback-mailer/internal/storage"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  Buyback Mailer Server (cmd/server/main.go)                ║")
	log.Println("║  Warehouse-driven buyback email planning API               ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Logging.RedactPII != nil {
		logger.SetRedactPII(*cfg.Logging.RedactPII)
	}

	// Pre-flight check: verify the target port is available
	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handlers := api.NewHandlers(engine.PlannerConfig{
		Budget: engine.BudgetConfig{
			BaseDailyEmails: cfg.Engine.BaseDailyEmails,
			MinDailyEmails:  cfg.Engine.MinDailyEmails,
			MaxDailyEmails:  cfg.Engine.MaxDailyEmails,
		},
		Policy:  engine.Policy(cfg.Engine.Policy),
		Ruleset: engine.Ruleset(cfg.Engine.Ruleset),
		Workers: cfg.Engine.Workers,
	})
	deps := api.Deps{}

	// Initialize the plan archive
	switch cfg.Storage.Type {
	case "s3":
		archive, err := storage.NewS3Archive(ctx, cfg.Storage.S3Bucket, cfg.Storage.AWSRegion, cfg.Storage.GetAWSProfile())
		if err != nil {
			log.Fatalf("Failed to initialize S3 archive: %v", err)
		}
		handlers.Archive = archive
		deps.S3Client = archive.Client()
		deps.S3Bucket = archive.Bucket()
		log.Printf("Plan archive: s3://%s (region %s)", cfg.Storage.S3Bucket, cfg.Storage.AWSRegion)
	default:
		archive, err := storage.NewLocalArchive(cfg.Storage.LocalPath)
		if err != nil {
			log.Fatalf("Failed to initialize local archive: %v", err)
		}
		handlers.Archive = archive
		log.Printf("Plan archive: local path %s", cfg.Storage.LocalPath)
	}

	// Initialize PostgreSQL for customers and plan history
	if cfg.Database.Enabled && cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Printf("Warning: Failed to open database: %v", err)
		} else {
			db.SetMaxOpenConns(10)
			db.SetMaxIdleConns(3)
			db.SetConnMaxLifetime(5 * time.Minute)

			pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
			if err := db.PingContext(pingCtx); err != nil {
				log.Printf("Warning: Database ping failed: %v — plan persistence disabled", err)
			} else {
				handlers.PlanRepo = postgres.NewPlanRepo(db)
				deps.DB = db
				log.Println("PostgreSQL connected: plan persistence enabled")
			}
			pingCancel()
		}
	} else {
		log.Println("Database not configured — plans are kept in the archive only")
	}

	// Initialize Redis for the relationship ledger
	if cfg.Redis.Enabled && cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v — ledger disabled", cfg.Redis.Addr, err)
			redisClient.Close()
		} else {
			handlers.Ledger = ledger.New(redisClient)
			deps.RedisClient = redisClient
			log.Printf("Redis connected: %s (relationship ledger enabled)", cfg.Redis.Addr)
		}
		pingCancel()
	} else {
		log.Println("Redis not configured — roster state is used as-is")
	}

	// Initialize content generation backends
	var backends []content.Completer
	if cfg.AI.AnthropicAPIKey != "" {
		backends = append(backends, content.NewAnthropicClient(cfg.AI.AnthropicAPIKey, cfg.AI.AnthropicModel))
		log.Printf("Anthropic backend configured (model: %s)", cfg.AI.AnthropicModel)
	}
	if cfg.AI.OpenAIAPIKey != "" {
		backends = append(backends, content.NewOpenAIClient(cfg.AI.OpenAIAPIKey, cfg.AI.OpenAIModel))
		log.Printf("OpenAI backend configured (model: %s)", cfg.AI.OpenAIModel)
	}
	if cfg.AI.BedrockEnabled {
		bedrock, err := content.NewBedrockClient(ctx, cfg.AI.BedrockModelID, cfg.AI.BedrockRegion)
		if err != nil {
			log.Printf("Warning: Failed to initialize Bedrock backend: %v", err)
		} else {
			backends = append(backends, bedrock)
			log.Printf("Bedrock backend configured (model: %s, region: %s)", cfg.AI.BedrockModelID, cfg.AI.BedrockRegion)
		}
	}
	if len(backends) == 0 {
		log.Println("No LLM backend configured — content generation uses templates only")
	}

	// Build the content catalog, enriched with stories from the news feeds
	catalog := content.DefaultCatalog()
	if len(cfg.News.FeedURLs) > 0 {
		feedCtx, feedCancel := context.WithTimeout(ctx, 20*time.Second)
		items := news.NewService().FetchAll(feedCtx, cfg.News.FeedURLs)
		feedCancel()
		catalog.Stories = news.SelectStories(items, "", 5)
		log.Printf("News feeds: %d items fetched, %d stories selected", len(items), len(catalog.Stories))
	}
	handlers.Content = content.NewService(catalog, backends...)

	server := api.NewServer(cfg.Server, handlers, deps)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized — server is ready")

	<-done
	log.Println("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
