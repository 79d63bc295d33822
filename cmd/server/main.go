package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/fieldline/sales-crm/internal/config"
	"github.com/fieldline/sales-crm/internal/database"
	"github.com/fieldline/sales-crm/internal/dedupe"
	"github.com/fieldline/sales-crm/internal/handler"
	"github.com/fieldline/sales-crm/internal/middleware"
	"github.com/fieldline/sales-crm/internal/queue"
	"github.com/fieldline/sales-crm/internal/repository"
	"github.com/fieldline/sales-crm/internal/router"
	queuepub "github.com/fieldline/sales-crm/internal/service"
)

func main() {
	_ = godotenv.Load() // best-effort; real deployments set env directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	leads := repository.NewLeadRepo(db)
	pipeline := repository.NewPipelineRepo(db)
	candidates := repository.NewCandidateRepo(db)
	warnings := repository.NewWarningRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	// Duplicate engine
	audit := &dedupe.AuditLogger{Sink: auditRepo}
	checker := dedupe.NewChecker(candidates, warnings, audit, queuepub.EventPublisher{})
	checker.SetLookback(cfg.LookbackMonths)
	lifecycle := dedupe.NewLifecycle(warnings, audit)

	// Handlers
	authH := handler.NewAuthHandler(cfg, users, tokens)
	leadH := handler.NewLeadHandler(users, leads, checker, lifecycle, audit)
	pipeH := handler.NewPipelineHandler(users, pipeline, checker, lifecycle, audit)
	dedupeH := handler.NewDedupeHandler(users, checker, lifecycle, audit, auditRepo)
	exportH := handler.NewExportHandler(users, leads, pipeline, audit)

	// Redis-backed middleware; both degrade to pass-through when Redis is
	// unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Mirror duplicate warnings into logs/duplicates.log in the background.
	go func() {
		if err := queue.StartWarningConsumer(); err != nil {
			log.Printf("warning consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterCRM(e, leadH, pipeH, dedupeH, exportH, cfg.JWTSecret, rateLimit, cache)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
