package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"sparrow/internal/cli"
	"sparrow/internal/config"
	"sparrow/internal/db"
	"sparrow/internal/discovery"
	"sparrow/internal/generation"
	"sparrow/internal/knowledge"
	"sparrow/internal/llm"
	"sparrow/internal/logging"
	"sparrow/internal/metrics"
	"sparrow/internal/platform"
	"sparrow/internal/platform/x"
	"sparrow/internal/repository"
	"sparrow/internal/scheduler"
	"sparrow/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := configPath()
	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if p := os.Getenv("SPARROW_DB"); p != "" {
		cfg.Storage.DBPath = p
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.OpenDB(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	profileRepo := repository.NewSQLiteProfileRepo(database)
	accountRepo := repository.NewSQLiteAccountRepo(database)
	authorRepo := repository.NewSQLiteAuthorRepo(database)
	opportunityRepo := repository.NewSQLiteOpportunityRepo(database)
	responseRepo := repository.NewSQLiteResponseRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)
	m := metrics.New()

	// One adapter per platform, bound to the stored account's handle.
	registry := platform.NewRegistry()
	accounts, err := accountRepo.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing accounts: %w", err)
	}
	for _, account := range accounts {
		switch account.Platform {
		case "x":
			opts := []x.Option{}
			if cfg.X.RatePerSecond > 0 {
				opts = append(opts, x.WithRateLimit(cfg.X.RatePerSecond, 1))
			}
			registry.Register(x.NewClient(account.Handle, cfg.X.BearerToken, cfg.X.UserToken, opts...))
		default:
			logger.Warn("no adapter for platform", zap.String("platform", account.Platform))
		}
	}

	var llmObserver llm.Observer = m.Observer()
	if os.Getenv("SPARROW_LLM_LOG_CALLS") == "1" {
		llmObserver = llm.MultiObserver{m.Observer(), llm.NewLogObserver(os.Stderr)}
	}
	llmClient := llm.NewOllamaClient(llm.LoadConfig(), llmObserver)

	var searcher knowledge.Searcher
	if cfg.Knowledge.Endpoint != "" {
		searcher = knowledge.NewHTTPSearcher(cfg.Knowledge.Endpoint)
	}

	engine := discovery.NewEngine(accountRepo, profileRepo, authorRepo, opportunityRepo, registry, uow, m, logger)

	app := &cli.App{
		Opportunities: service.NewOpportunityService(opportunityRepo),
		Responses:     service.NewResponseService(responseRepo),
		Posting:       service.NewPostingService(responseRepo, opportunityRepo, accountRepo, registry, uow, m, logger),
		Accounts:      service.NewAccountService(accountRepo, profileRepo),
		Profiles:      service.NewProfileService(profileRepo),

		Authors: authorRepo,

		Scheduler: scheduler.New(accountRepo, engine, logger),
		Sweeper:   scheduler.NewSweeper(opportunityRepo, cfg.Engine.SweepInterval, m, logger),
		Pipeline:  generation.NewPipeline(opportunityRepo, profileRepo, responseRepo, registry, llmClient, searcher, cfg.Knowledge.TopK, logger),
		Metrics:   m,

		Config:     cfg,
		ConfigPath: cfgPath,
		Logger:     logger,
	}

	return cli.NewRootCmd(app).Execute()
}

func configPath() string {
	if p := os.Getenv("SPARROW_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "sparrow.yaml"
	}
	return filepath.Join(home, ".sparrow", "config.yaml")
}
