package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/reviewspace/internal/api"
	"github.com/reviewspace/internal/config"
	"github.com/reviewspace/internal/database"
	"github.com/reviewspace/internal/engine"
	"github.com/reviewspace/internal/identity"
	"github.com/reviewspace/internal/jobqueue"
	"github.com/reviewspace/internal/storage"
	"github.com/reviewspace/internal/workflow"
)

// APICommand returns the CLI command for starting the API server
func APICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the ReviewSpace API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server",
				Value:   0,
			},
		},
		Action: runAPI,
	}
}

func runAPI(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	port := cfg.Server.Port
	if p := c.Int("port"); p != 0 {
		port = p
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	db, err := database.NewDB()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	pool, err := database.NewPool(c.Context)
	if err != nil {
		return fmt.Errorf("create pgx pool: %w", err)
	}
	defer pool.Close()

	// Storage adapters
	spaceStore := storage.NewSpaceStore(db, logger)
	targetStore := storage.NewTargetStore(db, logger)
	historyStore := storage.NewHistoryStore(db, logger)
	memberStore := storage.NewMembershipStore(db)
	userStore := storage.NewUserStore(db, logger)

	// Core services
	transitions := workflow.NewTransitionService(historyStore, logger)
	resolver := identity.NewResolver(userStore, logger)

	engineClient := engine.NewClient(
		cfg.Engine.URL,
		cfg.Engine.RequestsPerSecond,
		time.Duration(cfg.Engine.TimeoutSeconds)*time.Second,
		logger,
	)

	queueCfg := jobqueue.DefaultQueueConfig()
	if cfg.Queue.MaxWorkers > 0 {
		queueCfg.MaxWorkers = cfg.Queue.MaxWorkers
	}
	if cfg.Queue.MaxAttempts > 0 {
		queueCfg.MaxAttempts = cfg.Queue.MaxAttempts
	}
	if cfg.Queue.JobTimeoutSeconds > 0 {
		queueCfg.JobTimeout = time.Duration(cfg.Queue.JobTimeoutSeconds) * time.Second
	}

	queue, err := jobqueue.NewJobQueue(pool, queueCfg, engineClient, transitions, logger)
	if err != nil {
		return fmt.Errorf("create job queue: %w", err)
	}

	spaces := workflow.NewSpaceService(spaceStore, memberStore, logger)
	targets := workflow.NewTargetService(targetStore, spaceStore, historyStore, memberStore, queue, logger)

	if err := queue.Start(c.Context); err != nil {
		return fmt.Errorf("start job queue: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := queue.Stop(stopCtx); err != nil {
			logger.Error().Err(err).Msg("job queue shutdown failed")
		}
	}()

	fmt.Printf("Starting ReviewSpace API server on port %d...\n", port)

	server := api.NewServer(port, api.Deps{
		JWTSecret:   cfg.Auth.JWTSecret,
		EngineToken: cfg.Engine.Token,
		Resolver:    resolver,
		SpaceH:      api.NewSpaceHandlers(spaces, logger),
		TargetH:     api.NewTargetHandlers(targets, logger),
		EngineH:     api.NewEngineHandlers(transitions, logger),
	})
	return server.Start()
}
