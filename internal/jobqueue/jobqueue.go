/*
Package jobqueue provides the River-based job queue that drives Q&A analysis
for submitted review targets.

For configuration options, retry policies, and tuning parameters, see
queue_config.go.
*/
package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/rs/zerolog"

	"github.com/reviewspace/internal/engine"
	"github.com/reviewspace/internal/workflow"
)

// QaAnalysisJobArgs represents the arguments for one analysis run.
type QaAnalysisJobArgs struct {
	HistoryID   string `json:"history_id"`
	TargetID    string `json:"target_id"`
	ArtifactRef string `json:"artifact_ref"`
}

// Kind returns the job kind for River
func (QaAnalysisJobArgs) Kind() string {
	return "qa_analysis"
}

// QaAnalysisWorker runs one analysis attempt: claim the history record,
// call the engine, report the terminal status. All state changes go through
// the transition service, so River's at-least-once delivery is safe: a
// re-delivered job hits the idempotency checks and backs off.
type QaAnalysisWorker struct {
	river.WorkerDefaults[QaAnalysisJobArgs]
	engine      *engine.Client
	transitions *workflow.TransitionService
	logger      zerolog.Logger
}

func (w *QaAnalysisWorker) Work(ctx context.Context, job *river.Job[QaAnalysisJobArgs]) error {
	args := job.Args
	log := w.logger.With().Str("history_id", args.HistoryID).Str("target_id", args.TargetID).Logger()

	// Claim the record. A conflict means another delivery of this job already
	// claimed or finished it; that is not a failure.
	err := w.transitions.Apply(ctx, workflow.EngineReport{
		HistoryID: args.HistoryID,
		Status:    workflow.StatusProcessing,
	})
	if err != nil {
		if errors.Is(err, workflow.ErrStatusConflict) {
			log.Debug().Msg("analysis already claimed, skipping duplicate delivery")
			return nil
		}
		if errors.Is(err, workflow.ErrNotFound) {
			// The space was deleted while the job sat in the queue.
			log.Warn().Msg("qa history gone, dropping analysis job")
			return nil
		}
		return fmt.Errorf("claim qa history: %w", err)
	}

	outcome, analyzeErr := w.engine.Analyze(ctx, args.ArtifactRef)
	if analyzeErr != nil {
		detail := analyzeErr.Error()
		log.Warn().Err(analyzeErr).Msg("engine analysis failed")

		// The analysis context may already be cancelled (job timeout); the
		// failure still has to land in the record or it stays in processing
		// with no retry path.
		reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()

		reportErr := w.transitions.Apply(reportCtx, workflow.EngineReport{
			HistoryID:   args.HistoryID,
			Status:      workflow.StatusError,
			ErrorDetail: &detail,
		})
		if reportErr != nil && !errors.Is(reportErr, workflow.ErrStatusConflict) {
			return fmt.Errorf("report analysis failure: %w", reportErr)
		}
		// The failure is recorded; the job itself succeeded.
		return nil
	}

	err = w.transitions.Apply(ctx, workflow.EngineReport{
		HistoryID: args.HistoryID,
		Status:    workflow.StatusCompleted,
		Outcome:   outcome,
	})
	if err != nil && !errors.Is(err, workflow.ErrStatusConflict) {
		return fmt.Errorf("report analysis completion: %w", err)
	}

	log.Info().Msg("analysis completed")
	return nil
}

// JobQueue manages the River client and implements workflow.AnalysisQueue.
type JobQueue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	config *QueueConfig
}

// NewJobQueue creates a new job queue instance over an existing pgx pool.
func NewJobQueue(pool *pgxpool.Pool, config *QueueConfig, engineClient *engine.Client, transitions *workflow.TransitionService, logger zerolog.Logger) (*JobQueue, error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, &QaAnalysisWorker{
		engine:      engineClient,
		transitions: transitions,
		logger:      logger,
	})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		JobTimeout: config.JobTimeout,
		Queues:     config.RiverQueueConfig(),
		Workers:    workers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &JobQueue{
		client: client,
		pool:   pool,
		config: config,
	}, nil
}

// Start starts the job queue workers
func (jq *JobQueue) Start(ctx context.Context) error {
	return jq.client.Start(ctx)
}

// Stop stops the job queue workers
func (jq *JobQueue) Stop(ctx context.Context) error {
	return jq.client.Stop(ctx)
}

// Enqueue queues an analysis job for a submitted target.
func (jq *JobQueue) Enqueue(ctx context.Context, historyID, targetID, artifactRef string) error {
	args := QaAnalysisJobArgs{
		HistoryID:   historyID,
		TargetID:    targetID,
		ArtifactRef: artifactRef,
	}

	_, err := jq.client.Insert(ctx, args, &river.InsertOpts{
		MaxAttempts: jq.config.MaxAttempts,
	})
	if err != nil {
		return fmt.Errorf("failed to queue qa analysis job: %w", err)
	}

	return nil
}
