/*
Package jobqueue configuration - tunable parameters for the River job queue.

Worker count trades throughput against database connection usage; each worker
holds a connection while an analysis runs. MaxAttempts bounds how often River
re-delivers a failed analysis job before parking it; engine-side analysis
failures are recorded as error history records and do NOT consume attempts.
*/
package jobqueue

import (
	"time"

	"github.com/riverqueue/river"
)

// QueueConfig holds all configurable parameters for the job queue
type QueueConfig struct {
	// MaxWorkers is the number of concurrent analysis jobs.
	MaxWorkers int

	// MaxAttempts bounds River-level re-deliveries per job.
	MaxAttempts int

	// JobTimeout is the maximum wall time for a single analysis run. The
	// engine client has its own request timeout below this.
	JobTimeout time.Duration
}

// DefaultQueueConfig returns the default configuration
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		MaxWorkers:  4,
		MaxAttempts: 3,
		JobTimeout:  5 * time.Minute,
	}
}

// RiverQueueConfig converts our config to River's queue configuration format
func (c *QueueConfig) RiverQueueConfig() map[string]river.QueueConfig {
	return map[string]river.QueueConfig{
		river.QueueDefault: {
			MaxWorkers: c.MaxWorkers,
		},
	}
}
