package clientdata

import (
	"fmt"

	"github.com/rs/zerolog"
)

// CleanupJob prunes expired rows from the cache database. Everything in
// cache.db is rebuildable upstream data (fx rates, quotes, price history),
// so pruning only keeps the file small; it runs hourly.
type CleanupJob struct {
	repo *Repository
	log  zerolog.Logger
}

// NewCleanupJob creates the hourly cache pruning job.
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		log:  log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Run deletes expired rows across every cache table.
func (j *CleanupJob) Run() error {
	deleted, err := j.repo.DeleteAllExpired()
	if err != nil {
		return fmt.Errorf("cache cleanup: %w", err)
	}

	var total int64
	for _, table := range AllTables {
		if n := deleted[table]; n > 0 {
			j.log.Debug().Str("table", table).Int64("rows", n).Msg("Pruned expired cache rows")
			total += n
		}
	}

	if total > 0 {
		j.log.Info().Int64("rows", total).Msg("Cache cleanup finished")
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CleanupJob) Name() string {
	return "cache_cleanup"
}
