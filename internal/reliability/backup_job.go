package reliability

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// defaultRetentionDays keeps a month of daily snapshots.
const defaultRetentionDays = 30

// BackupJob runs the daily ledger backup and rotation
type BackupJob struct {
	service *BackupService
	log     zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service: service,
		log:     log.With().Str("job", "ledger_backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "ledger_backup"
}

// Run creates and uploads a backup, then rotates old ones. Rotation failure
// is logged but does not fail the job - the new backup already landed.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return err
	}

	if err := j.service.RotateOldBackups(ctx, defaultRetentionDays); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	return nil
}
