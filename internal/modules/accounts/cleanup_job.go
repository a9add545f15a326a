package accounts

import (
	"github.com/rs/zerolog"
)

// SessionCleanupJob removes expired sessions from the cache database.
type SessionCleanupJob struct {
	repo *SessionRepository
	log  zerolog.Logger
}

// NewSessionCleanupJob creates a new session cleanup job.
func NewSessionCleanupJob(repo *SessionRepository, log zerolog.Logger) *SessionCleanupJob {
	return &SessionCleanupJob{
		repo: repo,
		log:  log.With().Str("job", "session_cleanup").Logger(),
	}
}

// Run executes the cleanup job, removing all expired sessions.
func (j *SessionCleanupJob) Run() error {
	deleted, err := j.repo.DeleteExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired sessions")
		return err
	}

	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Cleaned up expired sessions")
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *SessionCleanupJob) Name() string {
	return "session_cleanup"
}
