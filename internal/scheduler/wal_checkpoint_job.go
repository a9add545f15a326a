package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/johnkiller1245/investment-trading-platform/internal/database"
)

// WALCheckpointJob truncates the WAL files of the given databases to keep
// them from growing unbounded between organic checkpoints.
type WALCheckpointJob struct {
	dbs []*database.DB
	log zerolog.Logger
}

// NewWALCheckpointJob creates a new WAL checkpoint job.
func NewWALCheckpointJob(log zerolog.Logger, dbs ...*database.DB) *WALCheckpointJob {
	return &WALCheckpointJob{
		dbs: dbs,
		log: log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Run checkpoints every database. A failure on one database does not stop
// the others; the first error is returned.
func (j *WALCheckpointJob) Run() error {
	var firstErr error
	for _, db := range j.dbs {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		j.log.Debug().Str("database", db.Name()).Msg("WAL checkpointed")
	}
	return firstErr
}

// Name returns the job name for scheduling and logging.
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}
