package scheduler

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Run() error { j.runs++; return j.err }
func (j *countingJob) Name() string {
	return j.name
}

func TestAddJob(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))

	err := s.AddJob("15 3 * * *", &countingJob{name: "ledger_backup"})
	assert.NoError(t, err)

	err = s.AddJob("@hourly", &countingJob{name: "cache_cleanup"})
	assert.NoError(t, err)
}

func TestAddJob_RejectsBadSchedule(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))

	err := s.AddJob("every tuesday", &countingJob{name: "cache_cleanup"})
	assert.Error(t, err)
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))
	job := &countingJob{name: "price_cache_warm"}

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)
}

func TestRunNow_PropagatesJobError(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))
	job := &countingJob{name: "ledger_backup", err: errors.New("upload failed")}

	err := s.RunNow(job)
	assert.Error(t, err)
	assert.Equal(t, 1, job.runs)
}

func TestStartStop(t *testing.T) {
	s := New(zerolog.New(nil).Level(zerolog.Disabled))
	require.NoError(t, s.AddJob("@hourly", &countingJob{name: "cache_cleanup"}))

	s.Start()
	s.Stop()
}
