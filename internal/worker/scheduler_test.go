package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clockAt(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func TestRunDueOncePerDay(t *testing.T) {
	now := time.Date(2025, 1, 5, 1, 0, 0, 0, time.UTC)
	s := NewScheduler(nil, nil, time.Minute, time.Minute)
	s.SetClock(clockAt(&now))

	var calls int32
	s.Add(Job{Name: "amazon", HourUTC: 3, Run: func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}})

	s.RunDue(context.Background())
	assert.Equal(t, int32(0), calls, "not due before its hour")

	now = now.Add(2 * time.Hour)
	s.RunDue(context.Background())
	s.RunDue(context.Background())
	assert.Equal(t, int32(1), calls)

	now = now.Add(24 * time.Hour)
	s.RunDue(context.Background())
	assert.Equal(t, int32(2), calls)

	runs, skipped, failures := s.Stats()
	assert.Equal(t, int64(2), runs)
	assert.Zero(t, skipped)
	assert.Zero(t, failures)
}

func TestRunDueRetriesFailedJob(t *testing.T) {
	now := time.Date(2025, 1, 5, 4, 0, 0, 0, time.UTC)
	s := NewScheduler(nil, nil, time.Minute, time.Minute)
	s.SetClock(clockAt(&now))

	var calls int32
	s.Add(Job{Name: "ozon", HourUTC: 2, Run: func(context.Context) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("ozon: status 503")
		}
		return nil
	}})

	s.RunDue(context.Background())
	s.RunDue(context.Background())
	s.RunDue(context.Background())
	assert.Equal(t, int32(2), calls)

	_, _, failures := s.Stats()
	assert.Equal(t, int64(1), failures)
}

func TestRunDueSkipsWhenLockHeld(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	require.NoError(t, mr.Set("ingest-lock:sync:amazon", "other-replica"))

	now := time.Date(2025, 1, 5, 4, 0, 0, 0, time.UTC)
	s := NewScheduler(nil, client, time.Minute, time.Minute)
	s.SetClock(clockAt(&now))

	called := false
	s.Add(Job{Name: "amazon", HourUTC: 3, Run: func(context.Context) error {
		called = true
		return nil
	}})

	s.RunDue(context.Background())
	assert.False(t, called)
	_, skipped, _ := s.Stats()
	assert.Equal(t, int64(1), skipped)

	mr.Del("ingest-lock:sync:amazon")
	s.RunDue(context.Background())
	assert.True(t, called)
	assert.False(t, mr.Exists("ingest-lock:sync:amazon"), "lock released after the run")
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(nil, nil, time.Hour, time.Minute)
	s.SetClock(func() time.Time { return time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC) })

	done := make(chan struct{})
	s.Add(Job{Name: "amazon", Run: func(context.Context) error {
		close(done)
		return nil
	}})

	require.NoError(t, s.Start(true))
	assert.Error(t, s.Start(true), "double start")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on startup")
	}
	s.Stop()
	s.Stop()
}
