package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/commerce-ingest/internal/pkg/distlock"
	"github.com/ignite/commerce-ingest/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// =============================================================================
// DAILY SYNC SCHEDULER
// =============================================================================
// The scheduler wakes up every tick and runs each job whose UTC hour has
// arrived and that has not yet succeeded today on this replica. A run holds a
// distributed lock (Redis, or a Postgres advisory lock without Redis) so only
// one replica pulls a vendor at a time. A failed run is retried on the next
// tick. The syncs upsert, so a second replica repeating a day is harmless.

const (
	DefaultTick    = 5 * time.Minute
	DefaultLockTTL = 90 * time.Minute
)

// Job is one daily sync.
type Job struct {
	Name    string
	HourUTC int
	Run     func(ctx context.Context) error
}

// Scheduler runs daily jobs on a ticker.
type Scheduler struct {
	db          *sql.DB
	redisClient *redis.Client // optional; nil falls back to PG advisory locks
	tick        time.Duration
	lockTTL     time.Duration
	now         func() time.Time

	jobs    []Job
	lastRun map[string]string // job name -> UTC date of the last success

	// Stats
	runs     int64
	skipped  int64
	failures int64

	// Control
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewScheduler creates a scheduler. Without db and redisClient jobs run
// unguarded, which only suits tests and single-replica setups.
func NewScheduler(db *sql.DB, redisClient *redis.Client, tick, lockTTL time.Duration) *Scheduler {
	if tick <= 0 {
		tick = DefaultTick
	}
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	return &Scheduler{
		db:          db,
		redisClient: redisClient,
		tick:        tick,
		lockTTL:     lockTTL,
		now:         time.Now,
		lastRun:     make(map[string]string),
	}
}

// SetClock replaces the clock (useful for testing).
func (s *Scheduler) SetClock(now func() time.Time) { s.now = now }

// Add registers a job. Jobs must be added before Start.
func (s *Scheduler) Add(j Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, j)
}

// Start begins the ticker loop. With runNow the due check also runs
// immediately instead of after the first tick.
func (s *Scheduler) Start(runNow bool) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	jobs := len(s.jobs)
	s.mu.Unlock()

	logger.Info("scheduler starting", "tick", s.tick.String(), "jobs", jobs)

	s.wg.Add(1)
	go s.loop(runNow)
	return nil
}

// Stop cancels a running sync and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	runs, skipped, failures := s.Stats()
	logger.Info("scheduler stopped", "runs", runs, "skipped", skipped, "failures", failures)
}

func (s *Scheduler) loop(runNow bool) {
	defer s.wg.Done()

	if runNow {
		s.RunDue(s.ctx)
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.RunDue(s.ctx)
		}
	}
}

// RunDue runs every job that is due now, one after another.
func (s *Scheduler) RunDue(ctx context.Context) {
	now := s.now().UTC()
	today := now.Format(time.DateOnly)

	s.mu.Lock()
	var due []Job
	for _, j := range s.jobs {
		if now.Hour() >= j.HourUTC && s.lastRun[j.Name] != today {
			due = append(due, j)
		}
	}
	s.mu.Unlock()

	for _, j := range due {
		if ctx.Err() != nil {
			return
		}
		if s.runJob(ctx, j) {
			s.mu.Lock()
			s.lastRun[j.Name] = today
			s.mu.Unlock()
		}
	}
}

// runJob reports whether the job succeeded.
func (s *Scheduler) runJob(ctx context.Context, j Job) bool {
	runID := uuid.NewString()
	start := time.Now()

	var err error
	if lock := s.lockFor(j.Name); lock != nil {
		err = distlock.Run(ctx, lock, j.Run)
	} else {
		err = j.Run(ctx)
	}

	switch {
	case errors.Is(err, distlock.ErrHeld):
		atomic.AddInt64(&s.skipped, 1)
		logger.Info("sync skipped, lock held elsewhere", "job", j.Name, "run_id", runID)
		return false
	case err != nil:
		atomic.AddInt64(&s.failures, 1)
		logger.Error("sync failed", "job", j.Name, "run_id", runID, "error", err, "duration", time.Since(start).String())
		return false
	}
	atomic.AddInt64(&s.runs, 1)
	logger.Info("sync complete", "job", j.Name, "run_id", runID, "duration", time.Since(start).String())
	return true
}

func (s *Scheduler) lockFor(name string) distlock.DistLock {
	if s.redisClient == nil && s.db == nil {
		return nil
	}
	return distlock.NewLock(s.redisClient, s.db, "sync:"+name, s.lockTTL)
}

// Stats returns successful, skipped and failed run counts.
func (s *Scheduler) Stats() (runs, skipped, failures int64) {
	return atomic.LoadInt64(&s.runs), atomic.LoadInt64(&s.skipped), atomic.LoadInt64(&s.failures)
}
