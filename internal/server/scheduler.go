package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/ppiankov/aivis/internal/metrics"
	"github.com/ppiankov/aivis/internal/runner"
	"github.com/ppiankov/aivis/internal/store"
)

const lockTTL = 2 * time.Minute

// Scheduler runs on-demand checks for every project whose schedule is due.
// With a Redis client, a per-project lock keeps replicas from double-running.
type Scheduler struct {
	Store    store.Store
	Runner   *runner.Runner
	Rdb      *redis.Client
	Spec     string // "@daily", "@hourly" or a cron expression
	Interval time.Duration
	Logger   *slog.Logger

	now    func() time.Time
	locker locker
}

// locker guards one project's scheduled run across replicas
type locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type redisLocker struct {
	rdb *redis.Client
}

func (l redisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, key, "1", ttl).Result()
}

func (l redisLocker) Unlock(ctx context.Context, key string) error {
	return l.rdb.Del(ctx, key).Err()
}

// Start ticks until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	if s.Spec != "" {
		if _, err := cronexpr.Parse(s.Spec); err != nil {
			s.logger().Warn("invalid schedule, falling back to @daily", "schedule", s.Spec, "error", err)
		}
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Scheduler) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// tick returns the number of projects it ran
func (s *Scheduler) tick(ctx context.Context) int {
	projects, err := s.Store.ListProjects(ctx)
	if err != nil {
		s.logger().Error("scheduler: list projects", "error", err)
		return 0
	}

	ran := 0
	for _, p := range projects {
		if ctx.Err() != nil {
			return ran
		}

		last, err := s.lastRun(ctx, p.ID)
		if err != nil {
			s.logger().Warn("scheduler: last run", "project_id", p.ID, "error", err)
			continue
		}
		if !isDue(s.Spec, last, s.clock()) {
			continue
		}

		if !s.lock(ctx, p.ID) {
			continue
		}
		// Another replica may have run the project between the read above and the lock.
		last, err = s.lastRun(ctx, p.ID)
		if err != nil || !isDue(s.Spec, last, s.clock()) {
			s.unlock(ctx, p.ID)
			continue
		}
		res, err := s.Runner.RunAs(ctx, metrics.SourceSchedule, runner.RunRequest{ProjectID: p.ID})
		s.unlock(ctx, p.ID)
		if err != nil {
			s.logger().Error("scheduled run failed", "project_id", p.ID, "error", err)
			continue
		}
		s.logger().Info("scheduled run", "project_id", p.ID, "inserted", res.Inserted)
		ran++
	}
	return ran
}

// lastRun is the timestamp of the project's newest check, nil when it has none
func (s *Scheduler) lastRun(ctx context.Context, projectID string) (*time.Time, error) {
	return s.Store.LatestCheckAt(ctx, projectID)
}

func lockKey(projectID string) string {
	return "aivis:sched:lock:" + projectID
}

func (s *Scheduler) lockFor() locker {
	if s.locker != nil {
		return s.locker
	}
	if s.Rdb != nil {
		return redisLocker{rdb: s.Rdb}
	}
	return nil
}

func (s *Scheduler) lock(ctx context.Context, projectID string) bool {
	l := s.lockFor()
	if l == nil {
		return true
	}
	ok, err := l.Lock(ctx, lockKey(projectID), lockTTL)
	if err != nil {
		s.logger().Warn("scheduler: lock", "project_id", projectID, "error", err)
		return false
	}
	return ok
}

func (s *Scheduler) unlock(ctx context.Context, projectID string) {
	l := s.lockFor()
	if l == nil {
		return
	}
	if err := l.Unlock(ctx, lockKey(projectID)); err != nil {
		s.logger().Warn("scheduler: unlock", "project_id", projectID, "error", err)
	}
}

// isDue reports whether a project last run at last should run at now.
// Supports "@daily", "@hourly" and standard cron expressions; an invalid
// expression is treated as @daily. A project that never ran is due.
func isDue(cronSpec string, last *time.Time, now time.Time) bool {
	if last == nil {
		return true
	}
	switch cronSpec {
	case "@daily", "":
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			return now.Sub(*last) >= 24*time.Hour
		}
		next := expr.Next(*last)
		return !next.IsZero() && !next.After(now)
	}
}
