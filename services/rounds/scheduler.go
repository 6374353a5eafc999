package rounds

import (
	"context"
	"fmt"
	"log"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// Lease grants a run to a single replica. Acquire returns false when another
// holder already owns key.
type Lease interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type RedisLease struct {
	client *redis.Client
}

func NewRedisLease(client *redis.Client) *RedisLease {
	return &RedisLease{client: client}
}

func (l *RedisLease) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, key, "1", ttl).Result()
}

// Scheduler runs SweepAll on a cron schedule ("0 0 * * *" is daily at
// midnight in the configured location).
type Scheduler struct {
	engine  *Engine
	cron    *cron.Cron
	lease   Lease
	timeout time.Duration
}

// NewScheduler registers the sweep. lease may be nil for single-replica
// deployments.
func NewScheduler(engine *Engine, schedule string, loc *time.Location, lease Lease) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		engine:  engine,
		cron:    cron.New(cron.WithLocation(loc)),
		lease:   lease,
		timeout: 30 * time.Minute,
	}
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for a running sweep to finish or ctx to
// expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		log.Printf("[sweep] shutdown before running sweep finished")
	}
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.Run(ctx, time.Now())
}

// Run performs one scheduled sweep unless another replica already claimed
// the slot starting at at.
func (s *Scheduler) Run(ctx context.Context, at time.Time) (SweepReport, bool) {
	if s.lease != nil {
		key := "fundlink:sweep:" + at.UTC().Truncate(time.Minute).Format("200601021504")
		ok, err := s.lease.Acquire(ctx, key, time.Hour)
		if err != nil {
			// A broken lease store does not skip the sweep.
			log.Printf("[sweep] lease %s unavailable: %v", key, err)
		} else if !ok {
			log.Printf("[sweep] %s already claimed by another instance", key)
			return SweepReport{}, false
		}
	}

	start := time.Now()
	report, err := s.engine.SweepAll(ctx)
	if err != nil {
		log.Printf("[sweep] aborted after %d startups: %v", report.Startups, err)
		return report, true
	}
	log.Printf("[sweep] done: startups=%d failed=%d took=%s", report.Startups, report.Failed, time.Since(start))
	return report, true
}
