package rounds_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nzhukovskiy/fundlink-api/models"
	"github.com/nzhukovskiy/fundlink-api/notifications"
	"github.com/nzhukovskiy/fundlink-api/services/rounds"
	"github.com/nzhukovskiy/fundlink-api/services/rounds/roundstest"
)

type recorder struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (r *recorder) Emit(_ context.Context, e notifications.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) ofType(t notifications.Type) []notifications.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notifications.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type fixture struct {
	store   *roundstest.MemoryStore
	events  *recorder
	clock   *clock
	engine  *rounds.Engine
	startup uint
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		store:  roundstest.NewMemoryStore(),
		events: &recorder{},
		clock:  &clock{t: now},
	}
	f.engine = rounds.New(f.store, f.events, rounds.Options{Now: f.clock.Now})
	f.startup = f.store.AddStartup(models.Startup{Name: "Acme", Email: "founders@acme.test"})
	return f
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func input(start, end time.Time, goal string) rounds.RoundInput {
	return rounds.RoundInput{StartDate: start, EndDate: end, FundingGoal: dec(goal)}
}

func mustCreate(t *testing.T, f *fixture, in rounds.RoundInput) *models.FundingRound {
	t.Helper()
	r, err := f.engine.Create(context.Background(), f.startup, in)
	if err != nil {
		t.Fatalf("create round: %v", err)
	}
	return r
}

func mustRound(t *testing.T, f *fixture, id uint) *models.FundingRound {
	t.Helper()
	r, err := f.store.Round(context.Background(), id)
	if err != nil {
		t.Fatalf("load round %d: %v", id, err)
	}
	return r
}

func wantCode(t *testing.T, err error, code rounds.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	got, ok := rounds.CodeOf(err)
	if !ok || got != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}
