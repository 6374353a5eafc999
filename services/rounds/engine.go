package rounds

import (
	"context"
	"time"

	"github.com/nzhukovskiy/fundlink-api/models"
	"github.com/nzhukovskiy/fundlink-api/notifications"
)

// Threshold is a deadline reminder sent once per round when the time left
// before EndDate drops to Before or less.
type Threshold struct {
	Tag     string
	Before  time.Duration
	Message string
}

var DefaultThresholds = []Threshold{
	{Tag: "SEVEN_DAY", Before: 7 * 24 * time.Hour, Message: "7 days left until the end of the %s round"},
	{Tag: "THREE_DAY", Before: 3 * 24 * time.Hour, Message: "3 days left until the end of the %s round"},
	{Tag: "ONE_DAY", Before: 24 * time.Hour, Message: "1 day left until the end of the %s round"},
}

type Options struct {
	Stages     models.StageSequence
	Thresholds []Threshold
	// Location decides calendar days for locked-field checks.
	Location *time.Location
	Now      func() time.Time
}

// Engine owns the funding round lifecycle: validation, stage assignment,
// deposits and status recomputation.
type Engine struct {
	store      Store
	emitter    notifications.Emitter
	stages     models.StageSequence
	thresholds []Threshold
	loc        *time.Location
	now        func() time.Time
}

func New(store Store, emitter notifications.Emitter, opts Options) *Engine {
	if emitter == nil {
		emitter = notifications.Discard{}
	}
	if len(opts.Stages) == 0 {
		opts.Stages = models.DefaultStages
	}
	if opts.Thresholds == nil {
		opts.Thresholds = DefaultThresholds
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		store:      store,
		emitter:    emitter,
		stages:     opts.Stages,
		thresholds: opts.Thresholds,
		loc:        opts.Location,
		now:        opts.Now,
	}
}

// outbox collects notifications produced inside a unit of work; they are
// emitted only after it commits.
type outbox []notifications.Event

func (o *outbox) add(e notifications.Event) {
	*o = append(*o, e)
}

func (e *Engine) flush(ctx context.Context, out outbox) {
	for _, ev := range out {
		e.emitter.Emit(ctx, ev)
	}
}

// withStartup wraps Store.WithStartup and emits the collected notifications
// once the callback's writes are committed.
func (e *Engine) withStartup(ctx context.Context, startupID uint, fn func(tx Tx, out *outbox) error) error {
	var out outbox
	err := e.store.WithStartup(ctx, startupID, func(tx Tx) error {
		out = out[:0]
		return fn(tx, &out)
	})
	if err != nil {
		return err
	}
	e.flush(ctx, out)
	return nil
}

// Get returns a round with its investments and investors.
func (e *Engine) Get(ctx context.Context, id uint) (*models.FundingRound, error) {
	return e.store.Round(ctx, id)
}

func (e *Engine) ListForStartup(ctx context.Context, startupID uint) ([]models.FundingRound, error) {
	return e.store.Rounds(ctx, startupID)
}

// Current returns the startup's current round, or nil when none is open.
func (e *Engine) Current(ctx context.Context, startupID uint) (*models.FundingRound, error) {
	rounds, err := e.store.Rounds(ctx, startupID)
	if err != nil {
		return nil, err
	}
	for i := range rounds {
		if rounds[i].IsCurrent {
			return &rounds[i], nil
		}
	}
	return nil, nil
}

func findRound(startup *models.Startup, id uint) *models.FundingRound {
	for i := range startup.FundingRounds {
		if startup.FundingRounds[i].ID == id {
			return &startup.FundingRounds[i]
		}
	}
	return nil
}

// lockRound resolves the owning startup of a round and runs fn with the
// round located inside the locked startup.
func (e *Engine) lockRound(ctx context.Context, roundID uint, fn func(tx Tx, round *models.FundingRound, out *outbox) error) error {
	r, err := e.store.Round(ctx, roundID)
	if err != nil {
		return err
	}
	return e.withStartup(ctx, r.StartupID, func(tx Tx, out *outbox) error {
		round := findRound(tx.Startup(), roundID)
		if round == nil {
			return RoundNotFoundError(roundID)
		}
		return fn(tx, round, out)
	})
}
