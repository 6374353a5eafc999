package rounds

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/nzhukovskiy/fundlink-api/models"
	"github.com/nzhukovskiy/fundlink-api/notifications"
)

// recompute derives IsCurrent for every round of the startup and queues the
// deadline and ended notifications it produces.
//
// Rounds never overlap (EnsureNoOverlap), so at most one can be open at now.
// Only the first open round in start order becomes current; every other
// round is left not current, and a round losing the flag queues exactly one
// ended notification.
func (e *Engine) recompute(startup *models.Startup, now time.Time, out *outbox) {
	rounds := startup.FundingRounds
	sort.SliceStable(rounds, func(i, j int) bool {
		return rounds[i].StartDate.Before(rounds[j].StartDate)
	})

	found := false
	for i := range rounds {
		r := &rounds[i]
		wasCurrent := r.IsCurrent

		if !found && r.Open(now) {
			found = true
			r.IsCurrent = true
			remaining := r.EndDate.Sub(now)
			for _, t := range e.thresholds {
				if remaining <= t.Before && !r.Notified(t.Tag) {
					out.add(notifications.NewEvent(startup.ID, notifications.UserStartup,
						notifications.TypeFundingRoundDeadline, fmt.Sprintf(t.Message, r.Stage)).ForRound(r.ID))
					r.MarkNotified(t.Tag)
				}
			}
			continue
		}

		r.IsCurrent = false
		if wasCurrent {
			out.add(notifications.NewEvent(startup.ID, notifications.UserStartup,
				notifications.TypeFundingRoundEnded, fmt.Sprintf("The %s funding round has ended", r.Stage)).ForRound(r.ID))
		}
	}
}

// refresh recomputes and batch-saves the startup's rounds.
func (e *Engine) refresh(tx Tx, out *outbox) error {
	startup := tx.Startup()
	e.recompute(startup, e.now(), out)
	if len(startup.FundingRounds) == 0 {
		return nil
	}
	return tx.SaveRounds(startup.FundingRounds)
}

// RefreshStatus recomputes the status of every round of one startup.
func (e *Engine) RefreshStatus(ctx context.Context, startupID uint) error {
	return e.withStartup(ctx, startupID, func(tx Tx, out *outbox) error {
		return e.refresh(tx, out)
	})
}

type SweepReport struct {
	Startups int `json:"startups"`
	Failed   int `json:"failed"`
}

// SweepAll refreshes every startup, catching expirations no user action
// triggered. A failing startup is logged and skipped.
func (e *Engine) SweepAll(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	ids, err := e.store.StartupIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("list startups: %w", err)
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Startups++
		if err := e.RefreshStatus(ctx, id); err != nil {
			report.Failed++
			log.Printf("[sweep] startup %d: %v", id, err)
		}
	}
	return report, nil
}
