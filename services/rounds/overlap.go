package rounds

import (
	"time"

	"github.com/nzhukovskiy/fundlink-api/models"
)

// Period is a closed interval [Start, End].
type Period struct {
	Start time.Time
	End   time.Time
}

func (p Period) contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// Overlaps reports whether the two closed intervals share at least one
// instant; touching boundaries count.
func (p Period) Overlaps(o Period) bool {
	return o.contains(p.Start) || o.contains(p.End) || (!p.Start.After(o.Start) && !p.End.Before(o.End))
}

func periodOf(r *models.FundingRound) Period {
	return Period{Start: r.StartDate, End: r.EndDate}
}

// EnsureNoOverlap fails with CodeOverlap when candidate intersects any of
// existing. A non-zero exclude skips that round, for in-place edits.
func EnsureNoOverlap(candidate Period, existing []models.FundingRound, exclude uint) error {
	for i := range existing {
		r := &existing[i]
		if exclude != 0 && r.ID == exclude {
			continue
		}
		if candidate.Overlaps(periodOf(r)) {
			return newError(CodeOverlap, "New funding round dates overlap with existing rounds for this startup",
				map[string]interface{}{"conflicting_round_id": r.ID})
		}
	}
	return nil
}
