package rounds

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nzhukovskiy/fundlink-api/models"
	"github.com/nzhukovskiy/fundlink-api/notifications"
)

// RoundInput is a requested create or edit of a round.
type RoundInput struct {
	StartDate   time.Time
	EndDate     time.Time
	FundingGoal decimal.Decimal
}

func (in RoundInput) period() Period {
	return Period{Start: in.StartDate, End: in.EndDate}
}

func (in RoundInput) validate() error {
	if !in.EndDate.After(in.StartDate) {
		return newError(CodeInvalidDateRange, "Funding round end date must be bigger than start date", nil)
	}
	if !in.FundingGoal.IsPositive() {
		return newError(CodeInvalidAmount, "Funding goal must be greater than zero", nil)
	}
	if !models.FitsMoney(in.FundingGoal) {
		return newError(CodeInvalidAmount, fmt.Sprintf("Funding goal %s does not fit decimal(%d,%d)",
			in.FundingGoal, models.MoneyPrecision, models.MoneyScale), nil)
	}
	return nil
}

// UpdateResult tells whether an edit was applied directly (Round) or turned
// into a change proposal (Proposal). Both are nil when a funded round is
// resubmitted without changes.
type UpdateResult struct {
	Round    *models.FundingRound
	Proposal *models.ChangeProposal
}

func ensureActive(s *models.Startup) error {
	if !s.IsActive() {
		return newError(CodeExitedStartup, "Cannot change funding rounds of a startup which has already exited",
			map[string]interface{}{"id": s.ID})
	}
	return nil
}

// Create opens a new round for the startup.
func (e *Engine) Create(ctx context.Context, startupID uint, in RoundInput) (*models.FundingRound, error) {
	var created models.FundingRound
	err := e.withStartup(ctx, startupID, func(tx Tx, out *outbox) error {
		startup := tx.Startup()
		if err := ensureActive(startup); err != nil {
			return err
		}
		if err := in.validate(); err != nil {
			return err
		}
		if err := EnsureNoOverlap(in.period(), startup.FundingRounds, 0); err != nil {
			return err
		}
		stage, err := NextStage(startup.FundingRounds, e.stages)
		if err != nil {
			return err
		}

		round := &models.FundingRound{
			StartupID:     startup.ID,
			StartDate:     in.StartDate,
			EndDate:       in.EndDate,
			FundingGoal:   in.FundingGoal,
			CurrentRaised: decimal.Zero,
			Stage:         stage,
		}
		if err := tx.CreateRound(round); err != nil {
			return fmt.Errorf("create funding round: %w", err)
		}
		id := round.ID
		if err := e.refresh(tx, out); err != nil {
			return err
		}
		created = *findRound(tx.Startup(), id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update edits a round owned by callerID. Rounds without investments are
// edited in place; funded rounds only accept a larger goal or a later end
// date, and those go through a change proposal.
func (e *Engine) Update(ctx context.Context, roundID, callerID uint, in RoundInput) (UpdateResult, error) {
	var res UpdateResult
	err := e.lockRound(ctx, roundID, func(tx Tx, round *models.FundingRound, out *outbox) error {
		startup := tx.Startup()
		if startup.ID != callerID {
			return forbidden()
		}
		if err := ensureActive(startup); err != nil {
			return err
		}
		if err := in.validate(); err != nil {
			return err
		}
		pending, err := tx.Proposals().Pending(ctx, roundID)
		if err != nil {
			return fmt.Errorf("load pending proposal: %w", err)
		}
		if pending != nil {
			return newError(CodePendingProposal, "Funding round has uncompleted updates",
				map[string]interface{}{"proposal_id": pending.ID})
		}

		if round.HasInvestments() {
			if err := e.checkLocked(round, in); err != nil {
				return err
			}
			changes := ProposalChanges{}
			if !in.FundingGoal.Equal(round.FundingGoal) {
				goal := in.FundingGoal
				changes.NewFundingGoal = &goal
			}
			if !in.EndDate.Equal(round.EndDate) {
				end := in.EndDate
				changes.NewEndDate = &end
			}
			if changes.Empty() {
				return nil
			}
			p, err := tx.Proposals().Create(ctx, round, changes)
			if err != nil {
				return fmt.Errorf("create change proposal: %w", err)
			}
			res.Proposal = p
			for _, investorID := range InvestorIDs(round) {
				out.add(notifications.NewEvent(investorID, notifications.UserInvestor,
					notifications.TypeFundingRoundChangeProposal,
					fmt.Sprintf("Changes to the %s round were proposed and need your vote", round.Stage)).ForRound(round.ID))
			}
			return nil
		}

		if err := EnsureNoOverlap(in.period(), startup.FundingRounds, roundID); err != nil {
			return err
		}
		round.StartDate = in.StartDate
		round.EndDate = in.EndDate
		round.FundingGoal = in.FundingGoal
		if err := e.refresh(tx, out); err != nil {
			return err
		}
		updated := *findRound(tx.Startup(), roundID)
		res.Round = &updated
		return nil
	})
	return res, err
}

// checkLocked enforces what may change on a round that already has money.
func (e *Engine) checkLocked(round *models.FundingRound, in RoundInput) error {
	if in.FundingGoal.LessThan(round.FundingGoal) {
		return newError(CodeLockedFieldEdit, "Cannot decrease funding goal of round with existing investments",
			map[string]interface{}{"field": "funding_goal"})
	}
	if !sameDay(in.StartDate, round.StartDate, e.loc) {
		return newError(CodeLockedFieldEdit, "Cannot change start date of round with existing investments",
			map[string]interface{}{"field": "start_date"})
	}
	if compareDays(in.EndDate, round.EndDate, e.loc) < 0 {
		return newError(CodeLockedFieldEdit, "Cannot shorten round with existing investments",
			map[string]interface{}{"field": "end_date"})
	}
	return nil
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	return compareDays(a, b, loc) == 0
}

// compareDays orders two instants by calendar day in loc, ignoring time of day.
func compareDays(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	switch {
	case ay != by:
		return ay - by
	case am != bm:
		return int(am) - int(bm)
	default:
		return ad - bd
	}
}

// InvestorIDs lists the distinct investors of a round in investment order.
func InvestorIDs(round *models.FundingRound) []uint {
	seen := make(map[uint]struct{}, len(round.Investments))
	ids := make([]uint, 0, len(round.Investments))
	for _, inv := range round.Investments {
		if _, ok := seen[inv.InvestorID]; ok {
			continue
		}
		seen[inv.InvestorID] = struct{}{}
		ids = append(ids, inv.InvestorID)
	}
	return ids
}

// CancelProposal withdraws the round's pending proposal while nobody has
// voted on it yet.
func (e *Engine) CancelProposal(ctx context.Context, roundID, callerID uint) error {
	return e.lockRound(ctx, roundID, func(tx Tx, round *models.FundingRound, out *outbox) error {
		if tx.Startup().ID != callerID {
			return forbidden()
		}
		pending, err := tx.Proposals().Pending(ctx, roundID)
		if err != nil {
			return fmt.Errorf("load pending proposal: %w", err)
		}
		if pending == nil {
			return newError(CodePendingProposal, "Cannot cancel proposal with status different from pending", nil)
		}
		if pending.DecidedVotes() > 0 {
			return newError(CodePendingProposal, "Cannot cancel proposal with already existing votes",
				map[string]interface{}{"proposal_id": pending.ID})
		}
		return tx.Proposals().Delete(ctx, pending.ID)
	})
}

// Delete removes a round that has not received any investment.
func (e *Engine) Delete(ctx context.Context, roundID, callerID uint) error {
	return e.lockRound(ctx, roundID, func(tx Tx, round *models.FundingRound, out *outbox) error {
		if tx.Startup().ID != callerID {
			return forbidden()
		}
		if round.HasInvestments() {
			return newError(CodeRoundHasInvestments, "Cannot delete funding round with existing investments",
				map[string]interface{}{"id": roundID})
		}
		return tx.DeleteRound(roundID)
	})
}
