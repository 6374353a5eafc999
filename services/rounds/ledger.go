package rounds

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nzhukovskiy/fundlink-api/models"
	"github.com/nzhukovskiy/fundlink-api/notifications"
)

// ParseAmount parses a non-negative decimal literal such as "300.50" that
// fits a money column. Signs and exponents are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := models.ParseMoney(s)
	if err != nil {
		return decimal.Zero, newError(CodeInvalidAmount, fmt.Sprintf("%q %v", strings.TrimSpace(s), err), nil)
	}
	return d, nil
}

// ParseGoal parses a funding goal, which must be strictly positive.
func ParseGoal(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return d, err
	}
	if !d.IsPositive() {
		return decimal.Zero, newError(CodeInvalidAmount, "Funding goal must be greater than zero", nil)
	}
	return d, nil
}

// AddFunds credits amount to the round and recomputes the startup's round
// status. The amount is expected to be already validated upstream as
// received money; it is only checked to fit a money column here.
func (e *Engine) AddFunds(ctx context.Context, roundID uint, amount string) (*models.FundingRound, error) {
	value, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	var updated models.FundingRound
	err = e.lockRound(ctx, roundID, func(tx Tx, round *models.FundingRound, out *outbox) error {
		if err := credit(round, value); err != nil {
			return err
		}
		if err := e.refresh(tx, out); err != nil {
			return err
		}
		updated = *findRound(tx.Startup(), roundID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Invest records an investor's deposit into the startup's current round and
// credits it in the same unit of work.
func (e *Engine) Invest(ctx context.Context, roundID, investorID uint, amount string) (*models.Investment, error) {
	value, err := ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	if !value.IsPositive() {
		return nil, newError(CodeInvalidAmount, "Investment amount must be greater than zero", nil)
	}

	var inv models.Investment
	err = e.lockRound(ctx, roundID, func(tx Tx, _ *models.FundingRound, out *outbox) error {
		startup := tx.Startup()
		if err := ensureActive(startup); err != nil {
			return err
		}
		// The stored flag may predate the round's start; derive it afresh.
		e.recompute(startup, e.now(), out)
		round := findRound(startup, roundID)
		if !round.IsCurrent {
			return newError(CodeRoundNotOpen, "Funding round is not open for investments",
				map[string]interface{}{"id": roundID})
		}

		if err := credit(round, value); err != nil {
			return err
		}
		inv = models.Investment{FundingRoundID: roundID, InvestorID: investorID, Amount: value}
		if err := tx.AddInvestment(&inv); err != nil {
			return fmt.Errorf("record investment: %w", err)
		}
		round.Investments = append(round.Investments, inv)
		out.add(notifications.NewEvent(startup.ID, notifications.UserStartup, notifications.TypeInvestment,
			fmt.Sprintf("New investment of %s into the %s round", value.String(), round.Stage)).ForRound(roundID))
		return e.refresh(tx, out)
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// credit is the only place CurrentRaised changes; it never decreases.
func credit(round *models.FundingRound, value decimal.Decimal) error {
	total := round.CurrentRaised.Add(value)
	if !models.FitsMoney(total) {
		return newError(CodeInvalidAmount, "Raised amount would exceed the storable maximum",
			map[string]interface{}{"id": round.ID})
	}
	round.CurrentRaised = total
	return nil
}
