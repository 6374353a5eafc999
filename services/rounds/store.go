package rounds

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nzhukovskiy/fundlink-api/models"
)

// Store is the startup directory and round persistence the engine runs on.
type Store interface {
	// WithStartup runs fn while holding exclusive access to the startup and
	// its rounds. Writes made through the Tx are committed only when fn
	// returns nil.
	WithStartup(ctx context.Context, startupID uint, fn func(tx Tx) error) error

	StartupIDs(ctx context.Context) ([]uint, error)
	Round(ctx context.Context, id uint) (*models.FundingRound, error)
	Rounds(ctx context.Context, startupID uint) ([]models.FundingRound, error)
}

// Tx is the unit of work handed to WithStartup callbacks.
type Tx interface {
	// Startup returns the locked startup with FundingRounds and their
	// Investments loaded.
	Startup() *models.Startup
	CreateRound(r *models.FundingRound) error
	SaveRounds(rounds []models.FundingRound) error
	DeleteRound(id uint) error
	AddInvestment(inv *models.Investment) error
	Proposals() ProposalService
}

// ProposalChanges holds only the fields an edit actually changes.
type ProposalChanges struct {
	NewFundingGoal *decimal.Decimal
	NewEndDate     *time.Time
}

func (c ProposalChanges) Empty() bool {
	return c.NewFundingGoal == nil && c.NewEndDate == nil
}

// ProposalService is the change-proposal workflow. Voting itself happens
// elsewhere.
type ProposalService interface {
	// Pending returns the round's proposal awaiting review with its votes,
	// or nil when there is none.
	Pending(ctx context.Context, roundID uint) (*models.ChangeProposal, error)
	Create(ctx context.Context, round *models.FundingRound, changes ProposalChanges) (*models.ChangeProposal, error)
	Delete(ctx context.Context, proposalID uint) error
}
