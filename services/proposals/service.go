package proposals

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nzhukovskiy/fundlink-api/models"
	"github.com/nzhukovskiy/fundlink-api/services/rounds"
)

// Service stores funding round change proposals and seeds one undecided vote
// per investor of the round. Casting votes and applying approved proposals
// belong to the voting workflow.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Factory adapts New for rounds.NewGormStore.
func Factory(tx *gorm.DB) rounds.ProposalService {
	return New(tx)
}

func (s *Service) Pending(ctx context.Context, roundID uint) (*models.ChangeProposal, error) {
	var p models.ChangeProposal
	err := s.db.WithContext(ctx).
		Preload("Votes").
		Where("funding_round_id = ? AND status = ?", roundID, models.ProposalPendingReview).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) Create(ctx context.Context, round *models.FundingRound, changes rounds.ProposalChanges) (*models.ChangeProposal, error) {
	p := models.ChangeProposal{
		FundingRoundID: round.ID,
		NewFundingGoal: changes.NewFundingGoal,
		NewEndDate:     changes.NewEndDate,
		Status:         models.ProposalPendingReview,
	}
	for _, investorID := range rounds.InvestorIDs(round) {
		p.Votes = append(p.Votes, models.ProposalVote{InvestorID: investorID})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a proposal and its votes.
func (s *Service) Delete(ctx context.Context, proposalID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("proposal_id = ?", proposalID).Delete(&models.ProposalVote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ChangeProposal{}, proposalID).Error
	})
}
