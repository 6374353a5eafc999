package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProposalStatus string

const (
	ProposalPendingReview ProposalStatus = "PENDING_REVIEW"
	ProposalApproved      ProposalStatus = "APPROVED"
	ProposalRejected      ProposalStatus = "REJECTED"
)

// ChangeProposal carries the goal/end-date edits requested for a round that
// already has investments. Only changed fields are set.
type ChangeProposal struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	FundingRoundID uint             `gorm:"not null;index" json:"funding_round_id"`
	NewFundingGoal *decimal.Decimal `gorm:"type:decimal(30,8)" json:"new_funding_goal,omitempty"`
	NewEndDate     *time.Time       `json:"new_end_date,omitempty"`
	Status         ProposalStatus   `gorm:"type:enum('PENDING_REVIEW','APPROVED','REJECTED');default:'PENDING_REVIEW';index" json:"status"`
	Votes          []ProposalVote   `gorm:"foreignKey:ProposalID;constraint:OnDelete:CASCADE" json:"votes,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (ChangeProposal) TableName() string {
	return "funding_round_change_proposals"
}

// DecidedVotes counts votes whose approval has been cast either way.
func (p *ChangeProposal) DecidedVotes() int {
	n := 0
	for _, v := range p.Votes {
		if v.Approved != nil {
			n++
		}
	}
	return n
}

type ProposalVote struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProposalID uint      `gorm:"not null;index" json:"proposal_id"`
	InvestorID uint      `gorm:"not null;index" json:"investor_id"`
	Approved   *bool     `json:"approved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (ProposalVote) TableName() string {
	return "funding_round_change_proposal_votes"
}
