package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type RoundPhase string

const (
	PhaseNotStarted RoundPhase = "NOT_STARTED"
	PhaseCurrent    RoundPhase = "CURRENT"
	PhaseEnded      RoundPhase = "ENDED"
)

type FundingRound struct {
	ID                uint                        `gorm:"primaryKey" json:"id"`
	StartupID         uint                        `gorm:"not null;index" json:"startup_id"`
	StartDate         time.Time                   `gorm:"not null" json:"start_date"`
	EndDate           time.Time                   `gorm:"not null" json:"end_date"`
	FundingGoal       decimal.Decimal             `gorm:"type:decimal(30,8);not null" json:"funding_goal"`
	CurrentRaised     decimal.Decimal             `gorm:"type:decimal(30,8);not null;default:0" json:"current_raised"`
	Stage             FundingStage                `gorm:"size:32;not null" json:"stage"`
	IsCurrent         bool                        `gorm:"not null;default:false" json:"is_current"`
	NotificationsSent datatypes.JSONSlice[string] `gorm:"type:json" json:"notifications_sent"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`

	// Relations
	Startup     *Startup     `gorm:"foreignKey:StartupID" json:"startup,omitempty"`
	Investments []Investment `gorm:"foreignKey:FundingRoundID" json:"investments,omitempty"`
}

func (FundingRound) TableName() string {
	return "funding_rounds"
}

// Open reports whether the round accepts money at now: inside the interval
// (both bounds exclusive) and still short of its goal.
func (r *FundingRound) Open(now time.Time) bool {
	return r.Phase(now) == PhaseCurrent
}

// Phase derives the lifecycle state at now. A round that met its goal is
// ended regardless of dates.
func (r *FundingRound) Phase(now time.Time) RoundPhase {
	if r.CurrentRaised.GreaterThanOrEqual(r.FundingGoal) || !now.Before(r.EndDate) {
		return PhaseEnded
	}
	if !r.StartDate.Before(now) {
		return PhaseNotStarted
	}
	return PhaseCurrent
}

func (r *FundingRound) Notified(tag string) bool {
	for _, t := range r.NotificationsSent {
		if t == tag {
			return true
		}
	}
	return false
}

// MarkNotified appends tag; the list is never shrunk.
func (r *FundingRound) MarkNotified(tag string) {
	if r.Notified(tag) {
		return
	}
	r.NotificationsSent = append(r.NotificationsSent, tag)
}

func (r *FundingRound) HasInvestments() bool {
	return len(r.Investments) > 0
}
