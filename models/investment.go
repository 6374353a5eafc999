package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Investment struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	FundingRoundID uint            `gorm:"not null;index" json:"funding_round_id"`
	InvestorID     uint            `gorm:"not null;index" json:"investor_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(30,8);not null" json:"amount"`
	CreatedAt      time.Time       `json:"created_at"`

	// Relations
	Investor *Investor `gorm:"foreignKey:InvestorID" json:"investor,omitempty"`
}

func (Investment) TableName() string {
	return "investments"
}
