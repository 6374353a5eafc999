package models

import "time"

type StartupStage string

const (
	StartupActive StartupStage = "ACTIVE"
	StartupExited StartupStage = "EXITED"
)

type Startup struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"size:150;not null" json:"name"`
	Email         string         `gorm:"size:191;uniqueIndex;not null" json:"email"`
	Password      string         `gorm:"size:255;not null" json:"-"`
	Stage         StartupStage   `gorm:"type:enum('ACTIVE','EXITED');default:'ACTIVE'" json:"stage"`
	FundingRounds []FundingRound `gorm:"foreignKey:StartupID" json:"funding_rounds,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"-"`
}

func (Startup) TableName() string {
	return "startups"
}

func (s *Startup) IsActive() bool {
	return s.Stage == StartupActive
}
