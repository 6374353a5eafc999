package rounds

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nzhukovskiy/fundlink-api/models"
)

// ProposalFactory binds a ProposalService to a transaction.
type ProposalFactory func(tx *gorm.DB) ProposalService

// GormStore keeps rounds in the relational database. Each unit of work is a
// transaction holding a row lock on the startup.
type GormStore struct {
	db        *gorm.DB
	proposals ProposalFactory
}

func NewGormStore(db *gorm.DB, proposals ProposalFactory) *GormStore {
	return &GormStore{db: db, proposals: proposals}
}

func (s *GormStore) WithStartup(ctx context.Context, startupID uint, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var startup models.Startup
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&startup, startupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return StartupNotFoundError(startupID)
			}
			return fmt.Errorf("lock startup %d: %w", startupID, err)
		}
		if err := tx.Preload("Investments").
			Where("startup_id = ?", startupID).
			Order("start_date ASC").
			Find(&startup.FundingRounds).Error; err != nil {
			return fmt.Errorf("load rounds of startup %d: %w", startupID, err)
		}
		return fn(&gormTx{db: tx, startup: &startup, proposals: s.proposals(tx)})
	})
}

func (s *GormStore) StartupIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&models.Startup{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *GormStore) Round(ctx context.Context, id uint) (*models.FundingRound, error) {
	var round models.FundingRound
	err := s.db.WithContext(ctx).
		Preload("Startup").
		Preload("Investments.Investor").
		First(&round, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, RoundNotFoundError(id)
		}
		return nil, err
	}
	return &round, nil
}

func (s *GormStore) Rounds(ctx context.Context, startupID uint) ([]models.FundingRound, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Startup{}).Where("id = ?", startupID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, StartupNotFoundError(startupID)
	}
	var rounds []models.FundingRound
	if err := db.Where("startup_id = ?", startupID).Order("start_date ASC").Find(&rounds).Error; err != nil {
		return nil, err
	}
	return rounds, nil
}

type gormTx struct {
	db        *gorm.DB
	startup   *models.Startup
	proposals ProposalService
}

func (t *gormTx) Startup() *models.Startup { return t.startup }

func (t *gormTx) Proposals() ProposalService { return t.proposals }

func (t *gormTx) CreateRound(r *models.FundingRound) error {
	if err := t.db.Omit(clause.Associations).Create(r).Error; err != nil {
		return err
	}
	t.startup.FundingRounds = append(t.startup.FundingRounds, *r)
	return nil
}

// SaveRounds writes the whole round set in one statement.
func (t *gormTx) SaveRounds(rounds []models.FundingRound) error {
	return t.db.Omit(clause.Associations).Save(&rounds).Error
}

func (t *gormTx) DeleteRound(id uint) error {
	return t.db.Delete(&models.FundingRound{}, id).Error
}

func (t *gormTx) AddInvestment(inv *models.Investment) error {
	return t.db.Omit(clause.Associations).Create(inv).Error
}
