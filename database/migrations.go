package database

import (
	"log"

	"gorm.io/gorm"

	"github.com/nzhukovskiy/fundlink-api/models"
)

// Models lists every table the API owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.Startup{},
		&models.Investor{},
		&models.FundingRound{},
		&models.Investment{},
		&models.ChangeProposal{},
		&models.ProposalVote{},
		&models.RevokedToken{},
	}
}

// Migrate runs AutoMigrate for all models inside a transaction where the
// server supports transactional DDL.
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(Models()...); err != nil {
			return err
		}
		log.Printf("[database] migrated %d models", len(Models()))
		return nil
	})
}
