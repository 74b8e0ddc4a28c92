package database

import (
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Agent{},
		&domain.Transaction{},
	)
}
