package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/jesusbgwork-hub/ai-agent-directory/internal/domain"
)

// LedgerStats aggregates the successful side of the ledger for /health.
type LedgerStats struct {
	SuccessCount int64
	RevenueUSDC  float64
}

type TransactionRepository interface {
	// Append writes one immutable ledger row, stamping the current time
	// when the record carries none.
	Append(record *domain.Transaction) error
	Stats() (LedgerStats, error)
}

type GormTransactionRepository struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Append(record *domain.Transaction) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	return r.db.Create(record).Error
}

func (r *GormTransactionRepository) Stats() (LedgerStats, error) {
	var stats LedgerStats
	row := r.db.Model(&domain.Transaction{}).
		Where("status = ?", domain.TxStatusSuccess).
		Select("COUNT(*) AS success_count, COALESCE(SUM(amount_usdc), 0) AS revenue_usdc").
		Row()
	if err := row.Scan(&stats.SuccessCount, &stats.RevenueUSDC); err != nil {
		return LedgerStats{}, err
	}
	return stats, nil
}
