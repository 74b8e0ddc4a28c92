package domain

import "time"

// Transaction statuses. One row is appended for every gated call that
// reached payment verification; rows are never updated or deleted.
const (
	TxStatusSuccess   = "success"
	TxStatusInvalid   = "invalid"
	TxStatusDuplicate = "duplicate"
	TxStatusFailed    = "failed"
)

type Transaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Endpoint    string    `gorm:"size:128;not null;index" json:"endpoint"`
	PaymentHash string    `gorm:"size:128" json:"payment_hash"`
	AmountUSDC  float64   `json:"amount_usdc"`
	Timestamp   time.Time `gorm:"not null" json:"timestamp"`
	Status      string    `gorm:"size:32;index" json:"status"`
}
