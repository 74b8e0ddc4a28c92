package domain

import "time"

type Agent struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Description     string    `gorm:"size:1024;not null" json:"description"`
	PaymentEndpoint string    `gorm:"size:512;not null" json:"payment_endpoint"`
	RegisteredAt    time.Time `gorm:"not null" json:"registered_at"`
}
