package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionStatus values. Transitions only move forward:
// pending -> user_confirmed -> completed. cancelled is reached only by the
// expiry sweep, from pending.
type TransactionStatus string

const (
	TransactionPending       TransactionStatus = "pending"
	TransactionUserConfirmed TransactionStatus = "user_confirmed"
	TransactionCompleted     TransactionStatus = "completed"
	TransactionCancelled     TransactionStatus = "cancelled"
)

// TransactionTTL is how long a pending transaction stays payable.
const TransactionTTL = 30 * time.Minute

// Transaction records one exchange request: a user paying fiat onto a
// trader's card in return for USDT.
type Transaction struct {
	ID              string            `gorm:"primaryKey;size:36" json:"id"`
	UserID          string            `gorm:"index;size:36;not null" json:"user_id"`
	TraderID        string            `gorm:"index;size:36;not null" json:"trader_id"`
	CardID          string            `gorm:"size:36;not null" json:"card_id"`
	Amount          float64           `gorm:"not null" json:"amount"`
	Currency        string            `gorm:"size:8;default:'UAH'" json:"currency"`
	Status          TransactionStatus `gorm:"size:24;default:'pending';index" json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UserConfirmedAt *time.Time        `json:"user_confirmed_at"`
	CompletedAt     *time.Time        `json:"completed_at"`
	ExpiresAt       time.Time         `json:"expires_at"`

	// Card is attached on trader listings so the UI can show which card
	// the payment is expected on. Not persisted on this table.
	Card *Card `gorm:"-" json:"card,omitempty"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TransactionPending
	}
	if t.ExpiresAt.IsZero() {
		t.ExpiresAt = time.Now().UTC().Add(TransactionTTL)
	}
	return nil
}
