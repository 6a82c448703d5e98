package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Card statuses
const (
	CardStatusActive = "active"
	CardStatusPaused = "paused"
)

// DefaultCurrency is the fiat currency assumed when a request omits one.
const DefaultCurrency = "UAH"

// Card is a trader-owned bank card with a spending limit and a running
// usage counter. Only active cards with headroom are eligible for
// allocation; usage grows when a transaction is created against the card.
type Card struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	TraderID     string    `gorm:"index;size:36;not null" json:"trader_id"`
	CardNumber   string    `gorm:"not null" json:"card_number"`
	BankName     string    `gorm:"not null" json:"bank_name"`
	HolderName   string    `gorm:"not null" json:"holder_name"`
	Limit        float64   `gorm:"column:limit;not null" json:"limit"`
	CurrentUsage float64   `gorm:"default:0" json:"current_usage"`
	Status       string    `gorm:"size:16;default:'active'" json:"status"`
	Currency     string    `gorm:"size:8;default:'UAH'" json:"currency"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

func (c *Card) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = CardStatusActive
	}
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	return nil
}

// Headroom is the remaining capacity of the card.
func (c *Card) Headroom() float64 {
	return c.Limit - c.CurrentUsage
}

// CardUpdate is a partial card patch; nil fields are left untouched.
type CardUpdate struct {
	Limit  *float64 `json:"limit"`
	Status *string  `json:"status"`
}
