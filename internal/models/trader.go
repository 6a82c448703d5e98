package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trader is the profile of a user who supplies bank cards and redeems
// confirmed fiat payments against their USDT balance.
type Trader struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"uniqueIndex;size:36;not null" json:"user_id"`
	Name        string    `gorm:"not null" json:"name"`
	Nickname    string    `gorm:"not null" json:"nickname"`
	UsdtAddress string    `gorm:"not null" json:"usdt_address"`
	Phone       string    `gorm:"not null" json:"phone"`
	UsdtBalance float64   `gorm:"default:0" json:"usdt_balance"`
	IsBlocked   bool      `gorm:"default:false" json:"is_blocked"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`

	// Email is populated from the owning user for admin listings only.
	Email string `gorm:"-" json:"email,omitempty"`
}

func (t *Trader) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
