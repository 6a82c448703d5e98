package models

// DefaultCommissionRate applies when no settings row exists yet.
const DefaultCommissionRate = 1.0

// Settings is the single global configuration record. CommissionRate is a
// percentage taken off the USDT amount released at settlement.
type Settings struct {
	ID             uint    `gorm:"primaryKey" json:"-"`
	CommissionRate float64 `gorm:"default:1.0" json:"commission_rate"`
}
