package models

import (
	"time"

	"gorm.io/gorm"
)

// Request is a maintenance/charge request raised against a unit. The payment
// engine does not own its lifecycle; it only recomputes PaymentStatus after a
// committed payment transition.
type Request struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UnitID        uint           `gorm:"not null;index" json:"unit_id"`
	RequesterID   uint           `gorm:"not null;index" json:"requester_id"`
	Title         string         `gorm:"size:255" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	Status        string         `gorm:"size:20;default:'OPEN'" json:"status"`
	PaymentStatus string         `gorm:"size:20;default:'UNPAID';index" json:"payment_status"` // UNPAID | PARTIALLY_PAID | PAID
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Unit *Unit `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
}

func (Request) TableName() string { return "requests" }
