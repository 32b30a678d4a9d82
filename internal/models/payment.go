package models

import (
	"encoding/json"
	"time"

	"kodisha/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Payment struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	PayerID          uint    `gorm:"not null;index" json:"payer_id"`
	RecipientID      *uint   `gorm:"index" json:"recipient_id"`
	RecipientContact string  `gorm:"size:255" json:"recipient_contact"` // denormalized; overwritten on resolve, never evicted
	UnitID           uint    `gorm:"not null;index" json:"unit_id"`
	BuildingID       *uint   `gorm:"index" json:"building_id"`
	RequestID        *uint   `gorm:"index" json:"request_id"`

	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Category    string          `gorm:"size:20;not null;index" json:"category"` // RENT, PURCHASE, FEE, OTHER
	Description string          `gorm:"type:text" json:"description"`
	DueAt       time.Time       `gorm:"index" json:"due_at"`

	Status           string     `gorm:"size:20;not null;index" json:"status"` // PENDING, PAID, OVERDUE, CANCELLED
	Channel          string     `gorm:"size:20" json:"channel"`
	ChannelReference *string    `gorm:"uniqueIndex;size:64" json:"channel_reference"` // nil until a channel is chosen (avoids duplicate '' on unique index)
	SettledAt        *time.Time `json:"settled_at"`
	SettlementNote   string     `gorm:"size:512" json:"settlement_note"`
	Metadata         string     `gorm:"type:text" json:"metadata"` // adapter-specific JSON bag, opaque to the lifecycle manager

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Payer     *User `gorm:"foreignKey:PayerID" json:"payer,omitempty"`
	Recipient *User `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	Unit      *Unit `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
}

func (Payment) TableName() string { return "payments" }

func (p *Payment) IsSettled() bool { return p.Status == domain.PaymentStatusPaid }

// Payable reports whether the payment can still accept instructions or a
// settlement (PENDING, or OVERDUE from an administrative sweep).
func (p *Payment) Payable() bool {
	return p.Status == domain.PaymentStatusPending || p.Status == domain.PaymentStatusOverdue
}

// MetadataMap decodes the channel metadata bag; never fails, a broken bag
// reads as empty.
func (p *Payment) MetadataMap() map[string]string {
	m := map[string]string{}
	if p.Metadata != "" {
		_ = json.Unmarshal([]byte(p.Metadata), &m)
	}
	return m
}

func (p *Payment) SetMetadataMap(m map[string]string) {
	if len(m) == 0 {
		p.Metadata = ""
		return
	}
	b, _ := json.Marshal(m)
	p.Metadata = string(b)
}

// AmountCents converts the recorded amount to minor currency units.
func (p *Payment) AmountCents() int64 {
	return p.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
