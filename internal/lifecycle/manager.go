// Package lifecycle owns the payment state machine: PENDING to PAID through a
// settlement proof or claim, PENDING to CANCELLED through an administrative
// action, PAID terminal. Settlement is monotonic; a payment never regresses
// to PENDING.
package lifecycle

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"kodisha/internal/channel"
	"kodisha/internal/domain"
	"kodisha/internal/fanout"
	"kodisha/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Store is the slice of the payment repository the manager mutates through.
// SettleIfPayable must be a single conditional update on status.
type Store interface {
	Create(p *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	SetChannel(id uint, ch, reference, metadata string) error
	SettleIfPayable(id uint, ch, reference string, settledAt time.Time, note string) (bool, error)
	CancelIfNotSettled(id uint) (bool, error)
	Delete(id uint) error
}

type Publisher interface {
	Enqueue(e fanout.Event)
}

type Manager struct {
	store      Store
	events     Publisher
	dueHorizon time.Duration
	currency   string
}

func New(store Store, events Publisher, dueHorizon time.Duration, currency string) *Manager {
	return &Manager{store: store, events: events, dueHorizon: dueHorizon, currency: currency}
}

type CreateInput struct {
	Payer            *models.User
	UnitID           uint
	BuildingID       *uint
	RequestID        *uint
	Amount           decimal.Decimal
	Category         string
	Description      string
	DueAt            *time.Time
	Recipient        *models.User
	RecipientContact string
	ActorRole        string
}

// Create commits a new payment in PENDING. The recipient must already be
// resolved; a payment never leaves PENDING without one.
func (m *Manager) Create(in CreateInput) (*models.Payment, error) {
	if in.Payer == nil {
		return nil, fmt.Errorf("%w: payer required", domain.ErrInvalidInput)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	if in.UnitID == 0 {
		return nil, fmt.Errorf("%w: unit required", domain.ErrInvalidInput)
	}
	if !domain.ValidCategory(in.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, in.Category)
	}
	if in.Recipient == nil {
		return nil, domain.ErrRecipientUnresolved
	}
	dueAt := time.Now().Add(m.dueHorizon)
	if in.DueAt != nil {
		dueAt = *in.DueAt
	}
	recipientID := in.Recipient.ID
	p := &models.Payment{
		PayerID:          in.Payer.ID,
		RecipientID:      &recipientID,
		RecipientContact: in.RecipientContact,
		UnitID:           in.UnitID,
		BuildingID:       in.BuildingID,
		RequestID:        in.RequestID,
		Amount:           in.Amount.Round(2),
		Category:         in.Category,
		Description:      in.Description,
		DueAt:            dueAt,
		Status:           domain.PaymentStatusPending,
	}
	if err := m.store.Create(p); err != nil {
		return nil, err
	}
	m.publish(fanout.Event{Kind: fanout.EventCreated, Payment: *p, ActorID: in.Payer.ID, ActorRole: in.ActorRole})
	return p, nil
}

// ApplyInstructions persists freshly issued channel instructions. At most one
// channel is active per payment: the previous reference and metadata are
// discarded, the payment row itself is untouched otherwise.
func (m *Manager) ApplyInstructions(p *models.Payment, instr *channel.Instructions) error {
	if !p.Payable() {
		return fmt.Errorf("%w: payment is %s", domain.ErrInvalidInput, p.Status)
	}
	meta := ""
	if len(instr.Metadata) > 0 {
		b, _ := json.Marshal(instr.Metadata)
		meta = string(b)
	}
	if err := m.store.SetChannel(p.ID, instr.Channel, instr.Reference, meta); err != nil {
		return err
	}
	p.Channel = instr.Channel
	p.ChannelReference = &instr.Reference
	p.Metadata = meta
	return nil
}

// SettleWithProof commits a gateway-verified settlement. The remote amount
// must match the recorded amount to the minor currency unit; anything further
// off is ErrAmountMismatch and the payment stays unsettled (fail closed, no
// partial settlement path).
func (m *Manager) SettleWithProof(p *models.Payment, proof *channel.Proof, actorID uint, actorRole string) (*models.Payment, error) {
	if proof.Currency != "" && !strings.EqualFold(proof.Currency, m.currency) {
		return nil, fmt.Errorf("%w: processor settled in %s, expected %s",
			domain.ErrAmountMismatch, proof.Currency, m.currency)
	}
	if p.AmountCents() != proof.AmountCents {
		return nil, fmt.Errorf("%w: recorded %d, processor reports %d (%s)",
			domain.ErrAmountMismatch, p.AmountCents(), proof.AmountCents, proof.Currency)
	}
	note := proof.ChargeID
	if note != "" {
		note = "charge " + note
	}
	return m.settle(p, proof.Channel, proof.Reference, proof.SettledAt, note, actorID, actorRole)
}

// SettleClaim commits an unverified manual settlement (peer or bank
// transfer). The claim is recorded at face value; the trust boundary is the
// recipient disputing it out of band.
func (m *Manager) SettleClaim(p *models.Payment, ch, reference, note string, actorID uint, actorRole string) (*models.Payment, error) {
	if !domain.ValidChannel(ch) || ch == domain.ChannelGateway {
		return nil, fmt.Errorf("%w: channel %q cannot carry a manual settlement", domain.ErrInvalidInput, ch)
	}
	if reference == "" {
		return nil, fmt.Errorf("%w: settlement reference required", domain.ErrInvalidInput)
	}
	return m.settle(p, ch, reference, time.Now(), note, actorID, actorRole)
}

// settle performs the idempotent transition. The conditional update and the
// RowsAffected check are what make duplicate confirmations (a webhook retry
// racing a manual confirm) collapse to one commit: the loser re-reads and
// returns the already-settled row as success.
func (m *Manager) settle(p *models.Payment, ch, reference string, settledAt time.Time, note string, actorID uint, actorRole string) (*models.Payment, error) {
	if p.RecipientID == nil {
		return nil, domain.ErrRecipientUnresolved
	}
	if p.IsSettled() {
		return p, nil
	}
	won, err := m.store.SettleIfPayable(p.ID, ch, reference, settledAt, note)
	if err != nil {
		return nil, err
	}
	fresh, err := m.store.GetByID(p.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if !won {
		if fresh.IsSettled() {
			// Duplicate confirmation: no-op success, settledAt unchanged.
			return fresh, nil
		}
		return nil, fmt.Errorf("%w: payment is %s", domain.ErrInvalidInput, fresh.Status)
	}
	log.Printf("[LIFECYCLE] payment %d settled via %s ref=%s", fresh.ID, ch, reference)
	m.publish(fanout.Event{Kind: fanout.EventSettled, Payment: *fresh, ActorID: actorID, ActorRole: actorRole})
	return fresh, nil
}

// Cancel is the administrative exit from PENDING. A settled payment cannot be
// cancelled through here; undoing a settlement is a separate ledger concern.
func (m *Manager) Cancel(id uint) (*models.Payment, error) {
	ok, err := m.store.CancelIfNotSettled(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		fresh, gerr := m.store.GetByID(id)
		if gerr != nil {
			return nil, domain.ErrNotFound
		}
		if fresh.IsSettled() {
			return nil, fmt.Errorf("%w: settled payment cannot be cancelled", domain.ErrInvalidInput)
		}
		return fresh, nil
	}
	return m.store.GetByID(id)
}

// Delete removes a payment (administrative purge). The caller is responsible
// for triggering aggregate recomputation afterwards.
func (m *Manager) Delete(id uint) error {
	return m.store.Delete(id)
}

func (m *Manager) publish(e fanout.Event) {
	if m.events == nil {
		return
	}
	m.events.Enqueue(e)
}
