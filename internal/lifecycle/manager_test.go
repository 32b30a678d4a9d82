package lifecycle_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"kodisha/internal/channel"
	"kodisha/internal/domain"
	"kodisha/internal/fanout"
	"kodisha/internal/lifecycle"
	"kodisha/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// memStore mimics the conditional-update contract of the payment repository
// against an in-memory map.
type memStore struct {
	nextID   uint
	payments map[uint]*models.Payment
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, payments: map[uint]*models.Payment{}}
}

func (s *memStore) Create(p *models.Payment) error {
	p.ID = s.nextID
	s.nextID++
	cp := *p
	s.payments[p.ID] = &cp
	return nil
}

func (s *memStore) GetByID(id uint) (*models.Payment, error) {
	p, ok := s.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) SetChannel(id uint, ch, reference, metadata string) error {
	p, ok := s.payments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Channel = ch
	p.ChannelReference = &reference
	p.Metadata = metadata
	return nil
}

func (s *memStore) SettleIfPayable(id uint, ch, reference string, settledAt time.Time, note string) (bool, error) {
	p, ok := s.payments[id]
	if !ok || !p.Payable() {
		return false, nil
	}
	p.Status = domain.PaymentStatusPaid
	p.Channel = ch
	p.ChannelReference = &reference
	p.SettledAt = &settledAt
	p.SettlementNote = note
	return true, nil
}

func (s *memStore) CancelIfNotSettled(id uint) (bool, error) {
	p, ok := s.payments[id]
	if !ok || !p.Payable() {
		return false, nil
	}
	p.Status = domain.PaymentStatusCancelled
	return true, nil
}

func (s *memStore) Delete(id uint) error {
	delete(s.payments, id)
	return nil
}

type capturePublisher struct {
	events []fanout.Event
}

func (c *capturePublisher) Enqueue(e fanout.Event) { c.events = append(c.events, e) }

func tenant() *models.User {
	return &models.User{ID: 3, Name: "Wanjiku", Email: "wanjiku@example.com", Role: domain.RoleTenant}
}

func owner() *models.User {
	return &models.User{ID: 9, Name: "Otieno", Email: "otieno@example.com", Role: domain.RoleOwner}
}

func createInput() lifecycle.CreateInput {
	return lifecycle.CreateInput{
		Payer:            tenant(),
		UnitID:           5,
		Amount:           decimal.RequireFromString("1200.00"),
		Category:         domain.CategoryRent,
		Recipient:        owner(),
		RecipientContact: "otieno@example.com",
		ActorRole:        domain.RoleTenant,
	}
}

func TestCreateDefaults(t *testing.T) {
	store := newMemStore()
	pub := &capturePublisher{}
	m := lifecycle.New(store, pub, 30*24*time.Hour, "KES")

	p, err := m.Create(createInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Status != domain.PaymentStatusPending {
		t.Errorf("status = %q, want PENDING", p.Status)
	}
	if p.RecipientID == nil || *p.RecipientID != 9 {
		t.Errorf("recipient id = %v, want 9", p.RecipientID)
	}
	if got := time.Until(p.DueAt); got < 29*24*time.Hour || got > 31*24*time.Hour {
		t.Errorf("due horizon = %v, want about 30 days", got)
	}
	if len(pub.events) != 1 || pub.events[0].Kind != fanout.EventCreated {
		t.Fatalf("events = %+v, want a single created event", pub.events)
	}
	if pub.events[0].Payment.ID != p.ID {
		t.Errorf("event carries payment %d, want %d", pub.events[0].Payment.ID, p.ID)
	}
}

func TestCreateValidation(t *testing.T) {
	m := lifecycle.New(newMemStore(), nil, 30*24*time.Hour, "KES")
	tests := []struct {
		name    string
		mutate  func(*lifecycle.CreateInput)
		wantErr error
	}{
		{"no payer", func(in *lifecycle.CreateInput) { in.Payer = nil }, domain.ErrInvalidInput},
		{"zero amount", func(in *lifecycle.CreateInput) { in.Amount = decimal.Zero }, domain.ErrInvalidInput},
		{"negative amount", func(in *lifecycle.CreateInput) { in.Amount = decimal.RequireFromString("-5") }, domain.ErrInvalidInput},
		{"no unit", func(in *lifecycle.CreateInput) { in.UnitID = 0 }, domain.ErrInvalidInput},
		{"bad category", func(in *lifecycle.CreateInput) { in.Category = "TIP" }, domain.ErrInvalidInput},
		{"no recipient", func(in *lifecycle.CreateInput) { in.Recipient = nil }, domain.ErrRecipientUnresolved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := createInput()
			tt.mutate(&in)
			_, err := m.Create(in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyInstructionsReplacesChannel(t *testing.T) {
	store := newMemStore()
	m := lifecycle.New(store, nil, 30*24*time.Hour, "KES")
	p, err := m.Create(createInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	peer := &channel.Instructions{
		Channel:   domain.ChannelPeerTransfer,
		Reference: "PEER-AAAA1111-0001",
		Metadata:  map[string]string{"bank_code": "RBC"},
	}
	if err := m.ApplyInstructions(p, peer); err != nil {
		t.Fatalf("ApplyInstructions(peer): %v", err)
	}

	bank := &channel.Instructions{Channel: domain.ChannelBankTransfer, Reference: "BANK-BBBB2222-0002"}
	if err := m.ApplyInstructions(p, bank); err != nil {
		t.Fatalf("ApplyInstructions(bank): %v", err)
	}

	fresh, _ := store.GetByID(p.ID)
	if fresh.Channel != domain.ChannelBankTransfer {
		t.Errorf("channel = %q, want the latest one", fresh.Channel)
	}
	if fresh.ChannelReference == nil || *fresh.ChannelReference != "BANK-BBBB2222-0002" {
		t.Errorf("reference = %v, want the bank reference", fresh.ChannelReference)
	}
	if fresh.Metadata != "" {
		t.Errorf("metadata = %q, want the peer metadata discarded", fresh.Metadata)
	}
	if fresh.Status != domain.PaymentStatusPending {
		t.Errorf("status = %q, switching channels must not touch status", fresh.Status)
	}
}

func TestApplyInstructionsOnSettled(t *testing.T) {
	store := newMemStore()
	m := lifecycle.New(store, nil, 30*24*time.Hour, "KES")
	p, _ := m.Create(createInput())
	if _, err := m.SettleClaim(p, domain.ChannelPeerTransfer, "PEER-AAAA1111-0001", "", 3, domain.RoleTenant); err != nil {
		t.Fatalf("SettleClaim: %v", err)
	}
	settled, _ := store.GetByID(p.ID)
	err := m.ApplyInstructions(settled, &channel.Instructions{Channel: domain.ChannelBankTransfer, Reference: "BANK-X"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSettleClaimIdempotent(t *testing.T) {
	store := newMemStore()
	pub := &capturePublisher{}
	m := lifecycle.New(store, pub, 30*24*time.Hour, "KES")
	p, _ := m.Create(createInput())

	first, err := m.SettleClaim(p, domain.ChannelPeerTransfer, "PEER-AAAA1111-0001", "sent via app", 3, domain.RoleTenant)
	if err != nil {
		t.Fatalf("first settle: %v", err)
	}
	if !first.IsSettled() || first.SettledAt == nil {
		t.Fatalf("payment not settled: %+v", first)
	}
	settledAt := *first.SettledAt

	// A duplicate confirmation is a no-op success and must not move the
	// settlement timestamp.
	again, _ := store.GetByID(p.ID)
	second, err := m.SettleClaim(again, domain.ChannelPeerTransfer, "PEER-AAAA1111-0001", "sent via app", 3, domain.RoleTenant)
	if err != nil {
		t.Fatalf("duplicate settle: %v", err)
	}
	if second.SettledAt == nil || !second.SettledAt.Equal(settledAt) {
		t.Errorf("settledAt moved from %v to %v on duplicate", settledAt, second.SettledAt)
	}

	settledEvents := 0
	for _, e := range pub.events {
		if e.Kind == fanout.EventSettled {
			settledEvents++
		}
	}
	if settledEvents != 1 {
		t.Errorf("%d settled events published, want exactly 1", settledEvents)
	}
}

func TestSettleClaimValidation(t *testing.T) {
	store := newMemStore()
	m := lifecycle.New(store, nil, 30*24*time.Hour, "KES")
	p, _ := m.Create(createInput())

	if _, err := m.SettleClaim(p, domain.ChannelGateway, "pi_123", "", 3, domain.RoleTenant); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("gateway claim: err = %v, want ErrInvalidInput", err)
	}
	if _, err := m.SettleClaim(p, "WIRE", "ref", "", 3, domain.RoleTenant); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("unknown channel: err = %v, want ErrInvalidInput", err)
	}
	if _, err := m.SettleClaim(p, domain.ChannelPeerTransfer, "", "", 3, domain.RoleTenant); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty reference: err = %v, want ErrInvalidInput", err)
	}

	p.RecipientID = nil
	if _, err := m.SettleClaim(p, domain.ChannelPeerTransfer, "PEER-X", "", 3, domain.RoleTenant); !errors.Is(err, domain.ErrRecipientUnresolved) {
		t.Errorf("no recipient: err = %v, want ErrRecipientUnresolved", err)
	}
}

func TestSettleWithProofAmountMismatch(t *testing.T) {
	store := newMemStore()
	m := lifecycle.New(store, nil, 30*24*time.Hour, "KES")
	in := createInput()
	in.Amount = decimal.RequireFromString("10.00")
	p, _ := m.Create(in)

	proof := &channel.Proof{
		Channel:     domain.ChannelGateway,
		Reference:   "pi_123",
		AmountCents: 999, // processor reports 9.99
		Currency:    "KES",
		SettledAt:   time.Now(),
	}
	_, err := m.SettleWithProof(p, proof, 3, domain.RoleTenant)
	if !errors.Is(err, domain.ErrAmountMismatch) {
		t.Fatalf("err = %v, want ErrAmountMismatch", err)
	}

	fresh, _ := store.GetByID(p.ID)
	if fresh.Status != domain.PaymentStatusPending {
		t.Errorf("status = %q, mismatch must leave the payment unsettled", fresh.Status)
	}

	proof.AmountCents = 1000
	settled, err := m.SettleWithProof(p, proof, 3, domain.RoleTenant)
	if err != nil {
		t.Fatalf("exact amount: %v", err)
	}
	if !settled.IsSettled() {
		t.Errorf("status = %q, want PAID", settled.Status)
	}
	if settled.SettlementNote != "" {
		// ChargeID is empty in this proof; the note stays empty.
		t.Errorf("note = %q", settled.SettlementNote)
	}
}

func TestSettleWithProofCurrencyMismatch(t *testing.T) {
	m := lifecycle.New(newMemStore(), nil, 30*24*time.Hour, "KES")
	p, _ := m.Create(createInput())
	proof := &channel.Proof{
		Channel:     domain.ChannelGateway,
		Reference:   "pi_123",
		AmountCents: 120000,
		Currency:    "USD",
		SettledAt:   time.Now(),
	}
	if _, err := m.SettleWithProof(p, proof, 3, domain.RoleTenant); !errors.Is(err, domain.ErrAmountMismatch) {
		t.Errorf("err = %v, want ErrAmountMismatch", err)
	}
}

func TestCancel(t *testing.T) {
	store := newMemStore()
	m := lifecycle.New(store, nil, 30*24*time.Hour, "KES")

	t.Run("pending payment cancels", func(t *testing.T) {
		p, _ := m.Create(createInput())
		got, err := m.Cancel(p.ID)
		if err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if got.Status != domain.PaymentStatusCancelled {
			t.Errorf("status = %q, want CANCELLED", got.Status)
		}
	})

	t.Run("settled payment refuses", func(t *testing.T) {
		p, _ := m.Create(createInput())
		if _, err := m.SettleClaim(p, domain.ChannelPeerTransfer, "PEER-Y", "", 3, domain.RoleTenant); err != nil {
			t.Fatalf("SettleClaim: %v", err)
		}
		if _, err := m.Cancel(p.ID); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("missing payment", func(t *testing.T) {
		if _, err := m.Cancel(404); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

// TestRentFlow walks the main path end to end: a tenant owes 1200.00, picks
// the peer channel, pays and confirms, and a retried confirmation changes
// nothing.
func TestRentFlow(t *testing.T) {
	store := newMemStore()
	pub := &capturePublisher{}
	m := lifecycle.New(store, pub, 30*24*time.Hour, "KES")

	p, err := m.Create(createInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	adapter := channel.NewPeerTransferAdapter()
	instr, err := adapter.IssueInstructions(context.Background(), p, channel.Options{BankCode: "RBC", ContactMethod: "EMAIL"})
	if err != nil {
		t.Fatalf("IssueInstructions: %v", err)
	}
	if err := m.ApplyInstructions(p, instr); err != nil {
		t.Fatalf("ApplyInstructions: %v", err)
	}

	settled, err := m.SettleClaim(p, domain.ChannelPeerTransfer, instr.Reference, "paid in app", 3, domain.RoleTenant)
	if err != nil {
		t.Fatalf("SettleClaim: %v", err)
	}
	if !settled.IsSettled() {
		t.Fatalf("status = %q, want PAID", settled.Status)
	}
	if settled.ChannelReference == nil || *settled.ChannelReference != instr.Reference {
		t.Errorf("reference = %v, want %q", settled.ChannelReference, instr.Reference)
	}

	dup, err := m.SettleClaim(settled, domain.ChannelPeerTransfer, instr.Reference, "paid in app", 3, domain.RoleTenant)
	if err != nil {
		t.Fatalf("duplicate SettleClaim: %v", err)
	}
	if !dup.SettledAt.Equal(*settled.SettledAt) {
		t.Errorf("duplicate confirmation moved settledAt")
	}

	var kinds []string
	for _, e := range pub.events {
		kinds = append(kinds, string(e.Kind))
	}
	if fmt.Sprint(kinds) != fmt.Sprint([]string{"payment.created", "payment.settled"}) {
		t.Errorf("events = %v, want created then settled exactly once", kinds)
	}
}
