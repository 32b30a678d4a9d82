package channel_test

import (
	"context"
	"errors"
	"testing"

	"kodisha/internal/channel"
	"kodisha/internal/domain"
	"kodisha/internal/models"
	"kodisha/pkg/cardproc"

	"github.com/shopspring/decimal"
)

type fakeIntentAPI struct {
	configured bool
	created    []cardproc.CreateIntentParams
	intent     *cardproc.Intent
	createErr  error
	getErr     error
}

func (f *fakeIntentAPI) Configured() bool { return f.configured }

func (f *fakeIntentAPI) CreateIntent(_ context.Context, params cardproc.CreateIntentParams) (*cardproc.Intent, error) {
	f.created = append(f.created, params)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.intent, nil
}

func (f *fakeIntentAPI) GetIntent(_ context.Context, id string) (*cardproc.Intent, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.intent == nil || f.intent.ID != id {
		return nil, errors.New("no such intent")
	}
	return f.intent, nil
}

func gatewayPayment(amount string) *models.Payment {
	return &models.Payment{
		ID:      7,
		PayerID: 3,
		UnitID:  5,
		Amount:  decimal.RequireFromString(amount),
		Status:  domain.PaymentStatusPending,
		Payer:   &models.User{ID: 3, Name: "Wanjiku", Email: "wanjiku@example.com"},
		Unit:    &models.Unit{ID: 5, Label: "B-12"},
	}
}

func TestGatewayIssueInstructions(t *testing.T) {
	api := &fakeIntentAPI{
		configured: true,
		intent:     &cardproc.Intent{ID: "pi_123", ClientSecret: "pi_123_secret", Status: cardproc.IntentStatusPending},
	}
	a := channel.NewGatewayAdapter(api, "KES", 100)

	instr, err := a.IssueInstructions(context.Background(), gatewayPayment("1200.00"), channel.Options{})
	if err != nil {
		t.Fatalf("IssueInstructions: %v", err)
	}
	if instr.Reference != "pi_123" || instr.ClientSecret != "pi_123_secret" {
		t.Errorf("instructions = %+v, want intent id and client secret carried over", instr)
	}
	if instr.Metadata["intent_id"] != "pi_123" {
		t.Errorf("metadata intent_id = %q", instr.Metadata["intent_id"])
	}

	if len(api.created) != 1 {
		t.Fatalf("created %d intents, want 1", len(api.created))
	}
	params := api.created[0]
	if params.AmountCents != 120000 {
		t.Errorf("amount = %d cents, want 120000", params.AmountCents)
	}
	if params.Currency != "KES" {
		t.Errorf("currency = %q", params.Currency)
	}
	if params.IdempotencyKey == "" {
		t.Error("no idempotency key sent to the processor")
	}
	for key, want := range map[string]string{
		"payment_id":  "7",
		"payer_id":    "3",
		"payer_email": "wanjiku@example.com",
		"unit":        "B-12",
	} {
		if params.Metadata[key] != want {
			t.Errorf("intent metadata %s = %q, want %q", key, params.Metadata[key], want)
		}
	}
}

func TestGatewayIssueValidation(t *testing.T) {
	tests := []struct {
		name    string
		api     *fakeIntentAPI
		amount  string
		wantErr error
	}{
		{"unconfigured", &fakeIntentAPI{configured: false}, "1200.00", domain.ErrChannelUnavailable},
		{"below minimum", &fakeIntentAPI{configured: true}, "0.50", domain.ErrInvalidInput},
		{"zero amount", &fakeIntentAPI{configured: true}, "0.00", domain.ErrInvalidInput},
		{"processor down", &fakeIntentAPI{configured: true, createErr: cardproc.ErrUnavailable}, "1200.00", domain.ErrChannelUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := channel.NewGatewayAdapter(tt.api, "KES", 100)
			_, err := a.IssueInstructions(context.Background(), gatewayPayment(tt.amount), channel.Options{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGatewayConfirm(t *testing.T) {
	succeeded := &cardproc.Intent{
		ID:          "pi_123",
		Status:      cardproc.IntentStatusSucceeded,
		ChargeID:    "ch_999",
		AmountCents: 120000,
		Currency:    "KES",
	}

	t.Run("succeeded intent yields proof", func(t *testing.T) {
		a := channel.NewGatewayAdapter(&fakeIntentAPI{configured: true, intent: succeeded}, "KES", 100)
		proof, err := a.Confirm(context.Background(), gatewayPayment("1200.00"), "pi_123")
		if err != nil {
			t.Fatalf("Confirm: %v", err)
		}
		if proof.Channel != domain.ChannelGateway || proof.Reference != "pi_123" || proof.ChargeID != "ch_999" {
			t.Errorf("proof = %+v", proof)
		}
		if proof.AmountCents != 120000 || proof.Currency != "KES" {
			t.Errorf("proof amount = %d %s", proof.AmountCents, proof.Currency)
		}
		if proof.SettledAt.IsZero() {
			t.Error("proof has zero settlement time")
		}
	})

	t.Run("pending intent is not yet settled", func(t *testing.T) {
		pending := &cardproc.Intent{ID: "pi_123", Status: cardproc.IntentStatusPending}
		a := channel.NewGatewayAdapter(&fakeIntentAPI{configured: true, intent: pending}, "KES", 100)
		_, err := a.Confirm(context.Background(), gatewayPayment("1200.00"), "pi_123")
		if !errors.Is(err, domain.ErrNotYetSettled) {
			t.Errorf("err = %v, want ErrNotYetSettled", err)
		}
	})

	t.Run("token falls back to stored intent id", func(t *testing.T) {
		a := channel.NewGatewayAdapter(&fakeIntentAPI{configured: true, intent: succeeded}, "KES", 100)
		p := gatewayPayment("1200.00")
		p.SetMetadataMap(map[string]string{"intent_id": "pi_123"})
		proof, err := a.Confirm(context.Background(), p, "")
		if err != nil {
			t.Fatalf("Confirm: %v", err)
		}
		if proof.Reference != "pi_123" {
			t.Errorf("reference = %q", proof.Reference)
		}
	})

	t.Run("no intent anywhere", func(t *testing.T) {
		a := channel.NewGatewayAdapter(&fakeIntentAPI{configured: true}, "KES", 100)
		_, err := a.Confirm(context.Background(), gatewayPayment("1200.00"), "")
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
	})
}
