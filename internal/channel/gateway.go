package channel

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"kodisha/internal/domain"
	"kodisha/internal/models"
	"kodisha/pkg/cardproc"

	"github.com/google/uuid"
)

// IntentAPI is the slice of the card processor the gateway adapter needs.
type IntentAPI interface {
	Configured() bool
	CreateIntent(ctx context.Context, params cardproc.CreateIntentParams) (*cardproc.Intent, error)
	GetIntent(ctx context.Context, id string) (*cardproc.Intent, error)
}

// GatewayAdapter opens remote payment intents and, alone among the channels,
// can verify completion against the processor.
type GatewayAdapter struct {
	api      IntentAPI
	currency string
	minCents int64
}

func NewGatewayAdapter(api IntentAPI, currency string, minCents int64) *GatewayAdapter {
	return &GatewayAdapter{api: api, currency: currency, minCents: minCents}
}

func (a *GatewayAdapter) Name() string { return domain.ChannelGateway }

func (a *GatewayAdapter) IssueInstructions(ctx context.Context, p *models.Payment, _ Options) (*Instructions, error) {
	if !a.api.Configured() {
		return nil, domain.ErrChannelUnavailable
	}
	cents := p.AmountCents()
	if cents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	if cents < a.minCents {
		return nil, fmt.Errorf("%w: amount below processor minimum", domain.ErrInvalidInput)
	}

	meta := map[string]string{
		"payment_id": strconv.FormatUint(uint64(p.ID), 10),
		"payer_id":   strconv.FormatUint(uint64(p.PayerID), 10),
	}
	if p.Payer != nil {
		meta["payer_email"] = p.Payer.Email
		meta["payer_name"] = p.Payer.Name
	}
	if p.Unit != nil {
		meta["unit"] = p.Unit.Label
		if p.Unit.Building != nil {
			meta["building"] = p.Unit.Building.Name
		}
	}

	intent, err := a.api.CreateIntent(ctx, cardproc.CreateIntentParams{
		AmountCents:    cents,
		Currency:       a.currency,
		Description:    p.Description,
		IdempotencyKey: uuid.NewString(),
		Metadata:       meta,
	})
	if err != nil {
		if errors.Is(err, cardproc.ErrUnavailable) {
			return nil, domain.ErrChannelUnavailable
		}
		return nil, err
	}
	return &Instructions{
		Channel:      a.Name(),
		Reference:    intent.ID,
		ClientSecret: intent.ClientSecret,
		Steps: []string{
			"Complete the card payment in the app using the confirmation secret.",
		},
		Metadata: map[string]string{"intent_id": intent.ID},
	}, nil
}

// Confirm retrieves the remote intent behind token and turns a succeeded
// intent into a settlement proof. A still-pending intent is reported as
// domain.ErrNotYetSettled, which is a legitimate outcome, not a failure.
func (a *GatewayAdapter) Confirm(ctx context.Context, p *models.Payment, token string) (*Proof, error) {
	if !a.api.Configured() {
		return nil, domain.ErrChannelUnavailable
	}
	intentID := token
	if intentID == "" {
		intentID = p.MetadataMap()["intent_id"]
	}
	if intentID == "" {
		return nil, fmt.Errorf("%w: no gateway intent on payment", domain.ErrInvalidInput)
	}
	intent, err := a.api.GetIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, cardproc.ErrUnavailable) {
			return nil, domain.ErrChannelUnavailable
		}
		return nil, err
	}
	if intent.Status != cardproc.IntentStatusSucceeded {
		return nil, domain.ErrNotYetSettled
	}
	return &Proof{
		Channel:     a.Name(),
		Reference:   intent.ID,
		ChargeID:    intent.ChargeID,
		AmountCents: intent.AmountCents,
		Currency:    intent.Currency,
		SettledAt:   time.Now(),
	}, nil
}
