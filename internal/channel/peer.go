package channel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kodisha/internal/domain"
	"kodisha/internal/models"
)

// PeerTransferAdapter issues instructions for a two-party transfer through a
// chosen intermediary (mobile money or bank send). The channel is unverified:
// settlement is a claim asserted by the payer and recorded at face value.
// Issued instructions never expire; an unsettled payment stays payable until
// it is settled or cancelled.
type PeerTransferAdapter struct{}

func NewPeerTransferAdapter() *PeerTransferAdapter { return &PeerTransferAdapter{} }

func (a *PeerTransferAdapter) Name() string { return domain.ChannelPeerTransfer }

func (a *PeerTransferAdapter) IssueInstructions(_ context.Context, p *models.Payment, opts Options) (*Instructions, error) {
	if opts.BankCode == "" {
		return nil, fmt.Errorf("%w: intermediary bank code required", domain.ErrInvalidInput)
	}
	method := strings.ToUpper(opts.ContactMethod)
	if method != domain.ContactMethodEmail && method != domain.ContactMethodPhone {
		return nil, fmt.Errorf("%w: contact method must be EMAIL or PHONE", domain.ErrInvalidInput)
	}

	ref := Reference("PEER", p.ID, time.Now())
	answer := SecurityAnswer(unitLabel(p))
	contact := p.RecipientContact

	steps := []string{
		fmt.Sprintf("Open your %s app and start a send-money transfer.", strings.ToUpper(opts.BankCode)),
		fmt.Sprintf("Send exactly %s %s to the recipient at %s.", "KES", p.Amount.StringFixed(2), contact),
		fmt.Sprintf("Quote reference %s in the transfer note.", ref),
		fmt.Sprintf("If the recipient asks a security question, answer: %s.", answer),
		"Return here and confirm the payment with the reference above.",
	}
	return &Instructions{
		Channel:   a.Name(),
		Reference: ref,
		Steps:     steps,
		Fields: map[string]string{
			"intermediary":    strings.ToUpper(opts.BankCode),
			"contact_method":  method,
			"contact":         contact,
			"security_answer": answer,
		},
		Metadata: map[string]string{
			"bank_code":      strings.ToUpper(opts.BankCode),
			"contact_method": method,
		},
	}, nil
}

// SecurityAnswer derives the shared secret both parties can verify from the
// unit identifier alone.
func SecurityAnswer(unit string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(unit) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "UNIT"
	}
	return b.String()
}

func unitLabel(p *models.Payment) string {
	if p.Unit != nil && p.Unit.Label != "" {
		return p.Unit.Label
	}
	return fmt.Sprintf("UNIT%d", p.UnitID)
}
