package channel

import (
	"context"
	"fmt"
	"time"

	"kodisha/config"
	"kodisha/internal/domain"
	"kodisha/internal/models"
)

// BankTransferAdapter issues interbank transfer instructions. The routing and
// account fields come from operator configuration, not from the payment; only
// the reference token is per-payment. Like the peer channel it is unverified
// and its instructions never expire.
type BankTransferAdapter struct {
	cfg config.BankTransferConfig
}

func NewBankTransferAdapter(cfg config.BankTransferConfig) *BankTransferAdapter {
	return &BankTransferAdapter{cfg: cfg}
}

func (a *BankTransferAdapter) Name() string { return domain.ChannelBankTransfer }

func (a *BankTransferAdapter) IssueInstructions(_ context.Context, p *models.Payment, _ Options) (*Instructions, error) {
	if a.cfg.AccountNumber == "" {
		return nil, domain.ErrChannelUnavailable
	}
	ref := Reference("BANK", p.ID, time.Now())
	return &Instructions{
		Channel:   a.Name(),
		Reference: ref,
		Steps: []string{
			fmt.Sprintf("Transfer %s %s from your bank to the account below.", "KES", p.Amount.StringFixed(2)),
			fmt.Sprintf("Use %s as the transaction reference.", ref),
			"Confirm the payment here once your bank processes the transfer.",
		},
		Fields: map[string]string{
			"bank_name":      a.cfg.BankName,
			"branch_code":    a.cfg.BranchCode,
			"account_name":   a.cfg.AccountName,
			"account_number": a.cfg.AccountNumber,
			"swift_code":     a.cfg.SwiftCode,
		},
		Metadata: map[string]string{"bank_name": a.cfg.BankName},
	}, nil
}
