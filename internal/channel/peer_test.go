package channel_test

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"kodisha/config"
	"kodisha/internal/channel"
	"kodisha/internal/domain"
	"kodisha/internal/models"

	"github.com/shopspring/decimal"
)

func peerPayment() *models.Payment {
	return &models.Payment{
		ID:               12,
		PayerID:          1,
		RecipientContact: "owner@example.com",
		UnitID:           5,
		Amount:           decimal.RequireFromString("1200.00"),
		Status:           domain.PaymentStatusPending,
		Unit:             &models.Unit{ID: 5, Label: "B-12"},
	}
}

func TestPeerInstructions(t *testing.T) {
	a := channel.NewPeerTransferAdapter()
	instr, err := a.IssueInstructions(context.Background(), peerPayment(), channel.Options{
		BankCode:      "RBC",
		ContactMethod: "email",
	})
	if err != nil {
		t.Fatalf("IssueInstructions: %v", err)
	}
	if instr.Channel != domain.ChannelPeerTransfer {
		t.Errorf("channel = %q", instr.Channel)
	}
	if !regexp.MustCompile(`^PEER-[A-Z0-9]{8}-\d{4}$`).MatchString(instr.Reference) {
		t.Errorf("reference %q does not match PEER-[A-Z0-9]{8}-NNNN", instr.Reference)
	}
	if len(instr.Steps) == 0 {
		t.Fatal("no human steps produced")
	}
	joined := strings.Join(instr.Steps, "\n")
	if !strings.Contains(joined, "1200.00") {
		t.Errorf("steps do not quote the amount: %s", joined)
	}
	if !strings.Contains(joined, instr.Reference) {
		t.Error("steps do not quote the reference token")
	}
	if instr.Fields["security_answer"] != "B12" {
		t.Errorf("security_answer = %q, want derived from unit label", instr.Fields["security_answer"])
	}
	if instr.Fields["intermediary"] != "RBC" {
		t.Errorf("intermediary = %q", instr.Fields["intermediary"])
	}
	if instr.ClientSecret != "" {
		t.Error("manual channel must not carry a client secret")
	}
}

func TestPeerInstructionsValidation(t *testing.T) {
	a := channel.NewPeerTransferAdapter()
	tests := []struct {
		name string
		opts channel.Options
	}{
		{"missing bank code", channel.Options{ContactMethod: "EMAIL"}},
		{"bad contact method", channel.Options{BankCode: "RBC", ContactMethod: "FAX"}},
		{"missing contact method", channel.Options{BankCode: "RBC"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.IssueInstructions(context.Background(), peerPayment(), tt.opts)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestBankInstructionsStaticFields(t *testing.T) {
	cfg := config.BankTransferConfig{
		BankName:      "Equity Bank",
		BranchCode:    "068",
		AccountName:   "Kodisha Ltd",
		AccountNumber: "0123456789",
		SwiftCode:     "EQBLKENA",
	}
	a := channel.NewBankTransferAdapter(cfg)
	instr, err := a.IssueInstructions(context.Background(), peerPayment(), channel.Options{})
	if err != nil {
		t.Fatalf("IssueInstructions: %v", err)
	}
	if !regexp.MustCompile(`^BANK-[A-Z0-9]{8}-\d{4}$`).MatchString(instr.Reference) {
		t.Errorf("reference %q does not match BANK-[A-Z0-9]{8}-NNNN", instr.Reference)
	}
	for field, want := range map[string]string{
		"bank_name":      cfg.BankName,
		"account_number": cfg.AccountNumber,
		"swift_code":     cfg.SwiftCode,
	} {
		if instr.Fields[field] != want {
			t.Errorf("field %s = %q, want %q", field, instr.Fields[field], want)
		}
	}
}

func TestBankInstructionsUnconfigured(t *testing.T) {
	a := channel.NewBankTransferAdapter(config.BankTransferConfig{BankName: "Equity Bank"})
	_, err := a.IssueInstructions(context.Background(), peerPayment(), channel.Options{})
	if !errors.Is(err, domain.ErrChannelUnavailable) {
		t.Errorf("err = %v, want ErrChannelUnavailable", err)
	}
}
