package domain

import "strings"

const (
	RoleAdmin  = "ADMIN"
	RoleOwner  = "OWNER"
	RoleTenant = "TENANT"
)

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusPaid      = "PAID"
	PaymentStatusOverdue   = "OVERDUE"
	PaymentStatusCancelled = "CANCELLED"
)

const (
	ChannelGateway      = "GATEWAY"
	ChannelPeerTransfer = "PEER_TRANSFER"
	ChannelBankTransfer = "BANK_TRANSFER"
)

const (
	CategoryRent     = "RENT"
	CategoryPurchase = "PURCHASE"
	CategoryFee      = "FEE"
	CategoryOther    = "OTHER"
)

const (
	ContactMethodEmail = "EMAIL"
	ContactMethodPhone = "PHONE"
)

// Request-level aggregate payment status, recomputed by fan-out after every
// committed payment transition.
const (
	RequestUnpaid        = "UNPAID"
	RequestPartiallyPaid = "PARTIALLY_PAID"
	RequestPaid          = "PAID"
)

const (
	NotifPaymentCreated = "PAYMENT_CREATED"
	NotifPaymentSettled = "PAYMENT_SETTLED"
)

// statusAliases maps legacy status strings (older mobile builds, imported
// rows) onto the four-value enum. Events are always emitted canonicalized.
var statusAliases = map[string]string{
	"COMPLETED": PaymentStatusPaid,
	"SETTLED":   PaymentStatusPaid,
	"SUCCESS":   PaymentStatusPaid,
	"OPEN":      PaymentStatusPending,
	"UNPAID":    PaymentStatusPending,
	"AWAITING":  PaymentStatusPending,
	"LATE":      PaymentStatusOverdue,
	"VOID":      PaymentStatusCancelled,
	"CANCELED":  PaymentStatusCancelled,
}

// CanonicalStatus normalizes a payment status to one of PENDING, PAID,
// OVERDUE, CANCELLED. Unknown values fall back to PENDING.
func CanonicalStatus(s string) string {
	up := strings.ToUpper(strings.TrimSpace(s))
	switch up {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusOverdue, PaymentStatusCancelled:
		return up
	}
	if c, ok := statusAliases[up]; ok {
		return c
	}
	return PaymentStatusPending
}

func ValidCategory(c string) bool {
	switch c {
	case CategoryRent, CategoryPurchase, CategoryFee, CategoryOther:
		return true
	}
	return false
}

func ValidChannel(c string) bool {
	switch c {
	case ChannelGateway, ChannelPeerTransfer, ChannelBankTransfer:
		return true
	}
	return false
}
