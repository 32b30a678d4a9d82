package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrRecipientUnresolved = errors.New("recipient unresolved")
	ErrAmountMismatch      = errors.New("settled amount does not match recorded amount")
	ErrNotYetSettled       = errors.New("payment not yet settled at processor")
	ErrChannelUnavailable  = errors.New("settlement channel unavailable")
	ErrUpstreamTransient   = errors.New("transient upstream failure")
)
