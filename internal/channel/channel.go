// Package channel holds the settlement channel adapters. Each adapter knows
// how to produce payer-facing instructions and a reference token for one way
// of moving the money; only the gateway channel can also verify completion.
package channel

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"kodisha/internal/models"
)

type Options struct {
	BankCode      string // peer transfer: chosen intermediary
	ContactMethod string // peer transfer: EMAIL or PHONE
}

// Instructions are what the payer sees. Issuing them persists channel and
// reference on the payment but never touches its status.
type Instructions struct {
	Channel      string            `json:"channel"`
	Reference    string            `json:"reference"`
	Steps        []string          `json:"steps,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
	ClientSecret string            `json:"client_secret,omitempty"` // gateway only
	Metadata     map[string]string `json:"-"`                       // adapter artifacts, persisted opaquely
}

// Proof is a verified settlement signal. Only the gateway produces one; the
// manual channels record a claim, not a proof, and never emit this.
type Proof struct {
	Channel     string
	Reference   string
	ChargeID    string
	AmountCents int64
	Currency    string
	SettledAt   time.Time
}

type Adapter interface {
	Name() string
	IssueInstructions(ctx context.Context, p *models.Payment, opts Options) (*Instructions, error)
}

// Registry maps channel names to adapters.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

func (r *Registry) Get(name string) Adapter {
	return r.adapters[name]
}

func (r *Registry) Available() []string {
	names := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		names = append(names, n)
	}
	return names
}

// Reference builds a fixed-width token like PEER-1A2B3C4D-0917, derived from
// the payment id and issue time. Unique per payment in practice (the time
// component moves every nanosecond) while staying short enough to read over
// the phone.
func Reference(prefix string, paymentID uint, at time.Time) string {
	seed := uint64(paymentID)<<24 ^ uint64(at.UnixNano())
	body := strings.ToUpper(strconv.FormatUint(seed, 36))
	if len(body) > 8 {
		body = body[len(body)-8:]
	}
	for len(body) < 8 {
		body = "0" + body
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, body, (at.UnixNano()/int64(time.Millisecond))%10000)
}
