// Package fanout propagates committed payment transitions to everything that
// depends on them: the owning request, live websocket subscribers, and the
// notification queue. The persisted payment is the source of truth; every
// step here is best effort, and subscribers that miss a push reconcile by
// polling the REST surface (clients refresh on an interval as the liveness
// backstop).
package fanout

import (
	"fmt"
	"log"

	"kodisha/internal/domain"
	"kodisha/internal/models"
)

type Kind string

const (
	EventCreated Kind = "payment.created"
	EventSettled Kind = "payment.settled"
)

// Event is a snapshot of a committed transition. It is queued after the store
// write succeeds; dispatch failures never roll the transition back.
type Event struct {
	Kind      Kind
	Payment   models.Payment
	ActorID   uint
	ActorRole string
}

type Broadcaster interface {
	BroadcastAll(payload interface{})
	BroadcastToUser(userID uint, payload interface{})
}

type Notifier interface {
	Notify(userID uint, notifType, title, body string, data map[string]interface{}) error
}

type RequestSynchronizer interface {
	RecomputePaymentStatus(requestID uint) error
}

type AdminDirectory interface {
	ListByRole(role string) ([]models.User, error)
}

type Fanout struct {
	requests RequestSynchronizer
	hub      Broadcaster
	notifier Notifier
	admins   AdminDirectory
	queue    chan Event
}

func New(requests RequestSynchronizer, hub Broadcaster, notifier Notifier, admins AdminDirectory) *Fanout {
	return &Fanout{
		requests: requests,
		hub:      hub,
		notifier: notifier,
		admins:   admins,
		queue:    make(chan Event, 256),
	}
}

// Start launches the consumer goroutine. Callers get their HTTP response as
// soon as the transition commits; dispatch happens behind them.
func (f *Fanout) Start() {
	go func() {
		for e := range f.queue {
			f.Dispatch(e)
		}
	}()
}

// Enqueue never blocks the committing caller. A full queue is logged and the
// event dropped; the polling fallback covers the gap.
func (f *Fanout) Enqueue(e Event) {
	select {
	case f.queue <- e:
	default:
		log.Printf("[FANOUT] queue full, dropping %s for payment %d (subscribers will catch up on refresh)", e.Kind, e.Payment.ID)
	}
}

// Dispatch runs the three propagation steps. Each is isolated: a failure is
// logged and the remaining steps still run.
func (f *Fanout) Dispatch(e Event) {
	f.step("request-status", e, f.syncRequest)
	f.step("broadcast", e, f.broadcast)
	f.step("notify", e, f.notify)
}

func (f *Fanout) step(name string, e Event, fn func(Event) error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[FANOUT] %s panicked for payment %d: %v", name, e.Payment.ID, r)
		}
	}()
	if err := fn(e); err != nil {
		log.Printf("[FANOUT] %s failed for payment %d: %v", name, e.Payment.ID, err)
	}
}

func (f *Fanout) syncRequest(e Event) error {
	if e.Payment.RequestID == nil || f.requests == nil {
		return nil
	}
	return f.requests.RecomputePaymentStatus(*e.Payment.RequestID)
}

func (f *Fanout) broadcast(e Event) error {
	if f.hub == nil {
		return nil
	}
	payload := map[string]interface{}{
		"type":       "payment_event",
		"event":      string(e.Kind),
		"payment_id": e.Payment.ID,
		"status":     domain.CanonicalStatus(e.Payment.Status),
		"amount":     e.Payment.Amount.StringFixed(2),
		"unit_id":    e.Payment.UnitID,
	}
	f.hub.BroadcastAll(payload)
	f.hub.BroadcastToUser(e.Payment.PayerID, payload)
	return nil
}

func (f *Fanout) notify(e Event) error {
	if f.notifier == nil {
		return nil
	}
	p := e.Payment
	data := map[string]interface{}{"payment_id": p.ID, "amount": p.Amount.StringFixed(2)}
	switch e.Kind {
	case EventCreated:
		title := "New payment"
		body := fmt.Sprintf("Payment of KES %s is due.", p.Amount.StringFixed(2))
		if e.ActorRole == domain.RoleAdmin {
			return f.notifier.Notify(p.PayerID, domain.NotifPaymentCreated, title, body, data)
		}
		// A non-admin opened the payment; administrators watch for these.
		if f.admins == nil {
			return nil
		}
		admins, err := f.admins.ListByRole(domain.RoleAdmin)
		if err != nil {
			return err
		}
		var firstErr error
		for _, a := range admins {
			if err := f.notifier.Notify(a.ID, domain.NotifPaymentCreated, title, body, data); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	case EventSettled:
		title := "Payment settled"
		body := fmt.Sprintf("Payment of KES %s was settled.", p.Amount.StringFixed(2))
		err := f.notifier.Notify(p.PayerID, domain.NotifPaymentSettled, title, body, data)
		if p.RecipientID != nil && *p.RecipientID != p.PayerID {
			if err2 := f.notifier.Notify(*p.RecipientID, domain.NotifPaymentSettled, title, body, data); err == nil {
				err = err2
			}
		}
		return err
	}
	return nil
}
