// Package resolver derives who a payment is owed to. Creation never asks the
// caller to know the recipient; the chain below finds one, degrading in
// well-defined steps down to the payer themself.
package resolver

import (
	"errors"
	"log"

	"kodisha/internal/domain"
	"kodisha/internal/models"

	"gorm.io/gorm"
)

type UserDirectory interface {
	GetByID(id uint) (*models.User, error)
}

type PropertyDirectory interface {
	UnitByID(id uint) (*models.Unit, error)
	BuildingByID(id uint) (*models.Building, error)
}

// DefaultRecipientProvider supplies the fallback administrator account. It is
// injected so the resolver is testable without a live directory.
type DefaultRecipientProvider interface {
	DefaultRecipient() (*models.User, error)
}

type Resolver struct {
	users    UserDirectory
	props    PropertyDirectory
	fallback DefaultRecipientProvider
}

func New(users UserDirectory, props PropertyDirectory, fallback DefaultRecipientProvider) *Resolver {
	return &Resolver{users: users, props: props, fallback: fallback}
}

type Input struct {
	UnitID              uint
	BuildingID          uint  // optional, used when the unit has no building link
	ExplicitRecipientID *uint // caller-supplied recipient, wins when present
	Category            string
	Actor               *models.User // authenticated payer
}

type Resolution struct {
	Recipient *models.User
	Contact   string // best-effort off-platform contact address
	Degraded  bool   // true when the payer ended up as their own recipient
}

// Resolve walks the fallback chain: explicit recipient, process administrator
// for owner purchases, unit owner, building administrator, default recipient
// provider, and finally the payer. The contact address follows the same order
// and falls back to the payer's, so every committed payment carries a usable
// address for the manual channels.
func (r *Resolver) Resolve(in Input) (*Resolution, error) {
	if in.Actor == nil {
		return nil, domain.ErrRecipientUnresolved
	}

	if in.ExplicitRecipientID != nil {
		u, err := r.users.GetByID(*in.ExplicitRecipientID)
		if err == nil && u != nil {
			return r.finish(u, in.Actor, false), nil
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	unit, err := r.props.UnitByID(in.UnitID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// An owner buying out their own unit pays the process administrator, not
	// themself via the owner branch below.
	if in.Actor.IsOwner() && in.Category == domain.CategoryPurchase {
		if u, err := r.fallback.DefaultRecipient(); err == nil && u != nil {
			return r.finish(u, in.Actor, false), nil
		}
	}

	if unit != nil && unit.OwnerID != nil && *unit.OwnerID != in.Actor.ID {
		if owner := r.lookupOwner(unit); owner != nil {
			return r.finish(owner, in.Actor, false), nil
		}
	}

	if admin := r.buildingAdmin(unit, in.BuildingID); admin != nil {
		return r.finish(admin, in.Actor, false), nil
	}

	if u, err := r.fallback.DefaultRecipient(); err == nil && u != nil {
		return r.finish(u, in.Actor, false), nil
	}

	// Last resort: the payer receives their own payment. Logged because it
	// usually means the directory data is incomplete.
	log.Printf("[RESOLVER] degraded resolution: payer %d is their own recipient (unit %d)", in.Actor.ID, in.UnitID)
	return r.finish(in.Actor, in.Actor, true), nil
}

func (r *Resolver) lookupOwner(unit *models.Unit) *models.User {
	if unit.Owner != nil {
		return unit.Owner
	}
	if unit.OwnerID == nil {
		return nil
	}
	u, err := r.users.GetByID(*unit.OwnerID)
	if err != nil {
		return nil
	}
	return u
}

func (r *Resolver) buildingAdmin(unit *models.Unit, buildingID uint) *models.User {
	var b *models.Building
	if unit != nil && unit.Building != nil {
		b = unit.Building
	} else {
		id := buildingID
		if unit != nil && unit.BuildingID != nil {
			id = *unit.BuildingID
		}
		if id == 0 {
			return nil
		}
		var err error
		b, err = r.props.BuildingByID(id)
		if err != nil {
			return nil
		}
	}
	if b == nil || b.AdminID == nil {
		return nil
	}
	if b.Admin != nil {
		return b.Admin
	}
	u, err := r.users.GetByID(*b.AdminID)
	if err != nil {
		return nil
	}
	return u
}

func (r *Resolver) finish(recipient, payer *models.User, degraded bool) *Resolution {
	contact := recipient.ContactAddress()
	if contact == "" {
		contact = payer.ContactAddress()
	}
	return &Resolution{Recipient: recipient, Contact: contact, Degraded: degraded}
}
