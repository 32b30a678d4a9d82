// Package access answers "may this actor observe or act on this payment".
// The check is a capability predicate over the relations {payer, recipient,
// unit owner, administrator}, not a switch on role names, so new roles only
// need a new relation here.
package access

import "kodisha/internal/models"

// CanAccess reports whether actor may read or mutate the payment. It reads
// the persisted, resolved recipient: a guard decision taken before recipient
// resolution must be re-evaluated afterwards. The payment's Unit relation
// must be loaded for the owner check to see anything.
func CanAccess(p *models.Payment, actor *models.User) bool {
	if p == nil || actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	if p.PayerID == actor.ID {
		return true
	}
	if p.RecipientID != nil && *p.RecipientID == actor.ID {
		return true
	}
	if p.Unit != nil && p.Unit.OwnerID != nil && *p.Unit.OwnerID == actor.ID {
		return true
	}
	return false
}
