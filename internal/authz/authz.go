// Package authz holds the row-level access policy shared by every service.
// Services call these checks after loading the rows involved; handlers only
// gate on role.
package authz

import (
	"github.com/google/uuid"

	"github.com/yourwae/fastget-backend/pkg/db/models"
	"github.com/yourwae/fastget-backend/pkg/enums"
	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID uuid.UUID
	Role   enums.Role
}

// Anonymous is the zero principal used for public reads.
var Anonymous = Principal{}

func (p Principal) Authenticated() bool { return p.UserID != uuid.Nil }

func (p Principal) IsAdmin() bool { return p.Role == enums.RoleAdmin }

// Actor maps the principal onto the status-transition actor.
func (p Principal) Actor() enums.Actor { return enums.ActorForRole(p.Role) }

// RequireAuthenticated fails with UNAUTHORIZED for anonymous callers.
func RequireAuthenticated(p Principal) error {
	if !p.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "User not logged in")
	}
	return nil
}

// RequireAdmin fails unless p is an admin.
func RequireAdmin(p Principal) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if !p.IsAdmin() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	return nil
}

// CanManageStore allows the owner and admins to write a store and its products.
func CanManageStore(p Principal, store *models.Store) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if p.IsAdmin() || (store != nil && store.OwnerID == p.UserID) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not the store owner")
}

// CanViewOrder allows the customer, the store owner, the assigned partner and admins.
func CanViewOrder(p Principal, order *models.Order, store *models.Store, delivery *models.Delivery) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	switch {
	case p.IsAdmin():
		return nil
	case order != nil && order.CustomerID == p.UserID:
		return nil
	case store != nil && store.OwnerID == p.UserID:
		return nil
	case delivery != nil && delivery.PartnerID != nil && *delivery.PartnerID == p.UserID:
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order not accessible")
}

// CanActAsCustomer allows only the ordering customer.
func CanActAsCustomer(p Principal, order *models.Order) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if order != nil && order.CustomerID == p.UserID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "only the ordering customer may do this")
}

// CanUpdateDelivery allows only the assigned partner.
func CanUpdateDelivery(p Principal, delivery *models.Delivery) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if delivery != nil && delivery.PartnerID != nil && *delivery.PartnerID == p.UserID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "delivery not assigned to caller")
}

// CanRefund allows the store owner and admins.
func CanRefund(p Principal, store *models.Store) error {
	if err := CanManageStore(p, store); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "refunds require the store owner or an admin")
		}
		return err
	}
	return nil
}
