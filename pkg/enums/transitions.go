package enums

import (
	"fmt"
	"strings"
)

// Actor identifies who requests a status change.
type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorStore    Actor = "store"
	ActorDelivery Actor = "delivery"
	ActorAdmin    Actor = "admin"
	ActorSystem   Actor = "system"
)

// ActorForRole maps an authenticated role onto the transition actor.
func ActorForRole(role Role) Actor {
	switch role {
	case RoleStore:
		return ActorStore
	case RoleDelivery:
		return ActorDelivery
	case RoleAdmin:
		return ActorAdmin
	default:
		return ActorCustomer
	}
}

type orderTransition struct {
	From  OrderStatus
	To    OrderStatus
	Actor Actor
}

var orderTransitions = []orderTransition{
	{OrderStatusPending, OrderStatusConfirmed, ActorStore},
	{OrderStatusConfirmed, OrderStatusPreparing, ActorStore},
	{OrderStatusPreparing, OrderStatusReady, ActorStore},
	{OrderStatusReady, OrderStatusOutForDelivery, ActorStore},
	{OrderStatusReady, OrderStatusOutForDelivery, ActorSystem},
	{OrderStatusOutForDelivery, OrderStatusDelivered, ActorStore},
	{OrderStatusOutForDelivery, OrderStatusDelivered, ActorSystem},

	{OrderStatusPending, OrderStatusCancelled, ActorCustomer},
	{OrderStatusPending, OrderStatusCancelled, ActorStore},
	{OrderStatusConfirmed, OrderStatusCancelled, ActorStore},
	{OrderStatusPreparing, OrderStatusCancelled, ActorStore},
}

type orderTransitionKey struct {
	from  OrderStatus
	to    OrderStatus
	actor Actor
}

var orderTransitionSet = func() map[orderTransitionKey]struct{} {
	m := make(map[orderTransitionKey]struct{}, len(orderTransitions))
	for _, t := range orderTransitions {
		m[orderTransitionKey{t.From, t.To, t.Actor}] = struct{}{}
	}
	return m
}()

// CanTransitionOrder reports an error when actor may not move an order from one status to another.
// Admins may perform any transition that some other actor may perform.
func CanTransitionOrder(from, to OrderStatus, actor Actor) error {
	if actor == ActorAdmin {
		for _, t := range orderTransitions {
			if t.From == from && t.To == to {
				return nil
			}
		}
	} else if _, ok := orderTransitionSet[orderTransitionKey{from, to, actor}]; ok {
		return nil
	}
	return fmt.Errorf("order transition %s -> %s not allowed for %s (allowed next: %s)",
		from, to, actor, describeNext(NextOrderStatuses(from)))
}

// NextOrderStatuses returns the distinct statuses reachable from status.
func NextOrderStatuses(status OrderStatus) []OrderStatus {
	var next []OrderStatus
	seen := map[OrderStatus]bool{}
	for _, t := range orderTransitions {
		if t.From == status && !seen[t.To] {
			next = append(next, t.To)
			seen[t.To] = true
		}
	}
	return next
}

// IsTerminal reports whether no further transitions exist.
func (o OrderStatus) IsTerminal() bool {
	return o == OrderStatusDelivered || o == OrderStatusCancelled
}

// IsActive reports whether the seller dashboard still shows the order.
func (o OrderStatus) IsActive() bool {
	return o.IsValid() && !o.IsTerminal()
}

var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryStatusAssigned:  {DeliveryStatusPickedUp, DeliveryStatusCancelled},
	DeliveryStatusPickedUp:  {DeliveryStatusInTransit, DeliveryStatusDelivered, DeliveryStatusCancelled},
	DeliveryStatusInTransit: {DeliveryStatusDelivered, DeliveryStatusCancelled},
}

// CanTransitionDelivery reports an error for an illegal delivery status change.
func CanTransitionDelivery(from, to DeliveryStatus) error {
	for _, candidate := range deliveryTransitions[from] {
		if candidate == to {
			return nil
		}
	}
	return fmt.Errorf("delivery transition %s -> %s not allowed (allowed next: %s)",
		from, to, describeNext(deliveryTransitions[from]))
}

// IsTerminal reports whether the delivery can no longer change status.
func (d DeliveryStatus) IsTerminal() bool {
	return d == DeliveryStatusDelivered || d == DeliveryStatusCancelled
}

func describeNext[T ~string](next []T) string {
	if len(next) == 0 {
		return "none"
	}
	parts := make([]string, len(next))
	for i, s := range next {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
