// Package status canonicalizes the delivery status vocabulary shared with
// the customer application and validates lifecycle transitions.
//
// The backing store's status tokens have changed over several revisions and
// are written by two independently-deployed apps, so the same lifecycle state
// arrives under multiple spellings. All known spellings live in one alias
// table; adding a future alias is a one-line edit plus a test.
package status

import (
	"fmt"
	"strings"

	"courier/internal/domain"
)

// DiagnosticKind classifies a non-fatal normalization finding.
type DiagnosticKind string

// DiagnosticUnknownStatus is emitted when a raw token matches no known alias.
// The token defaults to pending; an unparseable status must never crash the
// surrounding flow.
const DiagnosticUnknownStatus DiagnosticKind = "UNKNOWN_STATUS"

// Diagnostic carries observability detail about a recoverable normalization
// condition. It is informational and never an error.
type Diagnostic struct {
	Kind DiagnosticKind
	Raw  string
}

// aliases maps every known legacy and current token (lowercased) to its
// canonical status. Keys include the lowercase collapse of camelCase tokens
// because lookup folds case before matching.
var aliases = map[string]domain.DeliveryStatus{
	// pending
	"pending":    domain.StatusPending,
	"created":    domain.StatusPending,
	"new":        domain.StatusPending,
	"unassigned": domain.StatusPending,

	// driver_offered
	"driver_offered": domain.StatusDriverOffered,
	"driveroffered":  domain.StatusDriverOffered,
	"offered":        domain.StatusDriverOffered,

	// driver_assigned
	"driver_assigned": domain.StatusDriverAssigned,
	"driverassigned":  domain.StatusDriverAssigned,
	"assigned":        domain.StatusDriverAssigned,
	"accepted":        domain.StatusDriverAssigned,

	// going_to_pickup
	"going_to_pickup":    domain.StatusGoingToPickup,
	"goingtopickup":      domain.StatusGoingToPickup,
	"to_pickup":          domain.StatusGoingToPickup,
	"heading_to_pickup":  domain.StatusGoingToPickup,
	"en_route_to_pickup": domain.StatusGoingToPickup,

	// pickup_arrived
	"pickup_arrived":    domain.StatusPickupArrived,
	"pickuparrived":     domain.StatusPickupArrived,
	"at_pickup":         domain.StatusPickupArrived,
	"atpickup":          domain.StatusPickupArrived,
	"arrived_at_pickup": domain.StatusPickupArrived,

	// package_collected
	"package_collected": domain.StatusPackageCollected,
	"packagecollected":  domain.StatusPackageCollected,
	"picked_up":         domain.StatusPackageCollected,
	"pickedup":          domain.StatusPackageCollected,
	"collected":         domain.StatusPackageCollected,

	// going_to_destination
	"going_to_destination": domain.StatusGoingToDestination,
	"goingtodestination":   domain.StatusGoingToDestination,
	"in_transit":           domain.StatusGoingToDestination,
	"intransit":            domain.StatusGoingToDestination,
	"on_the_way":           domain.StatusGoingToDestination,
	"enroute":              domain.StatusGoingToDestination,

	// at_destination
	"at_destination":         domain.StatusAtDestination,
	"atdestination":          domain.StatusAtDestination,
	"arrived":                domain.StatusAtDestination,
	"arrived_at_destination": domain.StatusAtDestination,

	// delivered
	"delivered": domain.StatusDelivered,
	"completed": domain.StatusDelivered,
	"done":      domain.StatusDelivered,

	// cancelled
	"cancelled": domain.StatusCancelled,
	"canceled":  domain.StatusCancelled,

	// failed
	"failed":          domain.StatusFailed,
	"delivery_failed": domain.StatusFailed,
	"undelivered":     domain.StatusFailed,
}

// Normalize resolves a raw store token to its canonical status.
//
// An empty raw token means the status was never set and normalizes to pending
// with no diagnostic. An unknown token also normalizes to pending but returns
// an UnknownStatus diagnostic so the condition is observable. Normalize never
// fails.
func Normalize(raw string) (domain.DeliveryStatus, *Diagnostic) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return domain.StatusPending, nil
	}

	if s, ok := aliases[strings.ToLower(trimmed)]; ok {
		return s, nil
	}

	return domain.StatusPending, &Diagnostic{Kind: DiagnosticUnknownStatus, Raw: raw}
}

// WireValue returns the current documented token for a canonical status.
// It is the inverse of Normalize for canonical input and never emits a
// legacy alias; this is what the client writes back to the store.
func WireValue(s domain.DeliveryStatus) string {
	return string(s)
}

// successor is the single documented forward step for each active state.
var successor = map[domain.DeliveryStatus]domain.DeliveryStatus{
	domain.StatusDriverOffered:      domain.StatusDriverAssigned,
	domain.StatusDriverAssigned:     domain.StatusGoingToPickup,
	domain.StatusGoingToPickup:      domain.StatusPickupArrived,
	domain.StatusPickupArrived:      domain.StatusPackageCollected,
	domain.StatusPackageCollected:   domain.StatusGoingToDestination,
	domain.StatusGoingToDestination: domain.StatusAtDestination,
	domain.StatusAtDestination:      domain.StatusDelivered,
}

// AllowedNextStates returns the set of statuses a delivery may legally move
// to from current. Terminal states return an empty set. Every non-terminal
// state may cancel; every non-terminal state past pending may also fail.
func AllowedNextStates(current domain.DeliveryStatus) map[domain.DeliveryStatus]bool {
	next := make(map[domain.DeliveryStatus]bool)

	if current.IsTerminal() {
		return next
	}

	if current == domain.StatusPending {
		// A pending delivery can be offered, assigned directly, or cancelled.
		next[domain.StatusDriverOffered] = true
		next[domain.StatusDriverAssigned] = true
		next[domain.StatusCancelled] = true
		return next
	}

	if succ, ok := successor[current]; ok {
		next[succ] = true
	}
	next[domain.StatusCancelled] = true
	next[domain.StatusFailed] = true
	return next
}

// InvalidTransitionError reports a transition request outside the allowed
// next-state set. It is a caller error: the request must be surfaced, not
// retried as if it were transient.
type InvalidTransitionError struct {
	From domain.DeliveryStatus
	To   domain.DeliveryStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %q to %q", e.From, e.To)
}

// ValidateTransition returns nil when requested is a legal next state for
// current, and an *InvalidTransitionError otherwise.
func ValidateTransition(current, requested domain.DeliveryStatus) error {
	if !AllowedNextStates(current)[requested] {
		return &InvalidTransitionError{From: current, To: requested}
	}
	return nil
}

// actionLabels maps each status to the driver action that leaves it.
// States with no driver-initiated action have no entry.
var actionLabels = map[domain.DeliveryStatus]string{
	domain.StatusDriverOffered:      "Accept Delivery",
	domain.StatusDriverAssigned:     "Navigate to Pickup",
	domain.StatusGoingToPickup:      "Arrived at Pickup",
	domain.StatusPickupArrived:      "Confirm Package Collected",
	domain.StatusPackageCollected:   "Navigate to Destination",
	domain.StatusGoingToDestination: "Arrived at Destination",
	domain.StatusAtDestination:      "Complete Delivery",
}

// ActionLabel returns the label of the driver action required to leave the
// given status, or "" for states with no driver-initiated action.
func ActionLabel(s domain.DeliveryStatus) string {
	return actionLabels[s]
}
