package service

import "errors"

var (
	// ErrInvalidDeliveryID is returned when a delivery ID is empty.
	ErrInvalidDeliveryID = errors.New("invalid delivery id")

	// ErrInvalidDriverID is returned when a driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidAmount is returned when a money amount is not positive.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidRemittanceID is returned when a remittance ID is empty.
	ErrInvalidRemittanceID = errors.New("invalid remittance id")

	// ErrTransitionInFlight is returned when a second transition is requested
	// for a delivery whose previous transition has not yet resolved.
	ErrTransitionInFlight = errors.New("transition already in flight for this delivery")

	// ErrDeliveryLocked is returned when another writer holds the delivery's
	// transition lock.
	ErrDeliveryLocked = errors.New("delivery is locked by another writer")

	// ErrDeliveryTerminal is returned when an operation targets a delivery
	// that has already reached a terminal state.
	ErrDeliveryTerminal = errors.New("delivery is in a terminal state")

	// ErrProofIncomplete is returned when a proof-of-delivery payload lacks
	// both a photo and a signature.
	ErrProofIncomplete = errors.New("proof of delivery requires a photo or signature")

	// ErrNoRouteSession is returned when a position fix arrives for a
	// delivery with no active tracking session.
	ErrNoRouteSession = errors.New("no active tracking session for delivery")

	// ErrRemittanceNotSettleable is returned when settlement is requested
	// for a batch that is not pending.
	ErrRemittanceNotSettleable = errors.New("remittance is not in a settleable state")
)
