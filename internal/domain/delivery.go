package domain

import "time"

// DeliveryStatus is the canonical lifecycle state of a delivery. The string
// value of each constant is the current wire vocabulary written back to the
// store; historical aliases are resolved by the status package.
type DeliveryStatus string

const (
	StatusPending            DeliveryStatus = "pending"
	StatusDriverOffered      DeliveryStatus = "driver_offered"
	StatusDriverAssigned     DeliveryStatus = "driver_assigned"
	StatusGoingToPickup      DeliveryStatus = "going_to_pickup"
	StatusPickupArrived      DeliveryStatus = "pickup_arrived"
	StatusPackageCollected   DeliveryStatus = "package_collected"
	StatusGoingToDestination DeliveryStatus = "going_to_destination"
	StatusAtDestination      DeliveryStatus = "at_destination"
	StatusDelivered          DeliveryStatus = "delivered"
	StatusCancelled          DeliveryStatus = "cancelled"
	StatusFailed             DeliveryStatus = "failed"
)

// IsTerminal reports whether no further transitions are possible.
func (s DeliveryStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusFailed
}

// PaymentMethod is the two-valued payment domain relevant to remittance.
// Only cash deliveries contribute to the driver's pending remittance.
type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
)

// RequiresRemittance reports whether collected payment must be remitted.
func (m PaymentMethod) RequiresRemittance() bool {
	return m == PaymentMethodCash
}

// StopRole distinguishes pickup stops from drop-off stops.
type StopRole string

const (
	StopRolePickup  StopRole = "pickup"
	StopRoleDropoff StopRole = "dropoff"
)

// StopStatus is the reduced per-stop lifecycle for multi-stop deliveries.
// Per stop it only ever moves forward: pending -> in_progress -> completed|failed.
type StopStatus string

const (
	StopStatusPending    StopStatus = "pending"
	StopStatusInProgress StopStatus = "in_progress"
	StopStatusCompleted  StopStatus = "completed"
	StopStatusFailed     StopStatus = "failed"
)

// DeliveryStop is one ordered stop of a multi-stop delivery.
type DeliveryStop struct {
	DeliveryID string
	Index      int
	Role       StopRole
	Status     StopStatus
	Lat        float64
	Lng        float64
	ProofURL   string
	ProofNote  string
}

// Delivery is the client's read-mostly copy of a delivery record. The store
// is authoritative; the client only originates transitions and proof
// submissions. RawStatus carries the store's token untouched so callers can
// normalize it exactly once at the service boundary.
type Delivery struct {
	ID          string
	DriverID    string // empty until assignment
	RawStatus   string
	Status      DeliveryStatus
	PickupLat   float64
	PickupLng   float64
	DeliveryLat float64
	DeliveryLng float64

	PickupContactName  string
	PickupContactPhone string
	DropoffContactName string
	DropoffContactPhone string

	PackageDescription string
	PackageWeightKg    float64

	TotalPrice    float64
	DeliveryFee   float64
	ServiceFee    float64
	PaymentMethod PaymentMethod

	IsMultiStop      bool
	TotalStops       int
	CurrentStopIndex int
	Stops            []DeliveryStop

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt time.Time
}

// CurrentStop returns the stop at CurrentStopIndex, or nil when the delivery
// is not multi-stop or the index is out of range.
func (d *Delivery) CurrentStop() *DeliveryStop {
	if !d.IsMultiStop || d.CurrentStopIndex < 0 || d.CurrentStopIndex >= len(d.Stops) {
		return nil
	}
	return &d.Stops[d.CurrentStopIndex]
}

// ProofOfDelivery is the payload submitted to the store when a delivery (or a
// stop of it) completes.
type ProofOfDelivery struct {
	DeliveryID    string
	StopIndex     int // -1 for single-stop deliveries
	PhotoURL      string
	SignatureURL  string
	RecipientName string
	Note          string
	CompletedAt   time.Time
}
