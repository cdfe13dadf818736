package domain

// DriverStatus represents the current availability of a driver.
type DriverStatus string

const (
	DriverStatusOnline     DriverStatus = "ONLINE"
	DriverStatusOffline    DriverStatus = "OFFLINE"
	DriverStatusOnDelivery DriverStatus = "ON_DELIVERY"
)

// VehicleType affects the commission rate applied to earnings.
type VehicleType string

const (
	VehicleMotorcycle VehicleType = "MOTORCYCLE"
	VehicleCar        VehicleType = "CAR"
	VehicleVan        VehicleType = "VAN"
)

// Driver represents a courier driver in the system.
type Driver struct {
	ID      string
	Name    string
	Phone   string
	Status  DriverStatus
	Vehicle VehicleType
}
