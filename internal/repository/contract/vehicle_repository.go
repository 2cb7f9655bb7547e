package contract

import "donkey-remote-be/internal/entity"

// VehicleRepository owns the vehicle id -> state mapping.
type VehicleRepository interface {
	// GetOrCreate returns the entry for id, creating it with defaults on
	// first contact.
	GetOrCreate(id string) *entity.Vehicle
	// Lookup returns the entry without creating or refreshing it.
	Lookup(id string) (*entity.Vehicle, bool)
	List() []*entity.Vehicle
}
