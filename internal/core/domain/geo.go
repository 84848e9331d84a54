package domain

// Coordinate represents a geographic coordinate (WGS 84).
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// UserLocation is the device position plus its human-readable address.
// Location is nil when no fix could be obtained.
type UserLocation struct {
	Location *Coordinate `json:"location,omitempty"`
	Address  string      `json:"address"`
}

// Available reports whether a coordinate was obtained.
func (u UserLocation) Available() bool {
	return u.Location != nil
}

// Address placeholders used when a lookup degrades.
const (
	AddressNotFound       = "Location not found"
	AddressUnavailable    = "Location unavailable"
	AddressCouldNotLocate = "Could not get location"
)
