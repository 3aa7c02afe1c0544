package domain

import "time"

// TransportType is the travel mode of a directions request.
type TransportType string

const (
	TransportAutomobile TransportType = "automobile"
	TransportWalking    TransportType = "walking"
)

// DirectionsRequest asks a routing service for a path between two points.
type DirectionsRequest struct {
	ID          string        `json:"id"`
	Origin      GeoPoint      `json:"origin"`
	Destination GeoPoint      `json:"destination"`
	Transport   TransportType `json:"transport"`
}

// Route is one candidate path returned by a directions service.
type Route struct {
	Geometry           GeoLineString `json:"geometry"`
	DistanceMeters     float64       `json:"distance_meters"`
	ExpectedTravelTime time.Duration `json:"expected_travel_time"`
}

// DirectionsResponse holds candidate routes, best first.
type DirectionsResponse struct {
	Routes []Route `json:"routes"`
}

// AuthorizationStatus is the location permission granted to the screen.
type AuthorizationStatus string

const (
	AuthorizationNotDetermined       AuthorizationStatus = "not_determined"
	AuthorizationRestricted          AuthorizationStatus = "restricted"
	AuthorizationDenied              AuthorizationStatus = "denied"
	AuthorizationAuthorizedAlways    AuthorizationStatus = "authorized_always"
	AuthorizationAuthorizedWhenInUse AuthorizationStatus = "authorized_when_in_use"
)

// Granted reports whether location updates may be started.
func (s AuthorizationStatus) Granted() bool {
	return s == AuthorizationAuthorizedWhenInUse || s == AuthorizationAuthorizedAlways
}

// Valid reports whether s is a known status.
func (s AuthorizationStatus) Valid() bool {
	switch s {
	case AuthorizationNotDetermined, AuthorizationRestricted, AuthorizationDenied,
		AuthorizationAuthorizedAlways, AuthorizationAuthorizedWhenInUse:
		return true
	}
	return false
}

// Accuracy is the desired location accuracy.
type Accuracy string

const (
	AccuracyBest          Accuracy = "best"
	AccuracyTenMeters     Accuracy = "ten_meters"
	AccuracyHundredMeters Accuracy = "hundred_meters"
)

// RouteState is the state of the screen's single route slot.
type RouteState string

const (
	RouteStateEmpty     RouteState = "empty"
	RouteStatePending   RouteState = "pending"
	RouteStateDisplayed RouteState = "displayed"
)

// Outcome is how a directions request ended.
type Outcome string

const (
	OutcomeDisplayed Outcome = "displayed"
	OutcomeNoRoute   Outcome = "no_route"
	OutcomeFailed    Outcome = "failed"
	OutcomeStale     Outcome = "stale"
)

// RouteOutcome records one completed directions request.
type RouteOutcome struct {
	RequestID      string    `json:"request_id"`
	Seq            uint64    `json:"seq"`
	Origin         GeoPoint  `json:"origin"`
	Destination    GeoPoint  `json:"destination"`
	Outcome        Outcome   `json:"outcome"`
	Error          string    `json:"error,omitempty"`
	PointCount     int       `json:"point_count"`
	DistanceMeters float64   `json:"distance_meters"`
	RequestedAt    time.Time `json:"requested_at"`
	CompletedAt    time.Time `json:"completed_at"`
}
