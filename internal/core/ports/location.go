package ports

import "github.com/samirrijal/mapscreen/internal/core/domain"

// LocationService reports permission status and the user's position.
type LocationService interface {
	SetDelegate(d LocationDelegate)
	SetDesiredAccuracy(a domain.Accuracy)
	RequestWhenInUseAuthorization()
	AuthorizationStatus() domain.AuthorizationStatus
	StartUpdatingLocation()
	StopUpdatingLocation()
	CurrentCoordinate() (domain.GeoPoint, bool)
}

// LocationDelegate is notified on the main queue when the status changes.
type LocationDelegate interface {
	AuthorizationChanged(status domain.AuthorizationStatus)
}
