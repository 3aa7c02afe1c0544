// Package device models the location hardware of the device the map screen
// runs on. Fixes and permission changes arrive from HTTP or NATS.
package device

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samirrijal/mapscreen/internal/core/domain"
	"github.com/samirrijal/mapscreen/internal/core/ports"
)

var (
	// ErrInvalidStatus is returned for an unknown authorization status.
	ErrInvalidStatus = errors.New("unknown authorization status")
	// ErrInvalidCoordinate is returned for a fix outside WGS 84 ranges.
	ErrInvalidCoordinate = errors.New("coordinate out of range")
)

// LocationManager implements ports.LocationService.
//
// Delegate callbacks are posted to the main queue, never called inline.
type LocationManager struct {
	main ports.MainQueue

	mu            sync.RWMutex
	delegate      ports.LocationDelegate
	status        domain.AuthorizationStatus
	accuracy      domain.Accuracy
	promptPending bool
	updating      bool
	fix           *domain.GeoPoint
	fixAt         time.Time
}

// NewLocationManager creates a manager whose status is not determined.
func NewLocationManager(main ports.MainQueue) *LocationManager {
	return &LocationManager{
		main:     main,
		status:   domain.AuthorizationNotDetermined,
		accuracy: domain.AccuracyHundredMeters,
	}
}

func (m *LocationManager) SetDelegate(d ports.LocationDelegate) {
	m.mu.Lock()
	m.delegate = d
	m.mu.Unlock()
}

func (m *LocationManager) SetDesiredAccuracy(a domain.Accuracy) {
	m.mu.Lock()
	m.accuracy = a
	m.mu.Unlock()
}

// RequestWhenInUseAuthorization raises the permission prompt if the user has
// not decided yet. The answer arrives through SetAuthorizationStatus.
func (m *LocationManager) RequestWhenInUseAuthorization() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == domain.AuthorizationNotDetermined {
		m.promptPending = true
		slog.Info("location permission prompt shown")
	}
}

func (m *LocationManager) AuthorizationStatus() domain.AuthorizationStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *LocationManager) StartUpdatingLocation() {
	m.mu.Lock()
	m.updating = true
	m.mu.Unlock()
}

func (m *LocationManager) StopUpdatingLocation() {
	m.mu.Lock()
	m.updating = false
	m.mu.Unlock()
}

// CurrentCoordinate returns the latest fix received while updating.
func (m *LocationManager) CurrentCoordinate() (domain.GeoPoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.fix == nil {
		return domain.GeoPoint{}, false
	}
	return *m.fix, true
}

// SetAuthorizationStatus records the user's answer. The delegate is notified
// on the main queue when the status actually changes.
func (m *LocationManager) SetAuthorizationStatus(status domain.AuthorizationStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	m.mu.Lock()
	changed := m.status != status
	m.status = status
	m.promptPending = false
	if !status.Granted() {
		m.updating = false
	}
	delegate := m.delegate
	m.mu.Unlock()

	if changed && delegate != nil {
		m.main.Async(func() { delegate.AuthorizationChanged(status) })
	}
	return nil
}

// UpdateLocation delivers a fix. It is dropped unless updates were started;
// the return value reports whether it was accepted.
func (m *LocationManager) UpdateLocation(p domain.GeoPoint) (bool, error) {
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return false, ErrInvalidCoordinate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.updating {
		return false, nil
	}
	m.fix = &p
	m.fixAt = time.Now()
	return true, nil
}

// Status is a summary of the manager for diagnostics.
type Status struct {
	Authorization domain.AuthorizationStatus `json:"authorization"`
	Accuracy      domain.Accuracy            `json:"accuracy"`
	PromptPending bool                       `json:"prompt_pending"`
	Updating      bool                       `json:"updating"`
	Location      *domain.GeoPoint           `json:"location,omitempty"`
	LocationAt    *time.Time                 `json:"location_at,omitempty"`
}

// Snapshot returns the manager's state.
func (m *LocationManager) Snapshot() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Status{
		Authorization: m.status,
		Accuracy:      m.accuracy,
		PromptPending: m.promptPending,
		Updating:      m.updating,
	}
	if m.fix != nil {
		p, at := *m.fix, m.fixAt
		st.Location = &p
		st.LocationAt = &at
	}
	return st
}

// PromptPending reports whether a permission prompt awaits an answer.
func (m *LocationManager) PromptPending() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.promptPending
}
