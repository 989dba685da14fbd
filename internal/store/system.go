package store

import (
	"slices"
	"sync"
	"time"
)

// Maintenance is an announced maintenance window.
type Maintenance struct {
	Start time.Time
	End   time.Time
}

// Active reports whether now falls inside the window.
func (m Maintenance) Active(now time.Time) bool {
	return !now.Before(m.Start) && now.Before(m.End)
}

// Update is an announced client release.
type Update struct {
	Version string
	Changes []string
}

// SystemState is a snapshot of the System container.
type SystemState struct {
	Maintenance       *Maintenance
	AvailableUpdate   *Update
	ConnectionFailed  bool
	ReconnectAttempts int
	Online            bool
}

// System holds server notices and connection health.
type System struct {
	mu    sync.RWMutex
	state SystemState
}

// NewSystem creates an empty container.
func NewSystem() *System {
	return &System{state: SystemState{Online: true}}
}

// Snapshot returns a copy of the current state.
func (s *System) Snapshot() SystemState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	if st.Maintenance != nil {
		m := *st.Maintenance
		st.Maintenance = &m
	}
	if st.AvailableUpdate != nil {
		u := *st.AvailableUpdate
		u.Changes = slices.Clone(u.Changes)
		st.AvailableUpdate = &u
	}
	return st
}

// SetMaintenance records a maintenance window.
func (s *System) SetMaintenance(m Maintenance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Maintenance = &m
}

// SetAvailableUpdate records a newer client version.
func (s *System) SetAvailableUpdate(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Changes = slices.Clone(u.Changes)
	s.state.AvailableUpdate = &u
}

// SetConnectionFailed marks the socket as given up after attempts tries.
func (s *System) SetConnectionFailed(attempts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ConnectionFailed = true
	s.state.ReconnectAttempts = attempts
}

// ClearConnectionFailed resets the connection health flag.
func (s *System) ClearConnectionFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ConnectionFailed = false
	s.state.ReconnectAttempts = 0
}

// SetOnline records the host's network status.
func (s *System) SetOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Online = online
}
