package store

import (
	"slices"
	"sync"
	"time"
)

// Achievement is an unlocked achievement.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Icon        string
	UnlockedAt  time.Time
}

// Achievements holds unlocked achievements in arrival order.
type Achievements struct {
	mu   sync.RWMutex
	list []Achievement
}

// NewAchievements creates an empty container.
func NewAchievements() *Achievements {
	return &Achievements{}
}

// List returns a copy of the achievements.
func (a *Achievements) List() []Achievement {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.list)
}

// Add appends an achievement.
func (a *Achievements) Add(ach Achievement) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.list = append(a.list, ach)
}

// Set replaces the whole list, e.g. after a REST reload.
func (a *Achievements) Set(list []Achievement) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.list = slices.Clone(list)
}

// Has reports whether an achievement with id is present.
func (a *Achievements) Has(id string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.ContainsFunc(a.list, func(x Achievement) bool { return x.ID == id })
}
