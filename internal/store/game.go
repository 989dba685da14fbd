package store

import (
	"slices"
	"sync"
)

// Rank ladder and tap defaults.
const (
	DefaultTaps          = 100
	DefaultRankMaxPoints = 1000
	rankGrowth           = 1.5
)

// RankNames is the rank ladder, lowest first.
var RankNames = []string{
	"Alpha Pup",
	"Alpha Scout",
	"Alpha Hunter",
	"Alpha Warrior",
	"Alpha Leader",
}

// Rank is the user's position on the rank ladder.
type Rank struct {
	Current   string
	Points    int
	MaxPoints int
}

// GameState is a snapshot of the Game container.
type GameState struct {
	Coins            int64
	Level            int
	Experience       int
	ExperienceToNext int
	Items            []string
	TapsRemaining    int
	Rank             Rank
	AdImpressions    int
	AdClicks         int
}

// Game holds the coin balance and level progression.
type Game struct {
	mu    sync.RWMutex
	state GameState
}

// NewGame creates a Game container at level 1 with a full tap allowance.
func NewGame() *Game {
	return &Game{state: GameState{
		Level:         1,
		TapsRemaining: DefaultTaps,
		Rank:          Rank{Current: RankNames[0], MaxPoints: DefaultRankMaxPoints},
	}}
}

// Snapshot returns a copy of the current state.
func (g *Game) Snapshot() GameState {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := g.state
	s.Items = slices.Clone(s.Items)
	return s
}

// SetCoins sets the absolute coin balance.
func (g *Game) SetCoins(balance int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Coins = balance
}

// AddCoins adds n coins to the balance.
func (g *Game) AddCoins(n int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Coins += n
}

// SetLevel sets the current level.
func (g *Game) SetLevel(level int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Level = level
}

// SetExperience sets experience within the current level.
func (g *Game) SetExperience(xp int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Experience = xp
}

// SetExperienceToNext sets the experience needed for the next level.
func (g *Game) SetExperienceToNext(xp int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.ExperienceToNext = xp
}

// AddItems appends items to the inventory.
func (g *Game) AddItems(items []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.Items = append(g.state.Items, items...)
}

// SetTapsRemaining sets the remaining tap allowance.
func (g *Game) SetTapsRemaining(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.TapsRemaining = n
}

// ResetTaps restores the full tap allowance.
func (g *Game) ResetTaps() {
	g.SetTapsRemaining(DefaultTaps)
}

// RecordAdImpression counts a shown ad.
func (g *Game) RecordAdImpression() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.AdImpressions++
}

// RecordAdClick counts a clicked ad.
func (g *Game) RecordAdClick() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.AdClicks++
}

// AddRankPoints adds points toward the next rank. Reaching the threshold
// promotes one rank, carries the surplus over and raises the threshold by half.
// At the top rank points keep accumulating.
func (g *Game) AddRankPoints(points int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.state.Rank
	total := r.Points + points
	idx := slices.Index(RankNames, r.Current)

	if total >= r.MaxPoints && idx >= 0 && idx < len(RankNames)-1 {
		g.state.Rank = Rank{
			Current:   RankNames[idx+1],
			Points:    total - r.MaxPoints,
			MaxPoints: int(float64(r.MaxPoints) * rankGrowth),
		}
		return
	}

	g.state.Rank.Points = total
}
