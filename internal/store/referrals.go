package store

import (
	"fmt"
	"net/url"
	"slices"
	"sync"
	"time"
)

// ReferralRewards are the coin rewards a tier grants.
type ReferralRewards struct {
	PerReferral int64
	Daily       int64
	Weekly      int64
	Monthly     int64
}

// ReferralAchievement is unlocked by reaching a referral count.
type ReferralAchievement struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Reward      int64     `json:"reward"`
	Requirement int       `json:"requirement"`
	Icon        string    `json:"icon"`
	UnlockedAt  time.Time `json:"unlockedAt"`
}

// ReferralTier is a step on the referral ladder.
type ReferralTier struct {
	Level             int
	Name              string
	RequiredReferrals int
	BonusMultiplier   float64
	Rewards           ReferralRewards
	Achievements      []ReferralAchievement
}

// ReferralTiers is the referral ladder, lowest first.
var ReferralTiers = []ReferralTier{
	{
		Level: 1, Name: "Bronze", RequiredReferrals: 0, BonusMultiplier: 1,
		Rewards: ReferralRewards{PerReferral: 100, Daily: 50, Weekly: 200, Monthly: 500},
		Achievements: []ReferralAchievement{
			{ID: "first_referral", Name: "First Referral", Description: "Get your first referral", Reward: 100, Requirement: 1, Icon: "🎯"},
		},
	},
	{
		Level: 2, Name: "Silver", RequiredReferrals: 5, BonusMultiplier: 1.5,
		Rewards: ReferralRewards{PerReferral: 150, Daily: 75, Weekly: 300, Monthly: 750},
		Achievements: []ReferralAchievement{
			{ID: "silver_achiever", Name: "Silver Achiever", Description: "Reach Silver tier", Reward: 500, Requirement: 5, Icon: "🥈"},
		},
	},
	{
		Level: 3, Name: "Gold", RequiredReferrals: 20, BonusMultiplier: 2,
		Rewards: ReferralRewards{PerReferral: 200, Daily: 100, Weekly: 400, Monthly: 1000},
		Achievements: []ReferralAchievement{
			{ID: "gold_master", Name: "Gold Master", Description: "Reach Gold tier", Reward: 1000, Requirement: 20, Icon: "🥇"},
		},
	},
	{
		Level: 4, Name: "Platinum", RequiredReferrals: 50, BonusMultiplier: 3,
		Rewards: ReferralRewards{PerReferral: 300, Daily: 150, Weekly: 600, Monthly: 1500},
		Achievements: []ReferralAchievement{
			{ID: "platinum_elite", Name: "Platinum Elite", Description: "Reach Platinum tier", Reward: 2000, Requirement: 50, Icon: "💎"},
		},
	},
}

// SpecialReward is a periodic referral bonus.
type SpecialReward string

const (
	SpecialDaily   SpecialReward = "daily"
	SpecialWeekly  SpecialReward = "weekly"
	SpecialMonthly SpecialReward = "monthly"
)

// Valid reports whether k is a known special reward.
func (k SpecialReward) Valid() bool {
	switch k {
	case SpecialDaily, SpecialWeekly, SpecialMonthly:
		return true
	}
	return false
}

// Referral is one entry of the referral history.
type Referral struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Status    string    `json:"status"` // pending, completed, claimed
	Reward    int64     `json:"reward"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReferralsState is a snapshot of the Referrals container.
type ReferralsState struct {
	Code         string
	Link         string
	Count        int
	Rewards      int64
	History      []Referral
	CurrentTier  ReferralTier
	NextTier     ReferralTier
	Achievements []ReferralAchievement
	LastClaims   map[SpecialReward]time.Time
}

// Referrals holds referral progress.
type Referrals struct {
	botUsername string

	mu    sync.RWMutex
	state ReferralsState
}

// NewReferrals creates a container; botUsername is used to build invite links.
func NewReferrals(botUsername string) *Referrals {
	return &Referrals{
		botUsername: botUsername,
		state: ReferralsState{
			CurrentTier: ReferralTiers[0],
			NextTier:    ReferralTiers[1],
			LastClaims:  make(map[SpecialReward]time.Time),
		},
	}
}

// Snapshot returns a copy of the current state.
func (r *Referrals) Snapshot() ReferralsState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.state
	s.History = slices.Clone(s.History)
	s.Achievements = slices.Clone(s.Achievements)
	s.LastClaims = make(map[SpecialReward]time.Time, len(r.state.LastClaims))
	for k, v := range r.state.LastClaims {
		s.LastClaims[k] = v
	}
	return s
}

// SetCode stores the referral code and derives the invite link.
func (r *Referrals) SetCode(code string) string {
	link := fmt.Sprintf("https://t.me/%s?start=%s", r.botUsername, url.QueryEscape(code))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Code = code
	r.state.Link = link
	return link
}

// SetStats replaces count, rewards and history and recomputes the tiers.
func (r *Referrals) SetStats(count int, rewards int64, history []Referral) {
	cur, next := TiersFor(count)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Count = count
	r.state.Rewards = rewards
	r.state.History = slices.Clone(history)
	r.state.CurrentTier = cur
	r.state.NextTier = next
}

// UnlockAchievements records every tier achievement whose requirement the
// current count meets and that is not yet unlocked. It returns the new ones.
func (r *Referrals) UnlockAchievements(now time.Time) []ReferralAchievement {
	r.mu.Lock()
	defer r.mu.Unlock()

	var unlocked []ReferralAchievement
	for _, tier := range ReferralTiers {
		for _, a := range tier.Achievements {
			if a.Requirement > r.state.Count {
				continue
			}
			have := slices.ContainsFunc(r.state.Achievements, func(x ReferralAchievement) bool { return x.ID == a.ID })
			if have {
				continue
			}
			a.UnlockedAt = now
			unlocked = append(unlocked, a)
		}
	}
	r.state.Achievements = append(r.state.Achievements, unlocked...)
	return unlocked
}

// ClaimReferral adds reward and marks the referral as claimed.
func (r *Referrals) ClaimReferral(id string, reward int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Rewards += reward
	for i := range r.state.History {
		if r.state.History[i].ID == id {
			r.state.History[i].Status = "claimed"
		}
	}
}

// ClaimSpecial adds reward and records when the special reward was claimed.
func (r *Referrals) ClaimSpecial(kind SpecialReward, reward int64, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Rewards += reward
	r.state.LastClaims[kind] = at
}

// Progress returns the percentage toward the next tier, clamped to [0, 100].
// At the top tier it is 100.
func (r *Referrals) Progress() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cur, next := r.state.CurrentTier, r.state.NextTier
	span := next.RequiredReferrals - cur.RequiredReferrals
	if span <= 0 {
		return 100
	}
	p := float64(r.state.Count-cur.RequiredReferrals) / float64(span) * 100
	return min(max(p, 0), 100)
}

// TiersFor returns the highest tier reached with count referrals and the tier
// after it. At the top, next equals current.
func TiersFor(count int) (current, next ReferralTier) {
	current = ReferralTiers[0]
	next = ReferralTiers[len(ReferralTiers)-1]
	for i, t := range ReferralTiers {
		if t.RequiredReferrals <= count {
			current = t
			continue
		}
		next = ReferralTiers[i]
		return current, next
	}
	return current, current
}
