package store

import (
	"reflect"
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestAuth_UpdateUserMergesOnlyGivenFields(t *testing.T) {
	a := NewAuth("")
	a.SetSession(User{
		ID:            "1",
		TelegramID:    "123456789",
		Username:      "old",
		CoinBalance:   10,
		Level:         1,
		TapsRemaining: 100,
		ReferralCode:  "ABC123",
	}, "token")

	before := a.Snapshot()
	a.UpdateUser(UserPatch{ID: "1", Username: ptr("new"), CoinBalance: ptr(int64(1000))})
	after := a.Snapshot()

	want := *before.User
	want.Username = "new"
	want.CoinBalance = 1000
	if !reflect.DeepEqual(*after.User, want) {
		t.Errorf("user = %+v, want %+v", *after.User, want)
	}
	if after.Token != "token" {
		t.Errorf("Token = %q, want unchanged", after.Token)
	}
}

func TestAuth_UpdateUserWithoutSession(t *testing.T) {
	a := NewAuth("")
	a.UpdateUser(UserPatch{ID: "7", Level: ptr(3)})

	s := a.Snapshot()
	if s.User == nil {
		t.Fatal("User = nil, want created")
	}
	if s.User.ID != "7" || s.User.Level != 3 {
		t.Errorf("user = %+v, want id 7 level 3", *s.User)
	}
}

func TestAuth_SnapshotIsCopy(t *testing.T) {
	a := NewAuth("t")
	a.SetUser(User{ID: "1", Username: "wolf"})

	s := a.Snapshot()
	s.User.Username = "mutated"

	if got := a.Snapshot().User.Username; got != "wolf" {
		t.Errorf("Username = %q, snapshot mutation leaked", got)
	}
}

func TestAuth_LoadingErrorClear(t *testing.T) {
	a := NewAuth("stored")
	if !a.Snapshot().Authenticated() {
		t.Error("seeded token should count as authenticated")
	}

	a.SetError("boom")
	a.SetLoading(true)
	s := a.Snapshot()
	if !s.IsLoading || s.Error != "" {
		t.Errorf("after SetLoading(true): loading=%v error=%q", s.IsLoading, s.Error)
	}

	a.SetError("Session expired")
	a.Clear()
	s = a.Snapshot()
	if s.User != nil || s.Token != "" || s.IsLoading {
		t.Errorf("after Clear: %+v", s)
	}
	if s.Error != "Session expired" {
		t.Errorf("Error = %q, want kept", s.Error)
	}
}

func TestGame_Setters(t *testing.T) {
	g := NewGame()
	before := g.Snapshot()

	g.SetCoins(1000)
	after := g.Snapshot()

	want := before
	want.Coins = 1000
	if !reflect.DeepEqual(after, want) {
		t.Errorf("SetCoins changed more than Coins: %+v", after)
	}

	g.AddCoins(100)
	g.SetLevel(2)
	g.SetExperience(100)
	g.SetExperienceToNext(200)
	g.AddItems([]string{"item1", "item2"})
	g.RecordAdImpression()
	g.RecordAdClick()
	g.SetTapsRemaining(3)

	s := g.Snapshot()
	if s.Coins != 1100 {
		t.Errorf("Coins = %d, want 1100", s.Coins)
	}
	if s.Level != 2 || s.Experience != 100 || s.ExperienceToNext != 200 {
		t.Errorf("level progress = %d/%d/%d", s.Level, s.Experience, s.ExperienceToNext)
	}
	if !reflect.DeepEqual(s.Items, []string{"item1", "item2"}) {
		t.Errorf("Items = %v", s.Items)
	}
	if s.AdImpressions != 1 || s.AdClicks != 1 {
		t.Errorf("ads = %d/%d, want 1/1", s.AdImpressions, s.AdClicks)
	}

	g.ResetTaps()
	if g.Snapshot().TapsRemaining != DefaultTaps {
		t.Errorf("TapsRemaining = %d, want %d", g.Snapshot().TapsRemaining, DefaultTaps)
	}
}

func TestGame_AddRankPoints(t *testing.T) {
	g := NewGame()

	g.AddRankPoints(400)
	if r := g.Snapshot().Rank; r.Current != "Alpha Pup" || r.Points != 400 {
		t.Errorf("rank = %+v, want Alpha Pup 400", r)
	}

	g.AddRankPoints(700)
	r := g.Snapshot().Rank
	if r.Current != "Alpha Scout" {
		t.Errorf("Current = %q, want Alpha Scout", r.Current)
	}
	if r.Points != 100 {
		t.Errorf("Points = %d, want 100 carried over", r.Points)
	}
	if r.MaxPoints != 1500 {
		t.Errorf("MaxPoints = %d, want 1500", r.MaxPoints)
	}
}

func TestGame_AddRankPointsAtTop(t *testing.T) {
	g := NewGame()
	g.mu.Lock()
	g.state.Rank = Rank{Current: "Alpha Leader", Points: 0, MaxPoints: 100}
	g.mu.Unlock()

	g.AddRankPoints(500)
	r := g.Snapshot().Rank
	if r.Current != "Alpha Leader" || r.Points != 500 {
		t.Errorf("rank = %+v, want Alpha Leader with 500 points", r)
	}
}

func TestAchievements(t *testing.T) {
	a := NewAchievements()
	a.Add(Achievement{ID: "1", Name: "First Win"})
	a.Add(Achievement{ID: "2", Name: "Second Win"})

	list := a.List()
	if len(list) != 2 || list[0].ID != "1" || list[1].ID != "2" {
		t.Errorf("List = %+v, want ids [1 2] in order", list)
	}
	if !a.Has("2") || a.Has("3") {
		t.Error("Has returned wrong result")
	}

	list[0].Name = "mutated"
	if a.List()[0].Name != "First Win" {
		t.Error("List returned shared slice")
	}
}

func TestTransactions(t *testing.T) {
	tx := NewTransactions()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tx.Add(Transaction{ID: "t1", Type: Credit, Amount: 100, Reason: "game_win", Timestamp: ts})
	tx.SetWithdrawals([]Withdrawal{
		{ID: "w1", Amount: 100, Status: "pending"},
		{ID: "w2", Amount: 50, Status: "pending"},
	})

	if !tx.UpdateWithdrawalStatus("w2", "completed", ts) {
		t.Fatal("UpdateWithdrawalStatus(w2) = false")
	}
	if tx.UpdateWithdrawalStatus("missing", "completed", ts) {
		t.Error("UpdateWithdrawalStatus(missing) = true")
	}

	s := tx.Snapshot()
	if len(s.Transactions) != 1 || s.Transactions[0].Reason != "game_win" {
		t.Errorf("Transactions = %+v", s.Transactions)
	}
	if s.Withdrawals[0].Status != "pending" {
		t.Errorf("w1 status = %q, want untouched", s.Withdrawals[0].Status)
	}
	if s.Withdrawals[1].Status != "completed" || !s.Withdrawals[1].UpdatedAt.Equal(ts) {
		t.Errorf("w2 = %+v, want completed at %v", s.Withdrawals[1], ts)
	}
}

func TestSystem(t *testing.T) {
	s := NewSystem()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	s.SetMaintenance(Maintenance{Start: start, End: start.Add(time.Hour)})
	s.SetAvailableUpdate(Update{Version: "1.2.0", Changes: []string{"faster taps"}})
	s.SetConnectionFailed(5)

	st := s.Snapshot()
	if st.Maintenance == nil || !st.Maintenance.Active(start.Add(time.Minute)) {
		t.Error("maintenance should be active one minute in")
	}
	if st.Maintenance.Active(start.Add(2 * time.Hour)) {
		t.Error("maintenance should be over after two hours")
	}
	if st.AvailableUpdate == nil || st.AvailableUpdate.Version != "1.2.0" {
		t.Errorf("AvailableUpdate = %+v", st.AvailableUpdate)
	}
	if !st.ConnectionFailed || st.ReconnectAttempts != 5 {
		t.Errorf("connection = %v/%d, want true/5", st.ConnectionFailed, st.ReconnectAttempts)
	}

	if !st.Online {
		t.Error("new System should start online")
	}
	s.SetOnline(false)
	if s.Snapshot().Online {
		t.Error("Online still true after SetOnline(false)")
	}

	s.ClearConnectionFailed()
	if s.Snapshot().ConnectionFailed {
		t.Error("ConnectionFailed still set after Clear")
	}
}

func TestTiersFor(t *testing.T) {
	tests := []struct {
		count    int
		wantCur  string
		wantNext string
	}{
		{0, "Bronze", "Silver"},
		{4, "Bronze", "Silver"},
		{5, "Silver", "Gold"},
		{19, "Silver", "Gold"},
		{20, "Gold", "Platinum"},
		{50, "Platinum", "Platinum"},
		{500, "Platinum", "Platinum"},
	}

	for _, tt := range tests {
		cur, next := TiersFor(tt.count)
		if cur.Name != tt.wantCur || next.Name != tt.wantNext {
			t.Errorf("TiersFor(%d) = (%s, %s), want (%s, %s)", tt.count, cur.Name, next.Name, tt.wantCur, tt.wantNext)
		}
	}
}

func TestReferrals_ProgressAndAchievements(t *testing.T) {
	r := NewReferrals("AlphaWulfBot")

	if link := r.SetCode("abc 1"); link != "https://t.me/AlphaWulfBot?start=abc+1" {
		t.Errorf("link = %q", link)
	}

	r.SetStats(10, 1500, []Referral{{ID: "r1", Status: "completed"}})
	if got := r.Progress(); got != float64(10-5)/float64(20-5)*100 {
		t.Errorf("Progress = %v", got)
	}

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	unlocked := r.UnlockAchievements(now)
	if len(unlocked) != 2 || unlocked[0].ID != "first_referral" || unlocked[1].ID != "silver_achiever" {
		t.Errorf("unlocked = %+v, want first_referral and silver_achiever", unlocked)
	}
	if again := r.UnlockAchievements(now); len(again) != 0 {
		t.Errorf("second unlock = %+v, want none", again)
	}

	r.ClaimReferral("r1", 150)
	r.ClaimSpecial(SpecialDaily, 75, now)

	s := r.Snapshot()
	if s.Rewards != 1500+150+75 {
		t.Errorf("Rewards = %d", s.Rewards)
	}
	if s.History[0].Status != "claimed" {
		t.Errorf("history status = %q, want claimed", s.History[0].Status)
	}
	if !s.LastClaims[SpecialDaily].Equal(now) {
		t.Errorf("daily claim = %v, want %v", s.LastClaims[SpecialDaily], now)
	}
}

func TestReferrals_ProgressAtTopTier(t *testing.T) {
	r := NewReferrals("bot")
	r.SetStats(75, 0, nil)
	if got := r.Progress(); got != 100 {
		t.Errorf("Progress = %v, want 100", got)
	}
}

func TestSpecialRewardValid(t *testing.T) {
	for _, k := range []SpecialReward{SpecialDaily, SpecialWeekly, SpecialMonthly} {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
	}
	if SpecialReward("yearly").Valid() {
		t.Error("yearly should be invalid")
	}
}
