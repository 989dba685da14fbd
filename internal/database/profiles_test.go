package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/tapsync/internal/store"
)

// assign copies vals into the Scan destinations.
func assign(dest, vals []any) error {
	if len(dest) != len(vals) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(vals))
	}
	for i, v := range vals {
		d := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			d.Set(reflect.Zero(d.Type()))
			continue
		}
		d.Set(reflect.ValueOf(v))
	}
	return nil
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.vals)
}

type fakeRows struct {
	rows   [][]any
	i      int
	err    error
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.i-1], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.i >= len(r.rows) {
		return false
	}
	r.i++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(dest, r.rows[r.i-1])
}

// fakeQuerier records the last statement and returns canned results.
type fakeQuerier struct {
	row  fakeRow
	rows *fakeRows

	sql  string
	args []any
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql, q.args = sql, args
	return q.rows, nil
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.sql, q.args = sql, args
	return q.row
}

func strp(s string) *string { return &s }

func userRow(username *string) []any {
	return []any{"u1", "123456789", username, strp("Vlad"), nil, int64(1500), int64(9000), 3, 42, "WOLF42"}
}

func TestProfiles_User(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{vals: userRow(strp("wolf"))}}
	p := NewProfiles(q)

	u, err := p.User(context.Background(), "u1")
	if err != nil {
		t.Fatalf("User: %v", err)
	}

	want := store.User{
		ID: "u1", TelegramID: "123456789", Username: "wolf", FirstName: "Vlad",
		CoinBalance: 1500, TotalEarned: 9000, Level: 3, TapsRemaining: 42, ReferralCode: "WOLF42",
	}
	if u != want {
		t.Errorf("user = %+v, want %+v", u, want)
	}
	if !strings.Contains(q.sql, "FROM users WHERE id = $1") || q.args[0] != "u1" {
		t.Errorf("query = %q %v", q.sql, q.args)
	}
}

func TestProfiles_UserNotFound(t *testing.T) {
	p := NewProfiles(&fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}})

	if _, err := p.User(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestProfiles_UpdateUser(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{vals: userRow(nil)}}
	p := NewProfiles(q)

	level := 4
	u, err := p.UpdateUser(context.Background(), store.UserPatch{ID: "u1", Level: &level})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if u.Username != "" {
		t.Errorf("Username = %q, want empty for NULL", u.Username)
	}

	if !strings.Contains(q.sql, "COALESCE($3, level)") || !strings.Contains(q.sql, "RETURNING") {
		t.Errorf("sql = %q", q.sql)
	}
	if len(q.args) != 5 || q.args[0] != "u1" {
		t.Fatalf("args = %v", q.args)
	}
	if got := q.args[2].(*int); got == nil || *got != 4 {
		t.Errorf("level arg = %v", q.args[2])
	}
	if q.args[1].(*string) != nil {
		t.Errorf("username arg = %v, want nil", q.args[1])
	}
}

func TestProfiles_Transactions(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := &fakeRows{rows: [][]any{
		{"t2", "debit", int64(50), "withdrawal", ts.Add(time.Hour)},
		{"t1", "credit", int64(100), "game_win", ts},
	}}
	q := &fakeQuerier{rows: rows}

	txs, err := NewProfiles(q).Transactions(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}

	want := []store.Transaction{
		{ID: "t2", Type: store.Debit, Amount: 50, Reason: "withdrawal", Timestamp: ts.Add(time.Hour)},
		{ID: "t1", Type: store.Credit, Amount: 100, Reason: "game_win", Timestamp: ts},
	}
	if !reflect.DeepEqual(txs, want) {
		t.Errorf("txs = %+v, want %+v", txs, want)
	}
	if q.args[1] != 10 {
		t.Errorf("limit = %v, want default 10", q.args[1])
	}
	if !rows.closed {
		t.Error("rows not closed")
	}
}

func TestProfiles_AchievementsRowsError(t *testing.T) {
	rows := &fakeRows{err: errors.New("conn reset")}
	_, err := NewProfiles(&fakeQuerier{rows: rows}).Achievements(context.Background(), "u1")
	if err == nil || !strings.Contains(err.Error(), "conn reset") {
		t.Errorf("err = %v, want iterate error", err)
	}
}

func TestProfiles_Achievements(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := &fakeRows{rows: [][]any{{"a1", "First Tap", "Tap once", "👆", ts}}}

	list, err := NewProfiles(&fakeQuerier{rows: rows}).Achievements(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Achievements: %v", err)
	}
	if len(list) != 1 || list[0].Name != "First Tap" || !list[0].UnlockedAt.Equal(ts) {
		t.Errorf("list = %+v", list)
	}
}
