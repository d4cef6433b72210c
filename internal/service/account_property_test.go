// Property-based tests for the account helpers.
package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestClaimRemainingProperty checks the cooldown computation: the
// remaining duration is zero exactly when the cooldown elapsed, and
// otherwise accounts for the full gap.
func TestClaimRemainingProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lastClaim := rapid.Int64Range(0, 2_000_000_000).Draw(t, "lastClaim")
		elapsed := rapid.Int64Range(0, 7200).Draw(t, "elapsed")
		cooldown := rapid.Int64Range(1, 3600).Draw(t, "cooldown")

		now := lastClaim + elapsed
		remaining := claimRemaining(lastClaim, now, cooldown)

		if elapsed >= cooldown {
			if remaining != 0 {
				t.Fatalf("cooldown elapsed (gap %ds >= %ds) but remaining=%v", elapsed, cooldown, remaining)
			}
		} else {
			expected := time.Duration(cooldown-elapsed) * time.Second
			if remaining != expected {
				t.Fatalf("remaining mismatch: expected %v, got %v", expected, remaining)
			}
		}
	})
}

// TestClaimRemainingNeverClaimed checks that a fresh account (zero
// last_claim) can claim immediately for any realistic clock.
func TestClaimRemainingNeverClaimed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		now := rapid.Int64Range(3600, 2_000_000_000).Draw(t, "now")
		cooldown := rapid.Int64Range(1, 3600).Draw(t, "cooldown")

		if remaining := claimRemaining(0, now, cooldown); remaining != 0 {
			t.Fatalf("never-claimed account must be eligible, got remaining=%v", remaining)
		}
	})
}

func TestDayKey(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want int
	}{
		{
			name: "plain utc date",
			t:    time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
			want: 20260831,
		},
		{
			name: "midnight boundary",
			t:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			want: 20260101,
		},
		{
			name: "non-utc zone normalizes to utc day",
			t:    time.Date(2026, 8, 31, 22, 0, 0, 0, time.FixedZone("UTC+5", 5*3600)),
			want: 20260831,
		},
		{
			name: "zone crossing the day line",
			t:    time.Date(2026, 8, 31, 2, 0, 0, 0, time.FixedZone("UTC+5", 5*3600)),
			want: 20260830,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DayKey(tt.t))
		})
	}
}

// TestDayKeyMonotonic checks that the key never decreases as time moves
// forward, the ordering the lazy reset relies on.
func TestDayKeyMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := time.Unix(rapid.Int64Range(0, 2_000_000_000).Draw(t, "base"), 0)
		step := time.Duration(rapid.Int64Range(0, 90*24*3600).Draw(t, "step")) * time.Second

		if DayKey(base) > DayKey(base.Add(step)) {
			t.Fatalf("day key decreased: %d at %v, %d at %v", DayKey(base), base, DayKey(base.Add(step)), base.Add(step))
		}
	})
}

func TestNormalizeNickname(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "alice", want: "alice"},
		{name: "trimmed", in: "  alice  ", want: "alice"},
		{name: "digits and separators", in: "player_1-a", want: "player_1-a"},
		{name: "inner space", in: "Neo 42", want: "Neo 42"},
		{name: "unicode letters", in: "Ника", want: "Ника"},
		{name: "too short", in: "a", wantErr: true},
		{name: "only spaces", in: "   ", wantErr: true},
		{name: "too long", in: "abcdefghijklmnopqrstuvwxy", wantErr: true},
		{name: "punctuation", in: "drop;table", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeNickname(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidNickname)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateTokenShape(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := generateToken()
		require.NoError(t, err)
		assert.Len(t, token, 32, "24 bytes base64url-encoded without padding")
		assert.NotContains(t, token, "=")
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "/")

		_, dup := seen[token]
		assert.False(t, dup, "tokens must not repeat")
		seen[token] = struct{}{}
	}
}
