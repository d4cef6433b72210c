package giveaway

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"kazino-api/internal/catalog"
	"kazino-api/internal/model"
)

const testCatalog = `
CASE: Fracture = 100
WEAPON: Cheap Gun|false|consumer|20|Fracture
WEAPON: Red Gun|false|classified|800|Fracture
WEAPON: Dragon Gun|false|covert|2500|Fracture
WEAPON: Gold Knife|true|extraordinary|9000|Fracture
`

func loadSnapshot(t *testing.T, content string) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.Parse(strings.NewReader(content))
	require.NoError(t, err)
	return snap
}

func TestNextStartStrictlyAfterNow(t *testing.T) {
	interval := int64(Interval / time.Second)

	tests := []struct {
		name string
		now  int64
	}{
		{"mid interval", interval*100 + 7200},
		{"just before boundary", interval*100 - 1},
		{"exactly on boundary", interval * 100},
		{"epoch", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := NextStart(tt.now)
			assert.Greater(t, start, tt.now)
			assert.Zero(t, start%interval)
			assert.LessOrEqual(t, start-tt.now, interval)
		})
	}
}

func TestUpcomingSlots(t *testing.T) {
	snap := loadSnapshot(t, testCatalog)
	now := time.Unix(1700000000, 0)

	slots := Upcoming(snap, now)
	require.Len(t, slots, SlotCount)

	interval := int64(Interval / time.Second)
	assert.Equal(t, slots[0].Start+interval, slots[1].Start)
	assert.Equal(t, slots[1].Start+interval, slots[2].Start)

	assert.Equal(t, int64(199), slots[0].Entry)
	assert.Equal(t, int64(349), slots[1].Entry)
	assert.Equal(t, int64(549), slots[2].Entry)

	for _, s := range slots {
		assert.Equal(t, SlotID(s.Start), s.ID)
		assert.NotEmpty(t, s.Reward.Name)
	}
}

// TestRewardDeterminism: repeated computations of a slot's reward are
// identical regardless of when, or in what order, they run.
func TestRewardDeterminism(t *testing.T) {
	snap := loadSnapshot(t, testCatalog)

	rapid.Check(t, func(t *rapid.T) {
		start := rapid.Int64Range(1, 4_000_000_000).Draw(t, "start")

		first := RewardForStart(snap, start)
		for i := 0; i < 3; i++ {
			again := RewardForStart(snap, start)
			if again != first {
				t.Fatalf("reward for start %d not reproducible: %+v vs %+v", start, first, again)
			}
		}
	})
}

func TestRewardDrawsFromHighTiers(t *testing.T) {
	snap := loadSnapshot(t, testCatalog)

	for start := int64(1000); start < 2000; start += 13 {
		r := RewardForStart(snap, start)
		assert.Contains(t, []string{
			model.RarityClassified, model.RarityCovert, model.RarityExtraordinary,
		}, r.Rarity)
	}
}

func TestRewardFallsBackToFullCatalog(t *testing.T) {
	snap := loadSnapshot(t, `
CASE: Fracture = 100
WEAPON: Cheap Gun|false|consumer|20|Fracture
`)
	r := RewardForStart(snap, 12345)
	assert.Equal(t, "Cheap Gun", r.Name)
}

func TestRewardEmptyCatalogPlaceholder(t *testing.T) {
	r := RewardForStart(catalog.Empty(), 12345)
	assert.Equal(t, "Empty", r.Name)
	assert.Equal(t, model.RarityConsumer, r.Rarity)
	assert.Zero(t, r.Price)
	assert.False(t, r.Stattrak)
}

func TestParseSlotID(t *testing.T) {
	start, ok := ParseSlotID("1700000000")
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), start)

	_, ok = ParseSlotID("not-a-slot")
	assert.False(t, ok)
}
