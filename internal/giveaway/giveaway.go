// Package giveaway computes the rolling schedule of time-boxed giveaways
// and their deterministic rewards. A slot's reward is a pure function of
// its start timestamp, so any process reproduces the identical reward for
// a given slot id at any time.
package giveaway

import (
	"math/rand"
	"strconv"
	"time"

	"kazino-api/internal/catalog"
	"kazino-api/internal/drop"
	"kazino-api/internal/model"
)

const (
	// Interval is the fixed cadence between slot starts, aligned to the
	// epoch.
	Interval = 5 * time.Hour

	// SlotCount is how many upcoming slots are exposed at a time.
	SlotCount = 3
)

// entryFees is the fee schedule by slot position.
var entryFees = []int64{199, 349, 549}

// rewardRarities is the tier subset giveaway rewards draw from.
var rewardRarities = map[string]struct{}{
	model.RarityClassified:    {},
	model.RarityCovert:        {},
	model.RarityExtraordinary: {},
}

// Reward is the deterministic prize attached to a slot. Unlike minted
// items it carries no id; it only becomes an item if the slot is won.
type Reward struct {
	Name     string `json:"name"`
	Rarity   string `json:"rarity"`
	Price    int64  `json:"price"`
	Stattrak bool   `json:"stattrak"`
}

// Slot is one scheduled giveaway.
type Slot struct {
	ID     string `json:"id"`
	Start  int64  `json:"start"`
	Entry  int64  `json:"entry"`
	Reward Reward `json:"reward"`
}

// NextStart returns the smallest epoch-aligned slot start strictly
// greater than now.
func NextStart(now int64) int64 {
	interval := int64(Interval / time.Second)
	return (now/interval + 1) * interval
}

// Upcoming returns the next SlotCount slots as of now, each with its
// positional entry fee and deterministic reward.
func Upcoming(snap *catalog.Snapshot, now time.Time) []Slot {
	next := NextStart(now.Unix())
	interval := int64(Interval / time.Second)

	slots := make([]Slot, 0, SlotCount)
	for i := 0; i < SlotCount; i++ {
		start := next + int64(i)*interval
		fee := entryFees[len(entryFees)-1]
		if i < len(entryFees) {
			fee = entryFees[i]
		}
		slots = append(slots, Slot{
			ID:     SlotID(start),
			Start:  start,
			Entry:  fee,
			Reward: RewardForStart(snap, start),
		})
	}
	return slots
}

// SlotID renders a slot's identifier: its start timestamp in seconds.
func SlotID(start int64) string {
	return strconv.FormatInt(start, 10)
}

// ParseSlotID recovers the start timestamp from a slot id.
func ParseSlotID(id string) (int64, bool) {
	start, err := strconv.ParseInt(id, 10, 64)
	return start, err == nil
}

// RewardForStart computes the slot's reward from its start timestamp
// alone. The generator is seeded with the start time, so repeated calls,
// including from different processes, produce an identical reward.
func RewardForStart(snap *catalog.Snapshot, start int64) Reward {
	rng := rand.New(rand.NewSource(start))

	candidates := snap.Weapons[:0:0]
	for _, w := range snap.Weapons {
		if _, ok := rewardRarities[w.Rarity]; ok {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		candidates = snap.Weapons
	}
	if len(candidates) == 0 {
		// Empty catalog: a zero-value placeholder keeps the schedule
		// renderable.
		return Reward{Name: "Empty", Rarity: model.RarityConsumer}
	}

	weapon := candidates[rng.Intn(len(candidates))]
	d := drop.ApplyStattrak(rng, weapon)
	return Reward{
		Name:     d.Name,
		Rarity:   d.Rarity,
		Price:    d.Price,
		Stattrak: d.Stattrak,
	}
}
