// Package drop implements the weighted rarity roller and the stattrak
// modifier. All randomness flows through an injected source so giveaway
// rewards can be reproduced deterministically and tests can force
// outcomes.
package drop

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"kazino-api/internal/model"
)

const (
	// StattrakChance is the probability a non-intrinsic drop rolls
	// stattrak.
	StattrakChance = 0.05

	// StattrakPremium is the price multiplier for a rolled stattrak drop.
	StattrakPremium = 1.3
)

// ErrNoCandidates is returned when a roll is attempted with no weapons.
// Callers validate the candidate set before rolling; hitting this error
// means the action must fail closed.
var ErrNoCandidates = errors.New("no candidate weapons")

// Drop is the concrete result of a roll, price fixed at mint time.
type Drop struct {
	Name     string `json:"name"`
	Rarity   string `json:"rarity"`
	Price    int64  `json:"price"`
	Stattrak bool   `json:"stattrak"`
}

// Roller performs weighted rarity rolls. Safe for concurrent use; the
// request handlers and the feed generator share one instance.
type Roller struct {
	mu    sync.Mutex
	rng   *rand.Rand
	tiers []model.Rarity
}

// NewRoller creates a time-seeded roller over the standard tier table.
func NewRoller() *Roller {
	return NewRollerWithSource(rand.NewSource(time.Now().UnixNano()), model.Rarities)
}

// NewRollerWithSource creates a roller with an explicit source and tier
// table, used by tests.
func NewRollerWithSource(src rand.Source, tiers []model.Rarity) *Roller {
	return &Roller{rng: rand.New(src), tiers: tiers}
}

// RollDrop selects one weapon from the candidate set and applies the
// stattrak modifier. The candidate set must be non-empty.
func (r *Roller) RollDrop(weapons []model.Weapon) (Drop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Roll(r.rng, r.tiers, weapons)
}

// ApplyStattrak converts a weapon into a concrete drop, rolling the 5%
// stattrak upgrade for non-intrinsic weapons.
func (r *Roller) ApplyStattrak(w model.Weapon) Drop {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ApplyStattrak(r.rng, w)
}

// Roll draws a rarity tier, narrows the candidates to that tier (falling
// back to the full set when the case holds no weapon of the tier), picks
// uniformly within it, and applies the stattrak modifier.
func Roll(rng *rand.Rand, tiers []model.Rarity, weapons []model.Weapon) (Drop, error) {
	if len(weapons) == 0 {
		return Drop{}, ErrNoCandidates
	}

	rarity := PickRarity(rng, tiers)
	candidates := weapons[:0:0]
	for _, w := range weapons {
		if w.Rarity == rarity {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		candidates = weapons
	}

	weapon := candidates[rng.Intn(len(candidates))]
	return ApplyStattrak(rng, weapon), nil
}

// PickRarity draws one tier id using the configured relative weights:
// a uniform value scaled to the total weight, walked down the fixed tier
// order until the remainder is spent.
func PickRarity(rng *rand.Rand, tiers []model.Rarity) string {
	var total float64
	for _, t := range tiers {
		total += t.Weight
	}

	roll := rng.Float64() * total
	for _, t := range tiers {
		roll -= t.Weight
		if roll <= 0 {
			return t.ID
		}
	}
	return tiers[0].ID
}

// ApplyStattrak is the single stattrak modifier shared by case drops,
// upgrade rewards and giveaway rewards. Intrinsic stattrak weapons keep
// their catalog price; rolled stattrak multiplies the price by 1.3,
// rounded to the nearest unit.
func ApplyStattrak(rng *rand.Rand, w model.Weapon) Drop {
	stattrak := w.Stattrak
	price := w.Price
	if !stattrak && rng.Float64() < StattrakChance {
		stattrak = true
		price = int64(math.Round(float64(price) * StattrakPremium))
	}
	return Drop{
		Name:     w.Name,
		Rarity:   w.Rarity,
		Price:    price,
		Stattrak: stattrak,
	}
}
