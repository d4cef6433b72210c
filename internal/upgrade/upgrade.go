// Package upgrade implements the target-selection and resolution math for
// item upgrades: staking owned items for a chance at a higher-value
// weapon.
package upgrade

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"kazino-api/internal/model"
)

const (
	// TargetCount is how many candidate weapons a preview returns at most.
	TargetCount = 8

	// WindowLow and WindowHigh bound the preferred target price window
	// around the computed target value.
	WindowLow  = 0.7
	WindowHigh = 1.3

	// ConsolationRate is the fraction of the stake refunded on a lost
	// upgrade.
	ConsolationRate = 0.05
)

// allowedChances is the fixed set of selectable win chances, in percent.
var allowedChances = map[int]struct{}{75: {}, 50: {}, 30: {}, 25: {}, 15: {}}

// ValidChance reports whether the given win chance is selectable.
func ValidChance(chance int) bool {
	_, ok := allowedChances[chance]
	return ok
}

// TargetValue computes the weapon value an upgrade at the given chance
// aims for: stake scaled up by the inverse of the win probability.
func TargetValue(stakeValue int64, chance int) float64 {
	return float64(stakeValue) * 100 / float64(chance)
}

// Consolation is the refund credited when an upgrade fails, rounded to
// the nearest currency unit.
func Consolation(stakeValue int64) int64 {
	return int64(math.Round(float64(stakeValue) * ConsolationRate))
}

// Engine resolves upgrades and samples preview targets. Safe for
// concurrent use.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates a time-seeded upgrade engine.
func NewEngine() *Engine {
	return NewEngineWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewEngineWithSource creates an engine with an explicit source, used by
// tests to force outcomes.
func NewEngineWithSource(src rand.Source) *Engine {
	return &Engine{rng: rand.New(src)}
}

// Targets returns a random sample of up to TargetCount plausible reward
// weapons for the given target value. The sample is advisory: the commit
// step accepts any catalog weapon id, whether or not it was previewed.
func (e *Engine) Targets(weapons []model.Weapon, targetValue float64) []model.Weapon {
	e.mu.Lock()
	defer e.mu.Unlock()
	return PickTargets(e.rng, weapons, targetValue, TargetCount)
}

// Resolve draws the upgrade outcome: success iff a uniform draw lands
// below chance/100.
func (e *Engine) Resolve(chance int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64() < float64(chance)/100
}

// PickTargets selects candidate weapons whose price falls inside the
// [WindowLow, WindowHigh]×targetValue window. When fewer than count
// qualify, the pool widens to the max(count, TargetCount) weapons closest
// to the target value by absolute price difference. Returns a uniform
// sample of min(count, pool size), unordered.
func PickTargets(rng *rand.Rand, weapons []model.Weapon, targetValue float64, count int) []model.Weapon {
	if len(weapons) == 0 {
		return nil
	}

	lower := targetValue * WindowLow
	upper := targetValue * WindowHigh

	var pool []model.Weapon
	for _, w := range weapons {
		if p := float64(w.Price); p >= lower && p <= upper {
			pool = append(pool, w)
		}
	}

	if len(pool) < count {
		widened := make([]model.Weapon, len(weapons))
		copy(widened, weapons)
		sort.SliceStable(widened, func(i, j int) bool {
			return math.Abs(float64(widened[i].Price)-targetValue) <
				math.Abs(float64(widened[j].Price)-targetValue)
		})
		limit := count
		if TargetCount > limit {
			limit = TargetCount
		}
		if limit > len(widened) {
			limit = len(widened)
		}
		pool = widened[:limit]
	}

	k := count
	if k > len(pool) {
		k = len(pool)
	}

	sample := make([]model.Weapon, 0, k)
	for _, idx := range rng.Perm(len(pool))[:k] {
		sample = append(sample, pool[idx])
	}
	return sample
}
