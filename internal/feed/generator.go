package feed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"kazino-api/internal/catalog"
	"kazino-api/internal/drop"
	"kazino-api/internal/model"
)

// nicknamePool feeds the cosmetic nicknames attached to synthetic drops.
var nicknamePool = []string{
	"Neo", "Fox", "Skull", "Zero", "Rex", "Nova", "Ice", "Fire", "Echo", "Ghost",
}

// Generator synthesizes ambient feed activity: it periodically rolls a
// drop exactly as a real case-open would and publishes it under a
// generated nickname. It only ever talks to the feed's publish
// operation; no user balance or inventory is touched.
type Generator struct {
	feed    *Feed
	catalog *catalog.Store
	roller  *drop.Roller
	rng     *rand.Rand

	minInterval time.Duration
	maxInterval time.Duration
}

// NewGenerator creates a generator publishing into feed with drops rolled
// from the current catalog.
func NewGenerator(f *Feed, store *catalog.Store, roller *drop.Roller, minInterval, maxInterval time.Duration) *Generator {
	if minInterval <= 0 {
		minInterval = 5 * time.Second
	}
	if maxInterval < minInterval {
		maxInterval = minInterval + 3*time.Second
	}
	return &Generator{
		feed:        f,
		catalog:     store,
		roller:      roller,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		minInterval: minInterval,
		maxInterval: maxInterval,
	}
}

// Run loops until ctx is cancelled, sleeping a randomized interval
// between synthetic drops. Spawn exactly one Run goroutine at process
// start.
func (g *Generator) Run(ctx context.Context) {
	log.Info().
		Dur("min_interval", g.minInterval).
		Dur("max_interval", g.maxInterval).
		Msg("Feed generator started")

	timer := time.NewTimer(g.nextDelay())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Feed generator stopped")
			return
		case <-timer.C:
			g.tick(time.Now())
			timer.Reset(g.nextDelay())
		}
	}
}

func (g *Generator) nextDelay() time.Duration {
	spread := g.maxInterval - g.minInterval
	if spread <= 0 {
		return g.minInterval
	}
	return g.minInterval + time.Duration(g.rng.Int63n(int64(spread)+1))
}

// tick rolls and publishes one synthetic drop. Failures are logged and
// skipped; the generator never stops over a bad tick.
func (g *Generator) tick(now time.Time) {
	snap, err := g.catalog.Snapshot()
	if err != nil {
		log.Warn().Err(err).Msg("Feed generator: catalog unavailable")
		return
	}
	if len(snap.Cases) == 0 {
		return
	}

	c := snap.Cases[g.rng.Intn(len(snap.Cases))]
	weapons := snap.WeaponsByCase[c.ID]
	if len(weapons) == 0 {
		return
	}

	d, err := g.roller.RollDrop(weapons)
	if err != nil {
		log.Warn().Err(err).Str("case", c.ID).Msg("Feed generator: roll failed")
		return
	}

	g.feed.Publish(model.FeedEvent{
		Nickname: g.nickname(),
		Weapon:   d.Name,
		Rarity:   d.Rarity,
		Price:    d.Price,
		Stattrak: d.Stattrak,
		TS:       now.Unix(),
	})
}

func (g *Generator) nickname() string {
	return fmt.Sprintf("%s%d", nicknamePool[g.rng.Intn(len(nicknamePool))], 1+g.rng.Intn(999))
}
