// Package model defines the data models for the case-opening economy.
package model

import "time"

// Rarity tier identifiers, ordered from most common to rarest.
const (
	RarityConsumer      = "consumer"
	RarityIndustrial    = "industrial"
	RarityMilspec       = "milspec"
	RarityRestricted    = "restricted"
	RarityClassified    = "classified"
	RarityCovert        = "covert"
	RarityExtraordinary = "extraordinary"
)

// Rarity describes a drop tier with its display attributes and relative
// drop weight.
type Rarity struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Color  string  `json:"color"`
	Weight float64 `json:"weight"`
}

// Rarities is the ordered tier table. The weights are configuration data
// (they sum to 96.5), not values derived from the catalog.
var Rarities = []Rarity{
	{ID: RarityConsumer, Label: "Consumer", Color: "#94a3b8", Weight: 45},
	{ID: RarityIndustrial, Label: "Industrial", Color: "#0f766e", Weight: 22},
	{ID: RarityMilspec, Label: "Mil-Spec", Color: "#2563eb", Weight: 16},
	{ID: RarityRestricted, Label: "Restricted", Color: "#f59e0b", Weight: 8},
	{ID: RarityClassified, Label: "Classified", Color: "#f97316", Weight: 4},
	{ID: RarityCovert, Label: "Covert", Color: "#ef4444", Weight: 1.5},
	{ID: RarityExtraordinary, Label: "Extraordinary", Color: "#facc15", Weight: 0.5},
}

// RarityOrder returns the position of a tier in the fixed tier order, or a
// value past the end for unknown tiers so they sort last.
func RarityOrder(id string) int {
	for i, r := range Rarities {
		if r.ID == id {
			return i
		}
	}
	return len(Rarities) + 1
}

// Case is a purchasable container defined by the catalog. Immutable at
// runtime.
type Case struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Price     int64  `json:"price"`
	ImageSlug string `json:"image_slug"`
}

// Weapon is a catalog-defined drop candidate. Price already includes the
// stattrak premium for intrinsically stattrak weapons.
type Weapon struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Rarity   string   `json:"rarity"`
	Price    int64    `json:"price"`
	Stattrak bool     `json:"stattrak"`
	Cases    []string `json:"-"`
}

// Item statuses. An item starts as owned and moves exactly once into one of
// the terminal states; items are never deleted or reused.
const (
	StatusOwned    = "owned"
	StatusSold     = "sold"
	StatusUpgraded = "upgraded"
	StatusFailed   = "failed"
)

// Item sources.
const (
	SourceCase    = "case"
	SourceUpgrade = "upgrade"
)

// Item is a concrete drop minted for a user. Its price is fixed at mint
// time and never recomputed.
type Item struct {
	ID        string    `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"-"`
	Name      string    `db:"name" json:"name"`
	Rarity    string    `db:"rarity" json:"rarity"`
	Price     int64     `db:"price" json:"price"`
	Stattrak  bool      `db:"stattrak" json:"stattrak"`
	Status    string    `db:"status" json:"status"`
	Source    string    `db:"source" json:"source"`
	CaseID    *string   `db:"case_id" json:"case_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

// User represents a player account.
type User struct {
	ID                int64     `db:"id"`
	Nickname          string    `db:"nickname"`
	Token             string    `db:"token"`
	Balance           int64     `db:"balance"`
	MaxBalance        int64     `db:"max_balance"`
	LastClaim         int64     `db:"last_claim"`
	CasesOpened       int64     `db:"cases_opened"`
	CasesWon          int64     `db:"cases_won"`
	Upgrades          int64     `db:"upgrades"`
	UpgradeWins       int64     `db:"upgrade_wins"`
	DailyCases        int64     `db:"daily_cases"`
	DailyReset        int       `db:"daily_reset"`
	BestDropItemID    *string   `db:"best_drop_item_id"`
	BestUpgradeItemID *string   `db:"best_upgrade_item_id"`
	CreatedAt         time.Time `db:"created_at"`
}

// GiveawayEntry records that a user joined a giveaway slot. Unique per
// (user, slot); the fee paid is recorded with the entry.
type GiveawayEntry struct {
	UserID     int64     `db:"user_id"`
	GiveawayID string    `db:"giveaway_id"`
	Entry      int64     `db:"entry"`
	JoinedAt   time.Time `db:"joined_at"`
}

// TopPlayer is one leaderboard row. Total is the balance plus the value
// of currently owned items.
type TopPlayer struct {
	Nickname string `db:"nickname" json:"nickname"`
	Total    int64  `db:"total" json:"total"`
}

// FeedEvent is an ephemeral live-feed record. It is never persisted.
type FeedEvent struct {
	Nickname string `json:"nickname"`
	Weapon   string `json:"weapon"`
	Rarity   string `json:"rarity"`
	Price    int64  `json:"price"`
	Stattrak bool   `json:"stattrak"`
	TS       int64  `json:"ts"`
}
