// Package catalog loads the immutable case/weapon catalog and exposes
// indexed, read-only snapshots of it. The engine never mutates catalog
// data; a snapshot taken at the start of a request stays consistent for
// the whole request.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"kazino-api/internal/model"
)

// stattrakPremium is the price multiplier applied to intrinsically
// stattrak weapons at parse time.
const stattrakPremium = 1.3

// Snapshot is an immutable view of the parsed catalog with lookup
// indexes. All slices and maps must be treated as read-only.
type Snapshot struct {
	Cases         []model.Case
	CasesByID     map[string]model.Case
	Weapons       []model.Weapon
	WeaponsByID   map[string]model.Weapon
	WeaponsByCase map[string][]model.Weapon
	Categories    []string
	Rarities      []model.Rarity
}

// Empty returns a snapshot with no cases or weapons but the full rarity
// table, used when the catalog file is absent.
func Empty() *Snapshot {
	return &Snapshot{
		CasesByID:     map[string]model.Case{},
		WeaponsByID:   map[string]model.Weapon{},
		WeaponsByCase: map[string][]model.Weapon{},
		Rarities:      model.Rarities,
	}
}

// CaseWeapons returns the weapons droppable from a case, sorted by tier
// order. Returns nil for unknown case ids.
func (s *Snapshot) CaseWeapons(caseID string) []model.Weapon {
	weapons := s.WeaponsByCase[caseID]
	sorted := make([]model.Weapon, len(weapons))
	copy(sorted, weapons)
	sort.SliceStable(sorted, func(i, j int) bool {
		return model.RarityOrder(sorted[i].Rarity) < model.RarityOrder(sorted[j].Rarity)
	})
	return sorted
}

// Parse reads catalog definitions from r. The format is line-oriented:
//
//	CASE: <name> = <price>
//	WEAPON: <name>|<stattrak>|<rarity>|<price>|<case, case, ...>
//
// Blank lines and lines starting with '#' are skipped. Malformed lines are
// skipped rather than failing the whole catalog.
func Parse(r io.Reader) (*Snapshot, error) {
	var (
		cases   []model.Case
		weapons []model.Weapon
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(raw, "CASE:"):
			if c, ok := parseCase(strings.TrimSpace(raw[5:])); ok {
				cases = append(cases, c)
			}
		case strings.HasPrefix(raw, "WEAPON:"):
			if w, ok := parseWeapon(strings.TrimSpace(raw[7:])); ok {
				weapons = append(weapons, w)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	return buildSnapshot(cases, weapons), nil
}

func parseCase(payload string) (model.Case, bool) {
	name, priceRaw, ok := strings.Cut(payload, "=")
	if !ok {
		return model.Case{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Case{}, false
	}

	price, err := strconv.ParseInt(strings.TrimSpace(priceRaw), 10, 64)
	if err != nil {
		price = 0
	}

	slug := slugify(name)
	return model.Case{
		ID:        slug,
		Name:      name,
		Category:  categoryFor(name),
		Price:     price,
		ImageSlug: slug,
	}, true
}

func parseWeapon(payload string) (model.Weapon, bool) {
	parts := strings.Split(payload, "|")
	if len(parts) < 5 {
		return model.Weapon{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	name := parts[0]
	if name == "" {
		return model.Weapon{}, false
	}

	stattrak := parseStattrak(parts[1])

	price, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		price = 0
	}
	// The intrinsic premium is baked into the catalog price, so downstream
	// rolls never re-apply it.
	if stattrak {
		price = int64(math.Round(float64(price) * stattrakPremium))
	}

	var caseNames []string
	for _, c := range strings.Split(parts[4], ",") {
		if c = normalizeName(c); c != "" {
			caseNames = append(caseNames, c)
		}
	}

	return model.Weapon{
		Name:     name,
		Rarity:   parts[2],
		Price:    price,
		Stattrak: stattrak,
		Cases:    caseNames,
	}, true
}

func parseStattrak(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "yes", "1", "stattrak":
		return true
	}
	return false
}

// buildSnapshot assigns weapon ids, wires the per-case indexes, and
// collects the category list.
func buildSnapshot(cases []model.Case, weapons []model.Weapon) *Snapshot {
	casesByID := make(map[string]model.Case, len(cases))
	caseIDByName := make(map[string]string, len(cases))
	weaponsByCase := make(map[string][]model.Weapon, len(cases))
	categorySet := make(map[string]struct{})

	for _, c := range cases {
		casesByID[c.ID] = c
		caseIDByName[normalizeKey(c.Name)] = c.ID
		weaponsByCase[c.ID] = nil
		categorySet[c.Category] = struct{}{}
	}

	weaponsByID := make(map[string]model.Weapon, len(weapons))
	for i := range weapons {
		w := &weapons[i]
		w.ID = fmt.Sprintf("%s-%s-%d-%d-%d", slugify(w.Name), w.Rarity, w.Price, boolBit(w.Stattrak), i)
		weaponsByID[w.ID] = *w
		for _, caseName := range w.Cases {
			if caseID, ok := caseIDByName[normalizeKey(caseName)]; ok {
				weaponsByCase[caseID] = append(weaponsByCase[caseID], *w)
			}
		}
	}

	categories := make([]string, 0, len(categorySet))
	for c := range categorySet {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	return &Snapshot{
		Cases:         cases,
		CasesByID:     casesByID,
		Weapons:       weapons,
		WeaponsByID:   weaponsByID,
		WeaponsByCase: weaponsByCase,
		Categories:    categories,
		Rarities:      model.Rarities,
	}
}

var (
	slugSpaceRe    = regexp.MustCompile(`\s+`)
	slugInvalidRe  = regexp.MustCompile(`[^a-z0-9\-]`)
	slugCollapseRe = regexp.MustCompile(`-+`)
	nameSepRe      = regexp.MustCompile(`[_\-]+`)
)

func slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = slugSpaceRe.ReplaceAllString(value, "-")
	value = slugInvalidRe.ReplaceAllString(value, "")
	return slugCollapseRe.ReplaceAllString(value, "-")
}

func normalizeName(value string) string {
	value = nameSepRe.ReplaceAllString(value, " ")
	return strings.Join(strings.Fields(value), " ")
}

func normalizeKey(value string) string {
	return strings.ToLower(normalizeName(value))
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}
