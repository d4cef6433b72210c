package catalog

// defaultCategory is the bucket for cases not present in the map below.
const defaultCategory = "Other"

// caseCategories maps known case names to their display category.
// Catalog content management is out of scope for the engine, so this is
// static configuration data.
var caseCategories = map[string]string{
	"Revolution":              "Prime",
	"Kilowatt":                "Prime",
	"Dreams & Nightmares":     "Prime",
	"Recoil":                  "Prime",
	"Snakebite":               "Prime",
	"Fracture":                "Prime",
	"Clutch":                  "Prime",
	"Prisma 2":                "Prime",
	"Prisma":                  "Prime",
	"Spectrum 2":              "Prime",
	"Spectrum":                "Prime",
	"Horizon":                 "Prime",
	"Danger Zone":             "Prime",
	"Chroma 3":                "Neon",
	"Chroma 2":                "Neon",
	"Chroma":                  "Neon",
	"Gamma 2":                 "Neon",
	"Gamma":                   "Neon",
	"Shadow":                  "Operations",
	"Falchion":                "Operations",
	"Glove":                   "Operations",
	"Wildfire":                "Operations",
	"Phoenix":                 "Operations",
	"Vanguard":                "Operations",
	"Breakout":                "Operations",
	"Bravo":                   "Operations",
	"Operation Riptide":       "Operations",
	"Operation Broken Fang":   "Operations",
	"Operation Shattered Web": "Operations",
	"Hydra":                   "Operations",
	"Esports 2013":            "Esports",
	"Esports 2013 Winter":     "Esports",
	"Esports 2014 Summer":     "Esports",
	"Weapon Case":             "Classic",
	"Weapon Case 2":           "Classic",
	"Weapon Case 3":           "Classic",
	"Winter Offensive":        "Classic",
	"Huntsman":                "Classic",
	"Cobblestone":             "Collections",
	"Cache":                   "Collections",
	"Dust 2":                  "Collections",
	"Mirage":                  "Collections",
	"Inferno":                 "Collections",
	"Nuke":                    "Collections",
	"Overpass":                "Collections",
	"Vertigo":                 "Collections",
	"Anubis":                  "Collections",
	"Ancient":                 "Collections",
	"Train":                   "Collections",
	"Lake":                    "Collections",
}

func categoryFor(caseName string) string {
	if c, ok := caseCategories[caseName]; ok {
		return c
	}
	return defaultCategory
}
