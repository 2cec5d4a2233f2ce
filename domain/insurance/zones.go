package insurance

import "strings"

// Zone is one of the seven geographic areas regions roll up into.
type Zone string

const (
	ZoneNorthern          Zone = "Northern Zone"
	ZoneCentral           Zone = "Central Zone"
	ZoneLake              Zone = "Lake Zone"
	ZoneWestern           Zone = "Western Zone"
	ZoneSouthernHighlands Zone = "Southern Highlands Zone"
	ZoneCoastal           Zone = "Coastal Zone"
	ZoneZanzibar          Zone = "Zanzibar (Islands)"
	ZoneUnknown           Zone = "Unknown"
)

// Zones lists the seven zones in report order.
var Zones = []Zone{
	ZoneNorthern,
	ZoneCentral,
	ZoneLake,
	ZoneWestern,
	ZoneSouthernHighlands,
	ZoneCoastal,
	ZoneZanzibar,
}

// zoneMembers reproduces the fixed region->zone lookup table verbatim; the
// regional report depends on this exact grouping.
var zoneMembers = map[Zone][]string{
	ZoneNorthern: {
		"Arusha",
		"Kilimanjaro",
		"Manyara",
		"Tanga",
	},
	ZoneCentral: {
		"Dodoma",
		"Singida",
		"Tabora",
	},
	ZoneLake: {
		"Geita",
		"Kagera",
		"Mara",
		"Mwanza",
		"Shinyanga",
		"Simiyu",
	},
	ZoneWestern: {
		"Kigoma",
		"Katavi",
	},
	ZoneSouthernHighlands: {
		"Iringa",
		"Mbeya",
		"Njombe",
		"Rukwa",
		"Ruvuma",
		"Songwe",
	},
	ZoneCoastal: {
		"Dar es Salaam",
		"Lindi",
		"Morogoro",
		"Mtwara",
		"Pwani", // 'Pwani' means 'Coast' in Swahili
	},
	ZoneZanzibar: {
		"Pemba North",
		"Pemba South",
		"Unguja North",    // also known as Zanzibar North
		"Unguja South",    // also known as Zanzibar South & Central
		"Mjini Magharibi", // also known as Zanzibar Urban West
	},
}

// regionIndex maps normalized canonical region names to their zone.
var regionIndex = buildRegionIndex()

func buildRegionIndex() map[string]Zone {
	idx := make(map[string]Zone)
	for _, zone := range Zones {
		for _, region := range zoneMembers[zone] {
			idx[NormalizeRegion(region)] = zone
		}
	}
	return idx
}

// NormalizeRegion lowercases a region name and strips whitespace and
// punctuation, so input vintages with spacing or casing variants resolve to
// the same canonical key.
func NormalizeRegion(region string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(region) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchZone maps a region name to its zone via the normalized alias table.
// Unmapped regions return ZoneUnknown rather than a fuzzy guess.
func MatchZone(region string) Zone {
	if zone, ok := regionIndex[NormalizeRegion(region)]; ok {
		return zone
	}
	return ZoneUnknown
}

// MatchZoneLoose first tries the exact normalized match, then falls back to
// the legacy substring-containment rule for misspelled vintages. The second
// return value reports whether the loose fallback was used, so callers can
// log it; containment is ambiguous for region names that contain each other.
func MatchZoneLoose(region string) (Zone, bool) {
	if zone := MatchZone(region); zone != ZoneUnknown {
		return zone, false
	}
	norm := NormalizeRegion(region)
	if norm == "" {
		return ZoneUnknown, false
	}
	for _, zone := range Zones {
		for _, member := range zoneMembers[zone] {
			memberNorm := NormalizeRegion(member)
			if strings.Contains(memberNorm, norm) || strings.Contains(norm, memberNorm) {
				return zone, true
			}
		}
	}
	return ZoneUnknown, false
}

// ZoneRegions returns the canonical member regions of a zone.
func ZoneRegions(zone Zone) []string {
	members := zoneMembers[zone]
	out := make([]string, len(members))
	copy(out, members)
	return out
}
