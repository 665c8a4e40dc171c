// Package geo classifies geographic coordinates into the linguistic refugia
// regions used throughout the analysis. Classification is always computed
// from coordinates on demand and never stored, so it cannot go stale when a
// coordinate is corrected upstream.
package geo

// Region is a coarse geographic class for a language's location.
type Region string

const (
	Americas Region = "americas"
	Sahul    Region = "sahul"
	Caucasus Region = "caucasus"
	Other    Region = "other"
)

// AllRegions returns the regions in fixed display order. Iterating this
// slice instead of a map keeps every report and percentage sum deterministic.
func AllRegions() []Region {
	return []Region{Americas, Sahul, Caucasus, Other}
}

// IsRefugium reports whether the region is one of the three hypothesized
// linguistic refugia.
func (r Region) IsRefugium() bool {
	return r == Americas || r == Sahul || r == Caucasus
}

// Label returns the human-readable region name.
func (r Region) Label() string {
	switch r {
	case Americas:
		return "Americas"
	case Sahul:
		return "Sahul"
	case Caucasus:
		return "Caucasus"
	case Other:
		return "Non-refugia"
	}
	return string(r)
}

// Classify maps a coordinate to its region. The predicates are evaluated in
// priority order with first match winning; the comparisons are exact and must
// not be reformulated, since languages near the boundaries are a known
// sensitivity of the refugia hypothesis.
//
// Rules:
//  1. Americas: lon < -30.
//  2. Caucasus: 37 < lat < 45 and 37 < lon < 50.
//  3. Sahul: lon > 110 and lat < 3, except in the Wallacea band
//     -11 <= lat <= 3 where lon > 125 is additionally required
//     (excludes Sulawesi and the Lesser Sundas).
//  4. Everything else, including out-of-range coordinates: Other.
//
// The function is total and deterministic; there is no failure mode.
func Classify(lat, lon float64) Region {
	if lon < -30 {
		return Americas
	}

	if 37 < lat && lat < 45 && 37 < lon && lon < 50 {
		return Caucasus
	}

	if lon > 110 && lat < 3 {
		// Wallacea exclusion band
		if -11 <= lat && lat <= 3 {
			if lon > 125 {
				return Sahul
			}
			return Other
		}
		return Sahul
	}

	return Other
}

// IsRefugium reports whether a coordinate falls inside any refugium region.
func IsRefugium(lat, lon float64) bool {
	return Classify(lat, lon).IsRefugium()
}
