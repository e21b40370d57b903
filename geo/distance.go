// Package geo computes great-circle distances and filters candidate sets by
// radius. It has no dependencies on persistence so the same logic applies to
// every storage backend.
package geo

import (
	"math"
	"sort"
)

// EarthRadiusKm is the mean Earth radius used by all distance computations.
const EarthRadiusKm = 6371.0

// Coordinate is a latitude/longitude pair in signed decimal degrees.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Valid reports whether both components are finite and within range.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) ||
		math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Distance returns the great-circle distance in kilometers between a and b
// using the spherical law of cosines.
func Distance(a, b Coordinate) float64 {
	lat1, lat2 := radians(a.Latitude), radians(b.Latitude)
	dLon := radians(b.Longitude) - radians(a.Longitude)

	cosAngle := math.Cos(lat1)*math.Cos(lat2)*math.Cos(dLon) + math.Sin(lat1)*math.Sin(lat2)

	// rounding can push the argument just outside acos's domain for
	// coincident or antipodal points
	if cosAngle > 1 {
		cosAngle = 1
	} else if cosAngle < -1 {
		cosAngle = -1
	}

	return EarthRadiusKm * math.Acos(cosAngle)
}

// RoundTo2Decimals rounds f to two decimal places.
func RoundTo2Decimals(f float64) float64 {
	return math.Round(f*100) / 100
}

// Match is a candidate annotated with its distance to the reference point.
type Match[T any] struct {
	Item T
	// DistanceKm is rounded to two decimals.
	DistanceKm float64
}

// WithinRadius returns the candidates strictly closer than radiusKm to ref,
// sorted ascending by distance. Equal distances keep their input order.
// coordOf extracts a candidate's position; candidates for which it returns
// false, or whose coordinate is not Valid, are skipped.
func WithinRadius[T any](ref Coordinate, candidates []T, radiusKm float64, coordOf func(T) (Coordinate, bool)) []Match[T] {
	type scored struct {
		item  T
		exact float64
	}

	hits := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		pos, ok := coordOf(c)
		if !ok || !pos.Valid() {
			continue
		}
		d := Distance(ref, pos)
		if d < radiusKm {
			hits = append(hits, scored{item: c, exact: d})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].exact < hits[j].exact
	})

	out := make([]Match[T], len(hits))
	for i, h := range hits {
		out[i] = Match[T]{Item: h.item, DistanceKm: RoundTo2Decimals(h.exact)}
	}
	return out
}
