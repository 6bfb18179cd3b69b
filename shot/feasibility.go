package shot

import (
	"context"
	"time"
)

// defaultLookupTimeout caps how long one elevation lookup may stall a
// candidate before the filter degrades to surface distance.
const defaultLookupTimeout = 2 * time.Second

// FeasibilityFilter rejects candidates that violate distance or separation
// constraints. Elevation adjustment is best effort: a failed or unavailable
// lookup degrades to the surface distance, it never rejects a candidate on
// its own.
type FeasibilityFilter struct {
	MaxDistanceYards       float64
	MinSeparationMeters    float64
	DisallowFartherThanPin bool

	Elevation     ElevationFunc
	LookupTimeout time.Duration
}

// PlaysLikeYards returns the elevation-adjusted distance of a shot from start
// to target: surface distance plus the elevation delta converted to yards.
// Uphill plays longer, downhill shorter. Falls back to the surface distance
// when elevation data is unavailable.
func (f *FeasibilityFilter) PlaysLikeYards(ctx context.Context, start, target GeoPoint) float64 {
	surface := DistanceYards(start, target)
	if f.Elevation == nil {
		return surface
	}

	timeout := f.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	startElev, err := f.Elevation(ctx, start)
	if err != nil {
		return surface
	}
	targetElev, err := f.Elevation(ctx, target)
	if err != nil {
		return surface
	}
	return surface + (targetElev-startElev)*YardsPerMeter
}

// Apply filters a ranked candidate list in place of its ordering: candidates
// are visited best first, and each survivor has its PlaysLikeYds populated.
// Rejection rules, in order: plays-like distance over the maximum, surface
// distance beyond the pin (when configured), and proximity within
// MinSeparationMeters of an already-accepted better candidate.
func (f *FeasibilityFilter) Apply(ctx context.Context, start, pin GeoPoint, ranked []Candidate) []Candidate {
	pinDist := DistanceYards(start, pin)
	accepted := make([]Candidate, 0, len(ranked))

	for _, c := range ranked {
		c.PlaysLikeYds = f.PlaysLikeYards(ctx, start, c.Position)
		if f.MaxDistanceYards > 0 && c.PlaysLikeYds > f.MaxDistanceYards {
			continue
		}
		if f.DisallowFartherThanPin && c.DistanceFromStart > pinDist {
			continue
		}
		if f.MinSeparationMeters > 0 && tooClose(c.Position, accepted, f.MinSeparationMeters) {
			continue
		}
		accepted = append(accepted, c)
	}
	return accepted
}

func tooClose(p GeoPoint, accepted []Candidate, minSepMeters float64) bool {
	for _, a := range accepted {
		if DistanceMeters(p, a.Position) < minSepMeters {
			return true
		}
	}
	return false
}
