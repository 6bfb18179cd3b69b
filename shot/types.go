package shot

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// GeoPoint represents a geographic coordinate (WGS 84, degrees).
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Orb converts the point to an orb.Point (lon, lat order).
func (p GeoPoint) Orb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// FromOrb converts an orb.Point (lon, lat order) to a GeoPoint.
func FromOrb(p orb.Point) GeoPoint {
	return GeoPoint{Lat: p[1], Lon: p[0]}
}

// LocalPoint is a planar position in meters relative to a reference GeoPoint.
// X is east, Y is north. Valid only near the reference (flat-earth
// approximation, <1% error under ~1 km).
type LocalPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SkillPreset describes a player's dispersion: lateral half-angle in degrees
// and distance dispersion as a percentage of the shot length.
type SkillPreset struct {
	Name       string  `yaml:"name" json:"name"`
	OfflineDeg float64 `yaml:"offlineDeg" json:"offlineDeg"`
	DistPct    float64 `yaml:"distPct" json:"distPct"`
}

// EllipseParams describes a dispersion ellipse. SemiMajor is the along-track
// semi-axis (meters, aligned with Heading), SemiMinor the cross-track
// semi-axis. Heading is the shot bearing in radians from north, clockwise.
type EllipseParams struct {
	SemiMajor float64
	SemiMinor float64
	Heading   float64
	Center    GeoPoint
}

// Validate checks the ellipse axes for degeneracy.
func (e EllipseParams) Validate() error {
	if !(e.SemiMajor > 0) || !(e.SemiMinor > 0) ||
		math.IsInf(e.SemiMajor, 0) || math.IsInf(e.SemiMinor, 0) ||
		math.IsNaN(e.Heading) {
		return fmt.Errorf("%w: semiMajor=%v semiMinor=%v heading=%v",
			ErrInvalidEllipse, e.SemiMajor, e.SemiMinor, e.Heading)
	}
	return nil
}

// TerrainClass is a discrete terrain classification. The ordinal value doubles
// as the encoded byte in a mask buffer (channel 0).
type TerrainClass uint8

const (
	ClassUnknown TerrainClass = iota
	ClassOutOfBounds
	ClassWater
	ClassHazard
	ClassBunker
	ClassGreen
	ClassFairway
	ClassRecovery
	ClassRough
	ClassTee

	numTerrainClasses
)

var terrainClassNames = [numTerrainClasses]string{
	"unknown", "out_of_bounds", "water", "hazard", "bunker",
	"green", "fairway", "recovery", "rough", "tee",
}

func (c TerrainClass) String() string {
	if c < numTerrainClasses {
		return terrainClassNames[c]
	}
	return fmt.Sprintf("terrain(%d)", uint8(c))
}

// Valid reports whether c is one of the defined classes.
func (c TerrainClass) Valid() bool {
	return c < numTerrainClasses
}

// StrokeSample is one Monte-Carlo draw: a landing point, its terrain class,
// the remaining distance to the target in yards and the scored strokes.
type StrokeSample struct {
	Point       GeoPoint
	Class       TerrainClass
	DistanceYds float64
	Strokes     float64
}

// EvaluationResult summarizes one aim-point evaluation.
type EvaluationResult struct {
	Mean          float64                  `json:"mean"`
	CI95          float64                  `json:"ci95"`
	N             int                      `json:"n"`
	CountsByClass map[TerrainClass]int     `json:"countsByClass"`
}

// DominantClass returns the terrain class with the highest sample count.
func (r EvaluationResult) DominantClass() TerrainClass {
	best := ClassUnknown
	bestCount := -1
	for c := TerrainClass(0); c < numTerrainClasses; c++ {
		if n, ok := r.CountsByClass[c]; ok && n > bestCount {
			best = c
			bestCount = n
		}
	}
	return best
}

// Candidate is a proposed aim point ranked by the optimizer.
type Candidate struct {
	Position          GeoPoint         `json:"position"`
	Evaluation        EvaluationResult `json:"evaluation"`
	DistanceFromStart float64          `json:"distanceFromStart"` // yards, surface
	PlaysLikeYds      float64          `json:"playsLikeYds"`      // elevation-adjusted
}

// SearchStrategy selects how the optimizer proposes aim-point candidates.
type SearchStrategy string

const (
	StrategyFullGrid SearchStrategy = "full_grid"
	StrategyRingGrid SearchStrategy = "ring_grid"
	StrategyCEM      SearchStrategy = "cem"
)

// OptimizerConfig controls the candidate search. Zero values fall back to the
// defaults from DefaultOptimizerConfig where noted.
type OptimizerConfig struct {
	Strategy         SearchStrategy `yaml:"strategy"`
	MaxDistanceYards float64        `yaml:"maxDistanceYards"`

	EarlySampleCount  int     `yaml:"earlySampleCount"`  // default 400
	FinalSampleCount  int     `yaml:"finalSampleCount"`  // default 800
	CI95StopThreshold float64 `yaml:"ci95StopThreshold"` // default 0.02
	TopCandidates     int     `yaml:"topCandidates"`     // default 5

	MinSeparationMeters    float64 `yaml:"minSeparationMeters"`
	DisallowFartherThanPin bool    `yaml:"disallowFartherThanPin"`

	// RollMultiplier scales the along-track dispersion axis for firm/soft
	// conditions. Values <= 0 mean 1.0.
	RollMultiplier float64 `yaml:"rollMultiplier"`

	GridSpacingYards    float64 `yaml:"gridSpacingYards"`    // FullGrid, default 20
	RingRadiusStepYards float64 `yaml:"ringRadiusStepYards"` // RingGrid, default 20
	RingAngleStepDeg    float64 `yaml:"ringAngleStepDeg"`    // RingGrid, default 10

	CEMIterations   int     `yaml:"cemIterations"`   // default 4
	CEMBatchSize    int     `yaml:"cemBatchSize"`    // default 40
	CEMElitePct     float64 `yaml:"cemElitePct"`     // default 0.2
	CEMSigmaFloor   float64 `yaml:"cemSigmaFloor"`   // yards, default 5
	CEMPerAxisSigma bool    `yaml:"cemPerAxisSigma"` // diagonal vs isotropic refit
	CEMSeed         int64   `yaml:"cemSeed"`         // default 1

	Workers int `yaml:"workers"` // default runtime.NumCPU
}

// DefaultOptimizerConfig returns the stock search settings.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		Strategy:            StrategyRingGrid,
		MaxDistanceYards:    260,
		EarlySampleCount:    400,
		FinalSampleCount:    800,
		CI95StopThreshold:   0.02,
		TopCandidates:       5,
		MinSeparationMeters: 10,
		RollMultiplier:      1,
		GridSpacingYards:    20,
		RingRadiusStepYards: 20,
		RingAngleStepDeg:    10,
		CEMIterations:       4,
		CEMBatchSize:        40,
		CEMElitePct:         0.2,
		CEMSigmaFloor:       5,
		CEMPerAxisSigma:     true,
		CEMSeed:             1,
	}
}

// Validate checks the config for values that cannot be defaulted away.
func (c OptimizerConfig) Validate() error {
	switch c.Strategy {
	case StrategyFullGrid, StrategyRingGrid, StrategyCEM:
	default:
		return fmt.Errorf("unknown search strategy %q", c.Strategy)
	}
	if !(c.MaxDistanceYards > 0) {
		return fmt.Errorf("maxDistanceYards must be positive, got %v", c.MaxDistanceYards)
	}
	if c.EarlySampleCount < 0 || c.FinalSampleCount < 0 {
		return fmt.Errorf("sample counts must not be negative")
	}
	if c.CEMElitePct < 0 || c.CEMElitePct > 1 {
		return fmt.Errorf("cemElitePct must be in [0,1], got %v", c.CEMElitePct)
	}
	return nil
}

// RunState is the optimizer lifecycle state.
type RunState int

const (
	StateIdle RunState = iota
	StateSearching
	StateDone
	StateCancelled
	StateErrored
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	case StateErrored:
		return "errored"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Input errors, rejected synchronously before any sampling begins.
var (
	ErrInvalidEllipse = errors.New("invalid dispersion ellipse")
	ErrEmptyMask      = errors.New("terrain mask is empty")
	ErrZeroBudget     = errors.New("sample budget is zero")
	ErrBusy           = errors.New("optimizer run already in progress")
)
