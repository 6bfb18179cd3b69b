package shot

import (
	"math"
	"testing"
)

func TestStrokesMonotoneNonDecreasing(t *testing.T) {
	m := NewStrokesModel()
	classes := []TerrainClass{ClassGreen, ClassFairway, ClassRough, ClassBunker, ClassRecovery}

	for _, c := range classes {
		prev := m.Strokes(0, c)
		for d := 0.1; d <= 500; d += 0.1 {
			v := m.Strokes(d, c)
			if v < prev-1e-9 {
				t.Fatalf("%s: strokes decreased at %.1f yd: %v -> %v", c, d, prev, v)
			}
			prev = v
		}
	}
}

func TestStrokesContinuityAtDomainBoundaries(t *testing.T) {
	// The linear extrapolations are anchored at the boundary values of the
	// fitted polynomial, so the piecewise curve must be continuous there.
	for class, c := range strokeCurves {
		for _, boundary := range []float64{c.domainMin, c.domainMax} {
			below := c.strokes(boundary - 1e-9)
			above := c.strokes(boundary + 1e-9)
			if math.Abs(above-below) > 1e-3 {
				t.Errorf("%s: jump at %.2f yd: %v vs %v", class, boundary, below, above)
			}
		}
	}
}

func TestStrokesKnownValues(t *testing.T) {
	m := NewStrokesModel()
	tests := []struct {
		name  string
		d     float64
		class TerrainClass
		want  float64
		tol   float64
	}{
		// Short green putts approach one stroke.
		{"tap in", 0.5, ClassGreen, 1.033, 0.01},
		{"long putt", 20, ClassGreen, 2.424, 0.02},
		{"fairway approach", 150, ClassFairway, 3.100, 0.02},
		{"rough approach", 150, ClassRough, 3.300, 0.02},
		{"past the fit domain", 450, ClassFairway, 4.531, 0.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Strokes(tt.d, tt.class)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("Strokes(%v, %s) = %v, want %v +- %v", tt.d, tt.class, got, tt.want, tt.tol)
			}
		})
	}
}

func TestStrokesFloorAndBadInputs(t *testing.T) {
	m := NewStrokesModel()

	if v := m.Strokes(0, ClassGreen); v < 1 {
		t.Errorf("strokes must never drop below 1, got %v", v)
	}
	if v := m.Strokes(-10, ClassFairway); v != m.Strokes(0, ClassFairway) {
		t.Errorf("negative distance should clamp to zero, got %v", v)
	}
	if v := m.Strokes(math.NaN(), ClassRough); math.IsNaN(v) {
		t.Error("NaN distance must not produce a NaN result")
	}
}

func TestStrokesClassRouting(t *testing.T) {
	m := NewStrokesModel()
	d := 120.0

	if m.Strokes(d, ClassTee) != m.Strokes(d, ClassFairway) {
		t.Error("tee lies should score on the fairway curve")
	}
	if m.Strokes(d, ClassUnknown) != m.Strokes(d, ClassRough) {
		t.Error("unknown lies should score on the rough curve")
	}
}

func TestExpectedStrokesPenalties(t *testing.T) {
	m := NewStrokesModel()
	d := 180.0
	rough := m.Strokes(d, ClassRough)

	tests := []struct {
		class TerrainClass
		want  float64
	}{
		{ClassWater, rough + 1},
		{ClassHazard, rough + 1},
		{ClassOutOfBounds, rough + 2},
		{ClassFairway, m.Strokes(d, ClassFairway)},
	}

	for _, tt := range tests {
		if got := m.ExpectedStrokes(d, tt.class); got != tt.want {
			t.Errorf("ExpectedStrokes(%v, %s) = %v, want %v", d, tt.class, got, tt.want)
		}
	}
}

func TestStrokesCacheConsistency(t *testing.T) {
	m := NewStrokesModel()

	// Distances rounding to the same tenth of a yard must yield identical
	// values whether served from the cache or computed fresh.
	a := m.Strokes(150.04, ClassFairway)
	b := m.Strokes(150.01, ClassFairway)
	if a != b {
		t.Errorf("cache key collision produced differing values: %v vs %v", a, b)
	}

	// Eviction must not change results.
	for d := 0.0; d < 600; d += 0.1 {
		m.Strokes(d, ClassFairway)
		m.Strokes(d, ClassRough)
	}
	fresh := NewStrokesModel()
	if m.Strokes(42.0, ClassFairway) != fresh.Strokes(42.0, ClassFairway) {
		t.Error("eviction changed a cached value")
	}
}
