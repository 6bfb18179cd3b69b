package shot

import (
	"errors"
	"math"
	"testing"
)

func TestHaltonKnownValues(t *testing.T) {
	tests := []struct {
		i    int
		base int
		want float64
	}{
		{1, 2, 0.5},
		{2, 2, 0.25},
		{3, 2, 0.75},
		{4, 2, 0.125},
		{1, 3, 1.0 / 3},
		{2, 3, 2.0 / 3},
		{3, 3, 1.0 / 9},
	}

	for _, tt := range tests {
		got := Halton(tt.i, tt.base)
		if !almostEqual(got, tt.want, epsilon) {
			t.Errorf("Halton(%d, %d) = %v, want %v", tt.i, tt.base, got, tt.want)
		}
	}
}

func TestEllipsePointsDeterministic(t *testing.T) {
	e := EllipseParams{
		SemiMajor: 12,
		SemiMinor: 20,
		Heading:   0.7,
		Center:    GeoPoint{47.6, -122.3},
	}

	a, err := EllipsePoints(500, e)
	if err != nil {
		t.Fatalf("EllipsePoints: %v", err)
	}
	b, err := EllipsePoints(500, e)
	if err != nil {
		t.Fatalf("EllipsePoints: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs between calls: %v vs %v", i, a[i], b[i])
		}
	}

	// Extending the sample set must not change earlier points.
	c, err := EllipsePoints(800, e)
	if err != nil {
		t.Fatalf("EllipsePoints: %v", err)
	}
	for i := range a {
		if a[i] != c[i] {
			t.Fatalf("sample %d changed when extending the set", i)
		}
	}
}

func TestEllipsePointsContainment(t *testing.T) {
	center := GeoPoint{35.0, -80.0}
	headings := []float64{0, 0.4, math.Pi / 2, 2.9}

	for _, h := range headings {
		e := EllipseParams{SemiMajor: 9, SemiMinor: 16, Heading: h, Center: center}
		pts, err := EllipsePoints(1000, e)
		if err != nil {
			t.Fatalf("EllipsePoints: %v", err)
		}
		sin, cos := math.Sincos(h)
		for i, p := range pts {
			local := ToLocal(p, center)
			// Back-rotate into the ellipse frame.
			u := local.X*sin + local.Y*cos
			v := local.X*cos - local.Y*sin
			q := (u/e.SemiMajor)*(u/e.SemiMajor) + (v/e.SemiMinor)*(v/e.SemiMinor)
			if q > 1+1e-9 {
				t.Fatalf("heading %v sample %d outside ellipse: q=%v", h, i, q)
			}
		}
	}
}

func TestEllipsePointsInvalidAxes(t *testing.T) {
	tests := []struct {
		name string
		e    EllipseParams
	}{
		{"zero major", EllipseParams{SemiMajor: 0, SemiMinor: 5}},
		{"negative minor", EllipseParams{SemiMajor: 5, SemiMinor: -1}},
		{"nan heading", EllipseParams{SemiMajor: 5, SemiMinor: 5, Heading: math.NaN()}},
		{"inf major", EllipseParams{SemiMajor: math.Inf(1), SemiMinor: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EllipsePoints(10, tt.e); !errors.Is(err, ErrInvalidEllipse) {
				t.Errorf("expected ErrInvalidEllipse, got %v", err)
			}
		})
	}
}

func TestEllipseForShot(t *testing.T) {
	start := GeoPoint{0, 0}
	aim := ToGeo(LocalPoint{X: 0, Y: 150 * MetersPerYard}, start)
	skill := SkillPreset{Name: "scratch", OfflineDeg: 5.9, DistPct: 4.7}

	e, err := EllipseForShot(start, aim, skill, 1)
	if err != nil {
		t.Fatalf("EllipseForShot: %v", err)
	}

	length := DistanceMeters(start, aim)
	if !almostEqual(e.SemiMajor, length*0.047, 1e-9) {
		t.Errorf("semiMajor = %v, want %v", e.SemiMajor, length*0.047)
	}
	wantMinor := length * math.Tan(5.9*math.Pi/180)
	if !almostEqual(e.SemiMinor, wantMinor, 1e-9) {
		t.Errorf("semiMinor = %v, want %v", e.SemiMinor, wantMinor)
	}
	if !almostEqual(e.Heading, 0, 1e-3) {
		t.Errorf("heading = %v, want 0", e.Heading)
	}
	if e.Center != aim {
		t.Errorf("center = %v, want aim %v", e.Center, aim)
	}

	// Roll multiplier stretches the along-track axis only.
	rolled, err := EllipseForShot(start, aim, skill, 1.5)
	if err != nil {
		t.Fatalf("EllipseForShot: %v", err)
	}
	if !almostEqual(rolled.SemiMajor, e.SemiMajor*1.5, 1e-9) {
		t.Errorf("rolled semiMajor = %v, want %v", rolled.SemiMajor, e.SemiMajor*1.5)
	}
	if !almostEqual(rolled.SemiMinor, e.SemiMinor, 1e-9) {
		t.Errorf("rolled semiMinor = %v, want %v", rolled.SemiMinor, e.SemiMinor)
	}

	// A zero-length shot has a degenerate ellipse.
	if _, err := EllipseForShot(start, start, skill, 1); !errors.Is(err, ErrInvalidEllipse) {
		t.Errorf("expected ErrInvalidEllipse for zero-length shot, got %v", err)
	}
}
