package shot

import (
	"math"
	"sync"
)

// strokeCurve is one fitted expected-strokes curve. The polynomial is valid
// over [domainMin, domainMax] yards. Below the domain the curve extrapolates
// linearly from (0, base) through the value at domainMin; above it the line
// continues from the value at domainMax toward the fixed long-distance anchor
// at 600 yards. Both extrapolations are anchored at the boundary values, so
// the full curve is continuous.
type strokeCurve struct {
	domainMin float64
	domainMax float64
	base      float64 // expected strokes at zero distance
	anchor600 float64 // expected strokes at the 600 yd anchor

	// Polynomial coefficients, constant term first (degree 6).
	coeffs [7]float64
}

func (c strokeCurve) eval(d float64) float64 {
	// Horner.
	v := c.coeffs[6]
	for i := 5; i >= 0; i-- {
		v = v*d + c.coeffs[i]
	}
	return v
}

func (c strokeCurve) strokes(d float64) float64 {
	switch {
	case d < c.domainMin:
		atMin := c.eval(c.domainMin)
		return c.base + (atMin-c.base)*d/c.domainMin
	case d > c.domainMax:
		atMax := c.eval(c.domainMax)
		slope := (c.anchor600 - atMax) / (600 - c.domainMax)
		return atMax + slope*(d-c.domainMax)
	default:
		return c.eval(d)
	}
}

// strokeCurves holds the per-class fits. Water, hazard and out-of-bounds have
// no curve of their own: they score as rough plus a flat penalty, applied in
// ExpectedStrokes. Tee lies score on the fairway curve.
var strokeCurves = map[TerrainClass]strokeCurve{
	ClassGreen: {
		domainMin: 0.33, domainMax: 33.4, base: 1.0, anchor600: 5.25,
		coeffs: [7]float64{
			0.964835833206, 0.138201504061, -4.07521702396e-03,
			4.06708285825e-05, -4.8e-09, 2.1e-11, -3.5e-14,
		},
	},
	ClassFairway: {
		domainMin: 7.5, domainMax: 349, base: 1.0, anchor600: 5.40,
		coeffs: [7]float64{
			2.25061553034, 6.64130747886e-03, -7.61609314123e-06,
			7.27420548351e-09, -3.1e-13, 1.4e-16, -2.2e-20,
		},
	},
	ClassRough: {
		domainMin: 7.5, domainMax: 349, base: 1.5, anchor600: 5.50,
		coeffs: [7]float64{
			2.45197769308, 6.44907331505e-03, -6.19088858099e-06,
			5.91297858738e-09, -3.1e-13, 1.4e-16, -2.2e-20,
		},
	},
	ClassBunker: {
		domainMin: 7.5, domainMax: 349, base: 2.0, anchor600: 5.60,
		coeffs: [7]float64{
			2.65470201856, 6.06460498744e-03, -3.3404794605e-06,
			3.19052479513e-09, -3.1e-13, 1.4e-16, -2.2e-20,
		},
	},
	ClassRecovery: {
		domainMin: 7.5, domainMax: 349, base: 3.0, anchor600: 5.80,
		coeffs: [7]float64{
			3.55832102213, 5.59488060972e-03, -5.0607263683e-06,
			4.83354953993e-09, -3.1e-13, 1.4e-16, -2.2e-20,
		},
	},
}

// curveClass maps a terrain class to the class whose curve scores it.
func curveClass(c TerrainClass) TerrainClass {
	switch c {
	case ClassGreen, ClassFairway, ClassRough, ClassBunker, ClassRecovery:
		return c
	case ClassTee:
		return ClassFairway
	default:
		// Unknown and the hazard classes score on the rough curve; hazard
		// penalties are added on top by ExpectedStrokes.
		return ClassRough
	}
}

// strokesCacheCap bounds the per-model cache. Eviction is FIFO; correctness
// does not depend on retention.
const strokesCacheCap = 4096

type strokesKey struct {
	dist  int32 // distance rounded to 0.1 yd
	class TerrainClass
}

// StrokesModel evaluates expected strokes to hole out from a distance and
// lie. It is a pure lookup with a bounded cache: repeated Monte-Carlo draws
// land at near-identical distances, so values are cached on the distance
// rounded to a tenth of a yard. Safe for concurrent use.
type StrokesModel struct {
	mu    sync.Mutex
	cache map[strokesKey]float64
	order []strokesKey
}

// NewStrokesModel returns an empty model.
func NewStrokesModel() *StrokesModel {
	return &StrokesModel{
		cache: make(map[strokesKey]float64, strokesCacheCap),
	}
}

// Strokes returns the expected strokes for a raw lie class, without hazard
// penalties. Distances outside the fitted domain extrapolate rather than
// error, keeping the Monte-Carlo hot loop failure-free. The result is clamped
// to a minimum of one stroke.
func (m *StrokesModel) Strokes(distanceYds float64, class TerrainClass) float64 {
	if distanceYds < 0 || math.IsNaN(distanceYds) {
		distanceYds = 0
	}
	cc := curveClass(class)
	key := strokesKey{dist: int32(distanceYds*10 + 0.5), class: cc}

	m.mu.Lock()
	if v, ok := m.cache[key]; ok {
		m.mu.Unlock()
		return v
	}
	m.mu.Unlock()

	// Evaluate on the rounded distance so cache hits and misses agree.
	d := float64(key.dist) / 10
	v := strokeCurves[cc].strokes(d)
	if v < 1 {
		v = 1
	}

	m.mu.Lock()
	if len(m.order) >= strokesCacheCap {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.cache, oldest)
	}
	if _, ok := m.cache[key]; !ok {
		m.cache[key] = v
		m.order = append(m.order, key)
	}
	m.mu.Unlock()
	return v
}

// ExpectedStrokes applies the composite scoring rules on top of the raw
// curves: water costs a penalty drop (rough + 1), out of bounds stroke and
// distance (rough + 2), other hazards rough + 1.
func (m *StrokesModel) ExpectedStrokes(distanceYds float64, class TerrainClass) float64 {
	switch class {
	case ClassWater:
		return m.Strokes(distanceYds, ClassRough) + 1
	case ClassOutOfBounds:
		return m.Strokes(distanceYds, ClassRough) + 2
	case ClassHazard:
		return m.Strokes(distanceYds, ClassRough) + 1
	default:
		return m.Strokes(distanceYds, class)
	}
}
