package shot

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fairwayCourse builds an all-fairway mask around the origin, roughly 1200
// yards in every direction.
func fairwayCourse(t *testing.T) *MaskBuffer {
	t.Helper()
	bounds := orb.Bound{
		Min: orb.Point{-0.011, -0.011},
		Max: orb.Point{0.011, 0.011},
	}
	m, err := NewMaskBuffer(64, 64, bounds, ClassFairway)
	require.NoError(t, err)
	return m
}

func yardsNorth(origin GeoPoint, yds, eastYds float64) GeoPoint {
	return ToGeo(LocalPoint{
		X: eastYds * MetersPerYard,
		Y: yds * MetersPerYard,
	}, origin)
}

func TestEvaluateLayupMatchesStrokesModel(t *testing.T) {
	// Laying up 150 yards short of a 300 yard pin on open fairway: the mean
	// over the dispersion ellipse must agree with the strokes model evaluated
	// at the remaining distance. The dispersion is small and the curve near
	// linear, so the Monte-Carlo mean lands within a few thousandths.
	mask := fairwayCourse(t)
	start := GeoPoint{0, 0}
	aim := yardsNorth(start, 150, 0)
	pin := yardsNorth(start, 300, 0)
	skill := SkillPreset{Name: "scratch", OfflineDeg: 5.9, DistPct: 4.7}

	ev := NewEvaluator()
	res, err := ev.Evaluate(start, aim, pin, skill, mask, Budget(2000))
	require.NoError(t, err)

	assert.Equal(t, 2000, res.N)
	assert.Equal(t, 2000, res.CountsByClass[ClassFairway])
	assert.Len(t, res.CountsByClass, 1)

	want := ev.Model.Strokes(DistanceYards(aim, pin), ClassFairway)
	assert.InDelta(t, want, res.Mean, 0.05)
	assert.Greater(t, res.CI95, 0.0)
	assert.Less(t, res.CI95, 0.05)
	assert.Equal(t, ClassFairway, res.DominantClass())
}

func TestEvaluateDeterministic(t *testing.T) {
	mask := fairwayCourse(t)
	start := GeoPoint{0, 0}
	aim := yardsNorth(start, 180, 10)
	pin := yardsNorth(start, 320, 0)
	skill := SkillPreset{Name: "mid", OfflineDeg: 8.2, DistPct: 6.6}

	ev := NewEvaluator()
	a, err := ev.Evaluate(start, aim, pin, skill, mask, Budget(500))
	require.NoError(t, err)
	b, err := ev.Evaluate(start, aim, pin, skill, mask, Budget(500))
	require.NoError(t, err)

	assert.Equal(t, a.Mean, b.Mean)
	assert.Equal(t, a.CI95, b.CI95)
	assert.Equal(t, a.CountsByClass, b.CountsByClass)
}

func TestEvaluateConvergesEarly(t *testing.T) {
	// On uniform terrain the CI tightens fast; a loose epsilon must stop
	// sampling well before the cap.
	mask := fairwayCourse(t)
	start := GeoPoint{0, 0}
	aim := yardsNorth(start, 150, 0)
	pin := yardsNorth(start, 300, 0)
	skill := SkillPreset{Name: "scratch", OfflineDeg: 5.9, DistPct: 4.7}

	ev := NewEvaluator()
	res, err := ev.Evaluate(start, aim, pin, skill, mask, SampleBudget{
		MinSamples: 100,
		MaxSamples: 100000,
		Epsilon:    0.05,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.N, 100)
	assert.Less(t, res.N, 100000)
	assert.LessOrEqual(t, res.CI95, 0.05)
}

func TestEvaluateInputErrors(t *testing.T) {
	mask := fairwayCourse(t)
	start := GeoPoint{0, 0}
	aim := yardsNorth(start, 150, 0)
	pin := yardsNorth(start, 300, 0)
	skill := SkillPreset{Name: "mid", OfflineDeg: 8.2, DistPct: 6.6}
	ev := NewEvaluator()

	_, err := ev.Evaluate(start, aim, pin, skill, nil, Budget(100))
	assert.ErrorIs(t, err, ErrEmptyMask)

	_, err = ev.Evaluate(start, aim, pin, skill, mask, SampleBudget{})
	assert.ErrorIs(t, err, ErrZeroBudget)

	// Aiming at the start point degenerates the ellipse.
	_, err = ev.Evaluate(start, start, pin, skill, mask, Budget(100))
	assert.ErrorIs(t, err, ErrInvalidEllipse)
}

func TestEvaluatePenalizesWaterCarry(t *testing.T) {
	// An aim point centered on water must score at least a stroke worse than
	// the same-length shot on open fairway.
	mask := fairwayCourse(t)
	start := GeoPoint{0, 0}
	pin := yardsNorth(start, 300, 0)
	skill := SkillPreset{Name: "mid", OfflineDeg: 8.2, DistPct: 6.6}

	wet := yardsNorth(start, 150, 0)
	mask.PaintDisc(wet, 60*MetersPerYard, ClassWater)

	ev := NewEvaluator()
	onWater, err := ev.Evaluate(start, wet, pin, skill, mask, Budget(500))
	require.NoError(t, err)
	dry := yardsNorth(start, 150, -100)
	onFairway, err := ev.Evaluate(start, dry, pin, skill, mask, Budget(500))
	require.NoError(t, err)

	assert.Equal(t, ClassWater, onWater.DominantClass())
	assert.Greater(t, onWater.Mean, onFairway.Mean+0.5)
}
