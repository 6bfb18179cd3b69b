package shot

import (
	"context"
	"fmt"
)

// ElevationFunc looks up terrain height in meters at a point. It is the one
// asynchronous boundary of the engine: best effort, possibly slow, possibly
// failing. A nil func means no elevation data.
type ElevationFunc func(ctx context.Context, p GeoPoint) (float64, error)

// Evaluator runs Monte-Carlo evaluations of aim points. It owns the strokes
// model (and its cache) so repeated evaluations share lookups. Safe for
// concurrent use.
type Evaluator struct {
	Model *StrokesModel

	// RollMultiplier scales the along-track dispersion axis; <= 0 means 1.
	RollMultiplier float64
}

// NewEvaluator returns an evaluator with a fresh strokes model.
func NewEvaluator() *Evaluator {
	return &Evaluator{Model: NewStrokesModel()}
}

// Evaluate samples the dispersion ellipse of a shot from start aimed at aim,
// classifies each landing point against the mask, scores it by remaining
// distance to the pin, and aggregates the scores. Sampling stops early once
// the budget's convergence policy is met.
//
// Input errors (degenerate ellipse, empty mask, zero budget) are rejected
// before any sampling begins.
func (ev *Evaluator) Evaluate(start, aim, pin GeoPoint, skill SkillPreset, mask *MaskBuffer, budget SampleBudget) (EvaluationResult, error) {
	return ev.evaluate(start, aim, pin, skill, mask, budget, ev.RollMultiplier)
}

// evaluate is Evaluate with the roll multiplier passed explicitly, so a
// caller running many evaluations can scope the multiplier to its own run
// instead of mutating the shared evaluator.
func (ev *Evaluator) evaluate(start, aim, pin GeoPoint, skill SkillPreset, mask *MaskBuffer, budget SampleBudget, rollMultiplier float64) (EvaluationResult, error) {
	if err := mask.Validate(); err != nil {
		return EvaluationResult{}, err
	}
	if budget.MaxSamples <= 0 {
		return EvaluationResult{}, fmt.Errorf("%w: maxSamples=%d", ErrZeroBudget, budget.MaxSamples)
	}

	ellipse, err := EllipseForShot(start, aim, skill, rollMultiplier)
	if err != nil {
		return EvaluationResult{}, err
	}

	var stats RunningStats
	counts := make(map[TerrainClass]int)
	for i := 1; i <= budget.MaxSamples; i++ {
		s := ev.sampleOne(i, ellipse, pin, mask)
		counts[s.Class]++
		stats.Add(s.Strokes)
		if stats.Converged(budget) {
			break
		}
	}

	return EvaluationResult{
		Mean:          stats.Mean(),
		CI95:          stats.CI95(),
		N:             stats.N(),
		CountsByClass: counts,
	}, nil
}

// sampleOne produces the i-th stroke sample for an ellipse and pin.
func (ev *Evaluator) sampleOne(i int, ellipse EllipseParams, pin GeoPoint, mask *MaskBuffer) StrokeSample {
	p := EllipsePoint(i, ellipse)
	class := mask.Classify(p)
	d := DistanceYards(p, pin)
	return StrokeSample{
		Point:       p,
		Class:       class,
		DistanceYds: d,
		Strokes:     ev.Model.ExpectedStrokes(d, class),
	}
}
