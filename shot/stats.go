package shot

import "math"

// z95 is the two-sided 95% normal quantile.
const z95 = 1.96

// RunningStats accumulates mean and variance online using Welford's
// algorithm. The zero value is ready to use.
type RunningStats struct {
	n    int
	mean float64
	m2   float64 // sum of squared deviations
}

// Add folds one sample into the accumulator.
func (s *RunningStats) Add(x float64) {
	s.n++
	delta := x - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (x - s.mean)
}

// N returns the number of samples seen.
func (s *RunningStats) N() int { return s.n }

// Mean returns the running mean, 0 before any samples.
func (s *RunningStats) Mean() float64 { return s.mean }

// Variance returns the unbiased sample variance, 0 for fewer than two
// samples.
func (s *RunningStats) Variance() float64 {
	if s.n < 2 {
		return 0
	}
	return s.m2 / float64(s.n-1)
}

// CI95 returns the half-width of the 95% confidence interval around the
// mean: 1.96 * sqrt(variance/n). For fewer than two samples the interval is
// unbounded.
func (s *RunningStats) CI95() float64 {
	if s.n < 2 {
		return math.Inf(1)
	}
	return z95 * math.Sqrt(s.Variance()/float64(s.n))
}

// SampleBudget controls how many samples an evaluation consumes before
// stopping.
type SampleBudget struct {
	MinSamples int
	MaxSamples int
	Epsilon    float64 // CI95 stop threshold; <= 0 disables the CI stop
}

// Budget returns a budget with a fixed sample count and no CI stop.
func Budget(n int) SampleBudget {
	return SampleBudget{MinSamples: n, MaxSamples: n}
}

// Converged reports whether the accumulator satisfies the stopping policy:
// the sample cap is reached, or at least MinSamples have been seen and the
// confidence interval has shrunk below Epsilon. A stream that ends earlier
// simply yields its partial result; that is the caller's concern, not a
// failure here.
func (s *RunningStats) Converged(b SampleBudget) bool {
	if b.MaxSamples > 0 && s.n >= b.MaxSamples {
		return true
	}
	if b.Epsilon > 0 && s.n >= b.MinSamples && s.n >= 2 && s.CI95() <= b.Epsilon {
		return true
	}
	return false
}
