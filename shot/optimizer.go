package shot

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// EventType tags optimizer run events.
type EventType int

const (
	EventProgress EventType = iota
	EventDone
	EventError
	EventCancelled
)

func (t EventType) String() string {
	switch t {
	case EventProgress:
		return "progress"
	case EventDone:
		return "done"
	case EventError:
		return "error"
	case EventCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// Event is one message from a running search. Progress events carry a
// monotonically increasing percentage and a free-text stage note; they are
// observational only. Exactly one terminal event (Done, Error or Cancelled)
// ends the stream, after which the channel is closed.
type Event struct {
	Type       EventType
	Progress   float64
	Note       string
	Candidates []Candidate
	Err        error
}

// Optimizer searches for the aim point minimizing expected strokes. It is
// the only stateful component of the engine: one search runs at a time, on
// its own goroutines, and supports cooperative cancellation via a generation
// counter. Everything it calls into (sampler, classifier, strokes model,
// stats) is pure.
type Optimizer struct {
	Evaluator *Evaluator
	Config    OptimizerConfig
	Skill     SkillPreset
	Elevation ElevationFunc

	mu     sync.Mutex
	state  RunState
	cancel context.CancelFunc

	// generation invalidates in-flight work: it is bumped on every Cancel,
	// and results from a stale generation are discarded, never reported.
	generation atomic.Int64
}

// NewOptimizer wires an optimizer around an evaluator.
func NewOptimizer(ev *Evaluator, cfg OptimizerConfig, skill SkillPreset) *Optimizer {
	return &Optimizer{Evaluator: ev, Config: cfg, Skill: skill, state: StateIdle}
}

// State returns the current lifecycle state.
func (o *Optimizer) State() RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Cancel requests cooperative cancellation of the running search. In-flight
// candidate evaluations discard their results; the run resolves to Cancelled.
func (o *Optimizer) Cancel() {
	o.generation.Add(1)
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Run starts a search from start toward pin over the given mask. It returns
// a channel of events ending in exactly one terminal event. Input problems
// (bad config, empty mask) are rejected synchronously.
func (o *Optimizer) Run(ctx context.Context, start, pin GeoPoint, mask *MaskBuffer) (<-chan Event, error) {
	cfg := o.Config.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := mask.Validate(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	if o.state == StateSearching {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	runCtx, cancel := context.WithCancel(ctx)
	o.state = StateSearching
	o.cancel = cancel
	o.mu.Unlock()

	gen := o.generation.Load()
	events := make(chan Event, 64)
	go o.run(runCtx, gen, start, pin, mask, cfg, events)
	return events, nil
}

// run drives one search generation to a terminal state.
func (o *Optimizer) run(ctx context.Context, gen int64, start, pin GeoPoint, mask *MaskBuffer, cfg OptimizerConfig, events chan<- Event) {
	defer close(events)

	prog := &progressSink{events: events, cancelled: func() bool {
		return ctx.Err() != nil || o.generation.Load() != gen
	}}

	candidates, err := o.search(ctx, start, pin, mask, cfg, prog)
	switch {
	case prog.cancelled():
		o.setState(StateCancelled)
		events <- Event{Type: EventCancelled}
	case err != nil:
		o.setState(StateErrored)
		events <- Event{Type: EventError, Err: err}
	default:
		o.setState(StateDone)
		prog.report(100, "done")
		events <- Event{Type: EventDone, Candidates: candidates}
	}
}

func (o *Optimizer) setState(s RunState) {
	o.mu.Lock()
	o.state = s
	o.cancel = nil
	o.mu.Unlock()
}

// search runs the strategy, the two-phase evaluation and the feasibility
// filter. A cancelled context surfaces as context.Canceled; the caller maps
// that to the Cancelled terminal state.
func (o *Optimizer) search(ctx context.Context, start, pin GeoPoint, mask *MaskBuffer, cfg OptimizerConfig, prog *progressSink) ([]Candidate, error) {
	earlyBudget := Budget(cfg.EarlySampleCount)
	finalBudget := SampleBudget{
		MinSamples: cfg.EarlySampleCount,
		MaxSamples: cfg.FinalSampleCount,
		Epsilon:    cfg.CI95StopThreshold,
	}

	prog.report(2, "generating candidates")

	var scored []Candidate
	var err error
	switch cfg.Strategy {
	case StrategyCEM:
		scored, err = o.cemSearch(ctx, start, pin, mask, cfg, earlyBudget, prog)
	default:
		var positions []GeoPoint
		if cfg.Strategy == StrategyFullGrid {
			positions = fullGridPositions(start, pin, cfg)
		} else {
			positions = ringGridPositions(start, pin, cfg)
		}
		scored, err = o.evaluateBatch(ctx, start, pin, mask, positions, earlyBudget, cfg, prog, 5, 70, "early evaluation")
	}
	if err != nil {
		return nil, err
	}

	sortCandidates(scored)
	if len(scored) > cfg.TopCandidates {
		scored = scored[:cfg.TopCandidates]
	}

	// Precise pass over the survivors only.
	positions := make([]GeoPoint, len(scored))
	for i, c := range scored {
		positions[i] = c.Position
	}
	final, err := o.evaluateBatch(ctx, start, pin, mask, positions, finalBudget, cfg, prog, 70, 92, "final evaluation")
	if err != nil {
		return nil, err
	}
	sortCandidates(final)

	prog.report(95, "feasibility filtering")
	filter := &FeasibilityFilter{
		MaxDistanceYards:       cfg.MaxDistanceYards,
		MinSeparationMeters:    cfg.MinSeparationMeters,
		DisallowFartherThanPin: cfg.DisallowFartherThanPin,
		Elevation:              o.Elevation,
	}
	final = filter.Apply(ctx, start, pin, final)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return final, nil
}

// evaluateBatch fans candidate evaluations out over a bounded worker pool.
// Evaluations are independent; results land in their own slots, so no
// ordering is imposed beyond the group wait.
func (o *Optimizer) evaluateBatch(ctx context.Context, start, pin GeoPoint, mask *MaskBuffer, positions []GeoPoint, budget SampleBudget, cfg OptimizerConfig, prog *progressSink, pFrom, pTo float64, note string) ([]Candidate, error) {
	if len(positions) == 0 {
		return nil, nil
	}
	results := make([]Candidate, len(positions))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for idx := range positions {
		idx := idx
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pos := positions[idx]
			eval, err := o.Evaluator.evaluate(start, pos, pin, o.Skill, mask, budget, cfg.RollMultiplier)
			if err != nil {
				return fmt.Errorf("evaluating candidate %d: %w", idx, err)
			}
			results[idx] = Candidate{
				Position:          pos,
				Evaluation:        eval,
				DistanceFromStart: DistanceYards(start, pos),
			}
			n := done.Add(1)
			prog.report(pFrom+(pTo-pFrom)*float64(n)/float64(len(positions)), note)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// fullGridPositions enumerates a regular grid over the reachable disc.
func fullGridPositions(start, pin GeoPoint, cfg OptimizerConfig) []GeoPoint {
	radius := cfg.MaxDistanceYards * MetersPerYard
	step := cfg.GridSpacingYards * MetersPerYard
	pinDist := DistanceMeters(start, pin)

	var pts []GeoPoint
	for y := -radius; y <= radius; y += step {
		for x := -radius; x <= radius; x += step {
			d := math.Hypot(x, y)
			if d < step/2 || d > radius {
				continue
			}
			if cfg.DisallowFartherThanPin && d > pinDist {
				continue
			}
			pts = append(pts, ToGeo(LocalPoint{X: x, Y: y}, start))
		}
	}
	return pts
}

// ringGridPositions enumerates concentric rings confined to the forward
// half-disc: directions within 90 degrees of the start-to-pin bearing.
func ringGridPositions(start, pin GeoPoint, cfg OptimizerConfig) []GeoPoint {
	bearing := BearingRad(start, pin)
	radius := cfg.MaxDistanceYards * MetersPerYard
	if cfg.DisallowFartherThanPin {
		if pd := DistanceMeters(start, pin); pd < radius {
			radius = pd
		}
	}
	rStep := cfg.RingRadiusStepYards * MetersPerYard
	aStep := cfg.RingAngleStepDeg * math.Pi / 180

	var pts []GeoPoint
	for r := rStep; r <= radius+1e-9; r += rStep {
		for a := -math.Pi / 2; a <= math.Pi/2+1e-9; a += aStep {
			theta := bearing + a
			pts = append(pts, ToGeo(LocalPoint{
				X: r * math.Sin(theta),
				Y: r * math.Cos(theta),
			}, start))
		}
	}
	return pts
}

// cemSearch refines a 2D Gaussian over (radius, angle offset) toward the
// lowest-mean region. Every evaluated candidate is retained so the two-phase
// promotion that follows sees the full history, not just the last batch.
func (o *Optimizer) cemSearch(ctx context.Context, start, pin GeoPoint, mask *MaskBuffer, cfg OptimizerConfig, budget SampleBudget, prog *progressSink) ([]Candidate, error) {
	rng := rand.New(rand.NewSource(cfg.CEMSeed))
	bearing := BearingRad(start, pin)
	pinDistYds := DistanceYards(start, pin)

	maxR := cfg.MaxDistanceYards
	if cfg.DisallowFartherThanPin && pinDistYds < maxR {
		maxR = pinDistYds
	}

	meanR := 0.7 * maxR
	if pinDistYds < meanR {
		meanR = pinDistYds
	}
	meanA := 0.0
	sigR := 0.3 * maxR
	sigA := math.Pi / 4
	floorR := cfg.CEMSigmaFloor
	floorA := 2 * math.Pi / 180

	var all []Candidate
	for it := 0; it < cfg.CEMIterations; it++ {
		radii := make([]float64, cfg.CEMBatchSize)
		angles := make([]float64, cfg.CEMBatchSize)
		positions := make([]GeoPoint, cfg.CEMBatchSize)
		for j := range positions {
			r := clamp(meanR+sigR*rng.NormFloat64(), 5, maxR)
			a := clamp(meanA+sigA*rng.NormFloat64(), -math.Pi/2, math.Pi/2)
			radii[j], angles[j] = r, a
			theta := bearing + a
			positions[j] = ToGeo(LocalPoint{
				X: r * MetersPerYard * math.Sin(theta),
				Y: r * MetersPerYard * math.Cos(theta),
			}, start)
		}

		pFrom := 5 + 65*float64(it)/float64(cfg.CEMIterations)
		pTo := 5 + 65*float64(it+1)/float64(cfg.CEMIterations)
		note := fmt.Sprintf("cem iteration %d/%d", it+1, cfg.CEMIterations)
		scored, err := o.evaluateBatch(ctx, start, pin, mask, positions, budget, cfg, prog, pFrom, pTo, note)
		if err != nil {
			return nil, err
		}
		all = append(all, scored...)

		// Elite selection: lowest mean expected strokes.
		order := make([]int, len(scored))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(i, j int) bool {
			return scored[order[i]].Evaluation.Mean < scored[order[j]].Evaluation.Mean
		})
		nElite := int(math.Ceil(cfg.CEMElitePct * float64(len(scored))))
		if nElite < 2 {
			nElite = 2
		}
		if nElite > len(order) {
			nElite = len(order)
		}
		eliteR := make([]float64, nElite)
		eliteA := make([]float64, nElite)
		for i := 0; i < nElite; i++ {
			eliteR[i] = radii[order[i]]
			eliteA[i] = angles[order[i]]
		}

		mr, sr := stat.MeanStdDev(eliteR, nil)
		ma, sa := stat.MeanStdDev(eliteA, nil)
		meanR, meanA = mr, ma
		if cfg.CEMPerAxisSigma {
			sigR, sigA = sr, sa
		} else {
			// Isotropic refit: both axes shrink by the larger relative
			// spread, preserving the axis ratio.
			shrink := math.Max(sr/sigR, sa/sigA)
			sigR *= shrink
			sigA *= shrink
		}
		// sigmaFloor keeps the search from collapsing prematurely.
		if math.IsNaN(sigR) || sigR < floorR {
			sigR = floorR
		}
		if math.IsNaN(sigA) || sigA < floorA {
			sigA = floorA
		}
	}
	return all, nil
}

// sortCandidates orders by mean expected strokes ascending, ties broken by
// lower ci95.
func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		mi, mj := cands[i].Evaluation.Mean, cands[j].Evaluation.Mean
		if math.Abs(mi-mj) > 1e-9 {
			return mi < mj
		}
		return cands[i].Evaluation.CI95 < cands[j].Evaluation.CI95
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// withDefaults fills zero-valued tunables from DefaultOptimizerConfig.
func (c OptimizerConfig) withDefaults() OptimizerConfig {
	def := DefaultOptimizerConfig()
	if c.Strategy == "" {
		c.Strategy = def.Strategy
	}
	if c.EarlySampleCount <= 0 {
		c.EarlySampleCount = def.EarlySampleCount
	}
	if c.FinalSampleCount <= 0 {
		c.FinalSampleCount = def.FinalSampleCount
	}
	if c.CI95StopThreshold <= 0 {
		c.CI95StopThreshold = def.CI95StopThreshold
	}
	if c.TopCandidates <= 0 {
		c.TopCandidates = def.TopCandidates
	}
	if c.RollMultiplier <= 0 {
		c.RollMultiplier = def.RollMultiplier
	}
	if c.GridSpacingYards <= 0 {
		c.GridSpacingYards = def.GridSpacingYards
	}
	if c.RingRadiusStepYards <= 0 {
		c.RingRadiusStepYards = def.RingRadiusStepYards
	}
	if c.RingAngleStepDeg <= 0 {
		c.RingAngleStepDeg = def.RingAngleStepDeg
	}
	if c.CEMIterations <= 0 {
		c.CEMIterations = def.CEMIterations
	}
	if c.CEMBatchSize <= 0 {
		c.CEMBatchSize = def.CEMBatchSize
	}
	if c.CEMElitePct <= 0 {
		c.CEMElitePct = def.CEMElitePct
	}
	if c.CEMSigmaFloor <= 0 {
		c.CEMSigmaFloor = def.CEMSigmaFloor
	}
	if c.CEMSeed == 0 {
		c.CEMSeed = def.CEMSeed
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	return c
}

// progressSink serializes progress reporting and keeps the percentage
// monotonic. Progress events are dropped rather than blocking the search
// when the consumer falls behind; they carry no results.
type progressSink struct {
	mu        sync.Mutex
	last      float64
	events    chan<- Event
	cancelled func() bool
}

func (p *progressSink) report(pct float64, note string) {
	if p.cancelled() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if pct < p.last {
		pct = p.last
	}
	p.last = pct

	// The send stays under the lock so deliveries preserve the clamped
	// order; it is non-blocking, so the lock is never held up on a slow
	// consumer.
	select {
	case p.events <- Event{Type: EventProgress, Progress: pct, Note: note}:
	default:
	}
}
