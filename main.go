package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/paulmach/orb"

	"github.com/kwv/caddysim/shot"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	configFile = flag.String("config", "", "Path to configuration file (optional)")
	maskFile   = flag.String("mask", "", "Classified mask PNG (class id in red channel); omit for a synthetic demo course")
	bboxFlag   = flag.String("bbox", "", "Mask bounding box as west,south,east,north (required with -mask)")
	startFlag  = flag.String("start", "", "Shot origin as lat,lon")
	pinFlag    = flag.String("pin", "", "Pin position as lat,lon")
	skillName  = flag.String("skill", "", "Skill preset name (overrides config)")
	strategy   = flag.String("strategy", "", "Search strategy: full_grid, ring_grid or cem (overrides config)")
	outputFile = flag.String("output", "", "Write a debug PNG of the mask and ranked candidates")
)

func main() {
	flag.Parse()
	fmt.Printf("caddysim version: %s\n", Version)

	cfg := &shot.Config{Skill: "mid", Optimizer: shot.DefaultOptimizerConfig()}
	if *configFile != "" {
		loaded, err := shot.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *skillName != "" {
		cfg.Skill = *skillName
	}
	if *strategy != "" {
		cfg.Optimizer.Strategy = shot.SearchStrategy(*strategy)
	}

	skill, err := cfg.ResolveSkill()
	if err != nil {
		log.Fatalf("Failed to resolve skill preset: %v", err)
	}

	mask, start, pin, err := loadCourse()
	if err != nil {
		log.Fatalf("Failed to load course: %v", err)
	}

	log.Printf("Optimizing: strategy=%s skill=%s maxDistance=%.0fyd",
		cfg.Optimizer.Strategy, skill.Name, cfg.Optimizer.MaxDistanceYards)

	opt := shot.NewOptimizer(shot.NewEvaluator(), cfg.Optimizer, skill)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events, err := opt.Run(ctx, start, pin, mask)
	if err != nil {
		log.Fatalf("Failed to start search: %v", err)
	}

	var candidates []shot.Candidate
	for ev := range events {
		switch ev.Type {
		case shot.EventProgress:
			log.Printf("  %3.0f%% %s", ev.Progress, ev.Note)
		case shot.EventDone:
			candidates = ev.Candidates
		case shot.EventCancelled:
			log.Println("Search cancelled")
			return
		case shot.EventError:
			log.Fatalf("Search failed: %v", ev.Err)
		}
	}

	if len(candidates) == 0 {
		log.Println("No feasible candidates found")
		return
	}

	fmt.Println("\nRanked aim points:")
	for i, c := range candidates {
		fmt.Printf("%2d. (%.6f, %.6f)  ES %.3f ±%.3f  n=%d  %.0fyd (plays %.0fyd)  %s\n",
			i+1, c.Position.Lat, c.Position.Lon,
			c.Evaluation.Mean, c.Evaluation.CI95, c.Evaluation.N,
			c.DistanceFromStart, c.PlaysLikeYds, c.Evaluation.DominantClass())
	}

	if *outputFile != "" {
		if err := shot.SaveMaskPNG(*outputFile, mask, start, pin, candidates); err != nil {
			log.Fatalf("Failed to write debug render: %v", err)
		}
		log.Printf("Wrote debug render to %s", *outputFile)
	}
}

// loadCourse assembles the mask, start and pin either from the -mask flag or,
// when absent, as a small synthetic course: fairway with a water carry short
// of the green.
func loadCourse() (*shot.MaskBuffer, shot.GeoPoint, shot.GeoPoint, error) {
	if *maskFile == "" {
		return demoCourse()
	}

	bbox, err := parseBBox(*bboxFlag)
	if err != nil {
		return nil, shot.GeoPoint{}, shot.GeoPoint{}, err
	}
	start, err := parseLatLon(*startFlag)
	if err != nil {
		return nil, shot.GeoPoint{}, shot.GeoPoint{}, fmt.Errorf("parsing -start: %w", err)
	}
	pin, err := parseLatLon(*pinFlag)
	if err != nil {
		return nil, shot.GeoPoint{}, shot.GeoPoint{}, fmt.Errorf("parsing -pin: %w", err)
	}

	f, err := os.Open(*maskFile)
	if err != nil {
		return nil, shot.GeoPoint{}, shot.GeoPoint{}, err
	}
	defer func() { _ = f.Close() }()

	img, err := png.Decode(f)
	if err != nil {
		return nil, shot.GeoPoint{}, shot.GeoPoint{}, fmt.Errorf("decoding mask PNG: %w", err)
	}
	mask, err := shot.MaskFromImage(img, bbox)
	if err != nil {
		return nil, shot.GeoPoint{}, shot.GeoPoint{}, err
	}
	return mask, start, pin, nil
}

// demoCourse builds a 420x260 yd course: rough with a fairway corridor, a
// water carry at 180 yd and a green around the pin at 330 yd.
func demoCourse() (*shot.MaskBuffer, shot.GeoPoint, shot.GeoPoint, error) {
	start := shot.GeoPoint{Lat: 0, Lon: 0}
	north := func(yds, eastYds float64) shot.GeoPoint {
		return shot.ToGeo(shot.LocalPoint{
			X: eastYds * shot.MetersPerYard,
			Y: yds * shot.MetersPerYard,
		}, start)
	}
	pin := north(330, 0)

	sw := north(-30, -130)
	ne := north(390, 130)
	bbox := orb.Bound{Min: sw.Orb(), Max: ne.Orb()}

	mask, err := shot.NewMaskBuffer(260, 420, bbox, shot.ClassRough)
	if err != nil {
		return nil, shot.GeoPoint{}, shot.GeoPoint{}, err
	}
	for yd := 0.0; yd <= 340; yd += 2 {
		mask.PaintDisc(north(yd, 0), 35*shot.MetersPerYard, shot.ClassFairway)
	}
	mask.PaintDisc(north(180, 0), 40*shot.MetersPerYard, shot.ClassWater)
	mask.PaintDisc(pin, 18*shot.MetersPerYard, shot.ClassGreen)
	mask.PaintDisc(start, 8*shot.MetersPerYard, shot.ClassTee)

	return mask, start, pin, nil
}

func parseLatLon(s string) (shot.GeoPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return shot.GeoPoint{}, fmt.Errorf("expected lat,lon, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return shot.GeoPoint{}, err
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return shot.GeoPoint{}, err
	}
	return shot.GeoPoint{Lat: lat, Lon: lon}, nil
}

func parseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("expected west,south,east,north, got %q", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("parsing -bbox: %w", err)
		}
		vals[i] = v
	}
	return orb.Bound{
		Min: orb.Point{vals[0], vals[1]},
		Max: orb.Point{vals[2], vals[3]},
	}, nil
}
