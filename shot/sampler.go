package shot

import "math"

// Halton returns the i-th element (1-based) of the Halton low-discrepancy
// sequence for the given base. The sequence is stateless: the same (i, base)
// always yields the same value.
func Halton(i, base int) float64 {
	f := 1.0
	r := 0.0
	for i > 0 {
		f /= float64(base)
		r += f * float64(i%base)
		i /= base
	}
	return r
}

// EllipsePoint returns the i-th (1-based) deterministic sample inside the
// dispersion ellipse. Bases 2 and 3 drive radius and angle independently, the
// sqrt on the radius draw makes the density uniform over the ellipse area.
// Extending a sample set is a matter of extending i; earlier indices never
// change.
func EllipsePoint(i int, e EllipseParams) GeoPoint {
	r := math.Sqrt(Halton(i, 2))
	theta := 2 * math.Pi * Halton(i, 3)

	// Ellipse-local frame: u along the heading, v across it.
	u := e.SemiMajor * r * math.Cos(theta)
	v := e.SemiMinor * r * math.Sin(theta)

	sin, cos := math.Sincos(e.Heading)
	east := u*sin + v*cos
	north := u*cos - v*sin

	return ToGeo(LocalPoint{X: east, Y: north}, e.Center)
}

// EllipsePoints generates n deterministic samples inside the ellipse.
// Degenerate axes are an input error; nothing is sampled.
func EllipsePoints(n int, e EllipseParams) ([]GeoPoint, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	pts := make([]GeoPoint, n)
	for i := range pts {
		pts[i] = EllipsePoint(i+1, e)
	}
	return pts, nil
}

// EllipseForShot derives the dispersion ellipse for a shot from start aimed at
// aim. The along-track semi-axis is the distance dispersion (percentage of
// shot length, scaled by rollMultiplier for firm conditions), the cross-track
// semi-axis the lateral dispersion (half-angle at the shot length). The
// ellipse is centered on the aim point and aligned with the shot bearing.
func EllipseForShot(start, aim GeoPoint, skill SkillPreset, rollMultiplier float64) (EllipseParams, error) {
	if rollMultiplier <= 0 {
		rollMultiplier = 1
	}
	length := DistanceMeters(start, aim)
	e := EllipseParams{
		SemiMajor: length * skill.DistPct / 100 * rollMultiplier,
		SemiMinor: length * math.Tan(skill.OfflineDeg*math.Pi/180),
		Heading:   BearingRad(start, aim),
		Center:    aim,
	}
	if err := e.Validate(); err != nil {
		return EllipseParams{}, err
	}
	return e, nil
}
