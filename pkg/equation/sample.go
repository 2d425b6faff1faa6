package equation

import (
	"errors"
	"fmt"
	"math"
	"regexp"

	"github.com/vjranagit/graphcalc/internal/log"
	"github.com/vjranagit/graphcalc/pkg/types"
)

const (
	// DefaultStep is the x increment for function families
	DefaultStep = 0.1
	// DefaultThetaStep is the angle increment for closed curves
	DefaultThetaStep = 0.01
	// MaxPoints bounds a single sweep
	MaxPoints = 100000

	// hyperbolaSpan is the |t| range swept on each hyperbola branch
	hyperbolaSpan = 2.0

	DefaultColor     = "#ff0000"
	DefaultThickness = 1
)

// DefaultDomain is the x range swept for function families
var DefaultDomain = types.Range{Min: -10, Max: 10}

var (
	// ErrFormatRejected is returned for equations in no known family
	ErrFormatRejected = errors.New("invalid equation format")
	ErrInvalidColor   = errors.New("color must be #rgb or #rrggbb")
	ErrInvalidWidth   = errors.New("thickness must be a positive integer")
	ErrInvalidSweep   = errors.New("invalid sampling domain or step")
)

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Options controls a sweep. Zero values select the defaults.
type Options struct {
	Domain    types.Range
	Step      float64
	ThetaStep float64
}

// WithDefaults fills zero fields with the package defaults.
func (o Options) WithDefaults() Options {
	if o.Domain == (types.Range{}) {
		o.Domain = DefaultDomain
	}
	if o.Step == 0 {
		o.Step = DefaultStep
	}
	if o.ThetaStep == 0 {
		o.ThetaStep = DefaultThetaStep
	}
	return o
}

// Validate checks the sweep is finite and bounded.
func (o Options) Validate() error {
	o = o.WithDefaults()
	if !o.Domain.Valid() || o.Step <= 0 || o.ThetaStep <= 0 {
		return ErrInvalidSweep
	}
	if sweepCount(o.Domain, o.Step) > MaxPoints || angleCount(o.ThetaStep) > MaxPoints {
		return fmt.Errorf("%w: more than %d points", ErrInvalidSweep, MaxPoints)
	}
	return nil
}

func sweepCount(d types.Range, step float64) int {
	n := math.Floor((d.Max-d.Min)/step+1e-9) + 1
	if n > MaxPoints+1 || math.IsNaN(n) {
		return MaxPoints + 1
	}
	return int(n)
}

func angleCount(step float64) int {
	n := math.Ceil(2 * math.Pi / step)
	if n > MaxPoints+1 || math.IsNaN(n) {
		return MaxPoints + 1
	}
	return int(n)
}

// Sample evaluates raw as a member of family. Points where the curve is
// undefined keep their x with a nil y. A raw string that does not parse,
// or does not have the shape family requires, yields no points and a
// logged warning.
func Sample(family types.Family, raw string, opts Options) types.Series {
	series := types.Series{Family: family, Equation: raw, Points: []types.Point{}}
	if err := opts.Validate(); err != nil {
		log.Warning.Printf("sample %q: %v", raw, err)
		return series
	}
	opts = opts.WithDefaults()

	eq, err := Parse(raw)
	if err != nil {
		log.Warning.Printf("sample %q: %v", raw, err)
		return series
	}

	switch family {
	case types.Circle:
		shape, ok := circleOf(eq)
		if !ok {
			log.Warning.Printf("sample %q: not a circle", raw)
			return series
		}
		series.Points = ellipse(shape.H, shape.K, shape.R, shape.R, opts.ThetaStep)
	case types.ConicSection:
		conic, ok := conicOf(eq)
		if !ok {
			log.Warning.Printf("sample %q: not a conic section", raw)
			return series
		}
		series.Points = sampleConic(conic, opts.ThetaStep)
		if len(series.Points) == 0 {
			log.Warning.Printf("sample %q: degenerate conic", raw)
		}
	case types.Unrecognized:
		log.Warning.Printf("sample %q: unrecognized family", raw)
	default:
		f, ok := functionForm(eq)
		if !ok {
			log.Warning.Printf("sample %q: expected y = f(x)", raw)
			return series
		}
		series.Points = sweep(f, opts.Domain, opts.Step)
	}
	if series.Points == nil {
		series.Points = []types.Point{}
	}
	return series
}

func sweep(f Expr, d types.Range, step float64) []types.Point {
	n := sweepCount(d, step)
	points := make([]types.Point, n)
	for i := 0; i < n; i++ {
		x := d.Min + float64(i)*step
		points[i] = point(x, f.Eval(Vars{X: x}))
	}
	return points
}

func point(x, y float64) types.Point {
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return types.Point{X: x}
	}
	return types.Point{X: x, Y: &y}
}

// ellipse walks θ over [0, 2π) around (h, k)
func ellipse(h, k, rx, ry, step float64) []types.Point {
	n := angleCount(step)
	points := make([]types.Point, n)
	for i := 0; i < n; i++ {
		theta := float64(i) * step
		points[i] = point(h+rx*math.Cos(theta), k+ry*math.Sin(theta))
	}
	return points
}

// sampleConic traces an ellipse parametrically, or a hyperbola as two
// branches joined by a nil-y gap point.
func sampleConic(c Conic, step float64) []types.Point {
	if c.C == 0 {
		return nil
	}
	a, b := c.C/c.A, c.C/c.B
	switch {
	case a > 0 && b > 0:
		return ellipse(0, 0, math.Sqrt(a), math.Sqrt(b), step)
	case a > 0 && b < 0:
		return hyperbola(math.Sqrt(a), math.Sqrt(-b), angleCount(step), false)
	case a < 0 && b > 0:
		return hyperbola(math.Sqrt(b), math.Sqrt(-a), angleCount(step), true)
	}
	return nil
}

// hyperbola samples u = ±p·cosh t, v = q·sinh t, mapping (u, v) to (x, y)
// or to (y, x) when the transverse axis is vertical.
func hyperbola(p, q float64, n int, vertical bool) []types.Point {
	if n < 2 {
		n = 2
	}
	points := make([]types.Point, 0, 2*n+1)
	for _, side := range []float64{1, -1} {
		if side < 0 {
			points = append(points, types.Point{X: points[len(points)-1].X})
		}
		for i := 0; i < n; i++ {
			t := -hyperbolaSpan + 2*hyperbolaSpan*float64(i)/float64(n-1)
			u, v := side*p*math.Cosh(t), q*math.Sinh(t)
			if vertical {
				points = append(points, point(v, u))
			} else {
				points = append(points, point(u, v))
			}
		}
	}
	return points
}

// ValidateSubmission fills in default styling and checks it.
func ValidateSubmission(sub types.Submission) (types.Submission, error) {
	if sub.Color == "" {
		sub.Color = DefaultColor
	}
	if sub.Thickness == 0 {
		sub.Thickness = DefaultThickness
	}
	if !colorPattern.MatchString(sub.Color) {
		return sub, ErrInvalidColor
	}
	if sub.Thickness < 0 {
		return sub, ErrInvalidWidth
	}
	return sub, nil
}

// Plot classifies a submission and samples it. Unrecognized equations
// fail with ErrFormatRejected and are never sampled.
func Plot(sub types.Submission, opts Options) (types.Series, error) {
	sub, err := ValidateSubmission(sub)
	if err != nil {
		return types.Series{}, err
	}
	if err := opts.Validate(); err != nil {
		return types.Series{}, err
	}
	family := Classify(sub.Equation)
	if !family.Recognized() {
		return types.Series{}, ErrFormatRejected
	}
	series := Sample(family, sub.Equation, opts)
	series.Color = sub.Color
	series.Thickness = sub.Thickness
	return series, nil
}
