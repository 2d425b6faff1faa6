// Package render samples sets of equations concurrently, reusing
// previously sampled series from a compressed LRU cache.
package render

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vjranagit/graphcalc/internal/log"
	"github.com/vjranagit/graphcalc/pkg/equation"
	"github.com/vjranagit/graphcalc/pkg/storage"
	"github.com/vjranagit/graphcalc/pkg/types"
)

// Config holds renderer configuration
type Config struct {
	// Options are the sampling defaults
	Options          equation.Options
	Workers          int
	CacheCapacity    int
	CacheTTL         time.Duration
	CompressionLevel int
}

// DefaultConfig returns default renderer configuration
func DefaultConfig() Config {
	return Config{
		Options:          equation.Options{}.WithDefaults(),
		Workers:          4,
		CacheCapacity:    1024,
		CacheTTL:         10 * time.Minute,
		CompressionLevel: 2,
	}
}

// Renderer turns equations into sampled series
type Renderer struct {
	cfg        Config
	compressor *storage.Compressor
	cache      *storage.SeriesCache
}

// New creates a renderer
func New(cfg Config) (*Renderer, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.CacheCapacity < 1 {
		cfg.CacheCapacity = 1
	}
	cfg.Options = cfg.Options.WithDefaults()
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}

	compressor, err := storage.NewCompressor(cfg.CompressionLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}

	return &Renderer{
		cfg:        cfg,
		compressor: compressor,
		cache:      storage.NewSeriesCache(cfg.CacheCapacity, cfg.CacheTTL, compressor),
	}, nil
}

// Close releases the compressor
func (r *Renderer) Close() {
	r.compressor.Close()
}

// Defaults returns the configured sampling options
func (r *Renderer) Defaults() equation.Options {
	return r.cfg.Options
}

// OptionsFor returns the sampling options for a user: their x axis becomes
// the domain when it is a proper range.
func (r *Renderer) OptionsFor(settings types.Settings) equation.Options {
	opts := r.cfg.Options
	x := settings.AxisSettings.XAxis
	if x.Min < x.Max {
		opts.Domain = types.Range{Min: float64(x.Min), Max: float64(x.Max)}
	}
	return opts
}

// CacheStats returns the series cache statistics
func (r *Renderer) CacheStats() storage.CacheStats {
	return r.cache.Stats()
}

// Render samples every equation with at most Workers running at once.
// Series come back in the order of eqs. An equation that no longer
// classifies renders with no points.
func (r *Renderer) Render(ctx context.Context, eqs []types.StoredEquation, opts equation.Options) ([]types.Series, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	out := make([]types.Series, len(eqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for i, eq := range eqs {
		i, eq := i, eq
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			family := eq.Family
			if !family.Recognized() {
				family = equation.Classify(eq.Equation)
			}
			series := r.sample(family, eq.Equation, opts)
			series.Color = eq.Color
			series.Thickness = eq.Thickness
			out[i] = series
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Plot validates, classifies and samples a single submission. Unrecognized
// equations fail with equation.ErrFormatRejected.
func (r *Renderer) Plot(sub types.Submission, opts equation.Options) (types.Series, error) {
	sub, err := equation.ValidateSubmission(sub)
	if err != nil {
		return types.Series{}, err
	}
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return types.Series{}, err
	}

	family := equation.Classify(sub.Equation)
	if !family.Recognized() {
		return types.Series{}, equation.ErrFormatRejected
	}

	series := r.sample(family, sub.Equation, opts)
	series.Color = sub.Color
	series.Thickness = sub.Thickness
	return series, nil
}

func (r *Renderer) sample(family types.Family, raw string, opts equation.Options) types.Series {
	if !family.Recognized() {
		return types.Series{Family: family, Equation: raw, Points: []types.Point{}}
	}

	key := storage.CacheKey{
		Equation:  raw,
		Family:    family,
		Domain:    opts.Domain,
		Step:      opts.Step,
		ThetaStep: opts.ThetaStep,
	}
	if points, ok := r.cache.Get(key); ok {
		log.Trace.Printf("cache hit for %q", raw)
		return types.Series{Family: family, Equation: raw, Points: points}
	}

	series := equation.Sample(family, raw, opts)
	if err := r.cache.Put(key, series.Points); err != nil {
		log.Warning.Printf("cache %q: %v", raw, err)
	}
	return series
}
