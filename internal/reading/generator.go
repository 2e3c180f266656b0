//
//
package reading

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Default generator parameters.
const (
	DefaultSeed           = 28.5
	DefaultMin            = 20.0
	DefaultMax            = 45.0
	DefaultTrendPeriod    = 60 * time.Second
	DefaultTrendAmplitude = 3.0
	DefaultTrendWeight    = 0.1
)

// Generator produces readings with a bounded random walk.
type Generator struct {
	mu      sync.Mutex
	current float64
	lastID  int64

	min, max    float64
	trendWeight float64

	now       func() time.Time
	variation func() float64
	trend     func(time.Time) float64
}

// Option customises a Generator.
type Option func(*Generator)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithVariation replaces the uniform [-1, 1] noise source.
func WithVariation(variation func() float64) Option {
	return func(g *Generator) { g.variation = variation }
}

// WithRand draws the noise from r instead of the global source.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.variation = func() float64 { return r.Float64()*2 - 1 }
	}
}

// WithTrend replaces the trend function. Its result is scaled by the trend weight.
func WithTrend(trend func(time.Time) float64) Option {
	return func(g *Generator) { g.trend = trend }
}

// WithSineTrend sets a sine trend of the given period and amplitude.
func WithSineTrend(period time.Duration, amplitude float64) Option {
	return WithTrend(SineTrend(period, amplitude))
}

// WithTrendWeight sets the factor applied to the trend each step.
func WithTrendWeight(weight float64) Option {
	return func(g *Generator) { g.trendWeight = weight }
}

// WithBounds sets the clamp band.
func WithBounds(lo, hi float64) Option {
	return func(g *Generator) { g.min, g.max = lo, hi }
}

// SineTrend returns sin(nowMs / periodMs) * amplitude.
func SineTrend(period time.Duration, amplitude float64) func(time.Time) float64 {
	periodMs := float64(period.Milliseconds())
	return func(t time.Time) float64 {
		return math.Sin(float64(t.UnixMilli())/periodMs) * amplitude
	}
}

// NewGenerator creates a generator whose walk starts at seed.
func NewGenerator(seed float64, opts ...Option) *Generator {
	g := &Generator{
		current:     seed,
		min:         DefaultMin,
		max:         DefaultMax,
		trendWeight: DefaultTrendWeight,
		now:         time.Now,
		variation:   func() float64 { return rand.Float64()*2 - 1 },
		trend:       SineTrend(DefaultTrendPeriod, DefaultTrendAmplitude),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.current = clamp(g.current, g.min, g.max)
	return g
}

// Generate advances the walk one step and returns the resulting reading.
func (g *Generator) Generate() Reading {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.current = clamp(g.current+g.variation()+g.trend(now)*g.trendWeight, g.min, g.max)

	// IDs follow the wall clock in milliseconds but never repeat or go backwards
	id := now.UnixMilli()
	if id <= g.lastID {
		id = g.lastID + 1
	}
	g.lastID = id

	return Reading{
		Temperature: Round1(g.current),
		Timestamp:   now,
		ID:          id,
	}
}

// Current returns the unrounded carry-over temperature.
func (g *Generator) Current() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Round1 rounds to one decimal place, half away from zero.
func Round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
