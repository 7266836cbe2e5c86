package optimization

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Options holds the run settings shared by all strategies.
type Options struct {
	// Rand is the random source of the search loop.
	Rand *rand.Rand
	// Logger receives progress and summary records.
	Logger *zap.Logger
	// Workers bounds parallel fitness evaluation. Values below 2 evaluate
	// sequentially.
	Workers int
	// SampleAttempts is the rejection sampling budget per point.
	SampleAttempts int
	// ProgressEvery is the iteration interval between debug progress
	// records. Zero disables them.
	ProgressEvery int
}

// Option configures Options.
type Option func(*Options)

// WithSeed makes the run reproducible.
func WithSeed(seed int64) Option {
	return func(o *Options) {
		o.Rand = NewRand(seed)
	}
}

// WithRand sets the random source directly.
func WithRand(rng *rand.Rand) Option {
	return func(o *Options) {
		o.Rand = rng
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithWorkers sets the evaluation worker count.
func WithWorkers(n int) Option {
	return func(o *Options) {
		o.Workers = n
	}
}

// WithSampleAttempts sets the rejection sampling budget.
func WithSampleAttempts(n int) Option {
	return func(o *Options) {
		o.SampleAttempts = n
	}
}

// WithProgressEvery sets the progress logging interval.
func WithProgressEvery(n int) Option {
	return func(o *Options) {
		o.ProgressEvery = n
	}
}

// NewOptions applies opts over the defaults: a time-seeded source,
// a no-op logger, sequential evaluation and the default sampling budget.
func NewOptions(opts ...Option) Options {
	o := Options{
		SampleAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Rand == nil {
		o.Rand = NewRand(time.Now().UnixNano())
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// NewRand returns a PCG-backed source for seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// ShouldLog reports whether iteration i, counted from 1, is due a progress record.
func (o Options) ShouldLog(i int) bool {
	return o.ProgressEvery > 0 && i%o.ProgressEvery == 0
}
