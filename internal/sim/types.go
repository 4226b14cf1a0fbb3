package sim

import (
	"go.uber.org/zap"

	"github.com/san-kum/vibropile/internal/dynamo"
)

// Metric accumulates one scalar over the samples of a run.
type Metric interface {
	Name() string
	Observe(s dynamo.Sample)
	Value() float64
	Reset()
}

// Observer is notified of every sample as it is produced.
type Observer interface {
	OnStep(s dynamo.Sample)
}

// SourceFactory returns the random stream for a run seed.
type SourceFactory func(seed int64) dynamo.Source

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithSourceFactory(f SourceFactory) Option {
	return func(e *Engine) {
		if f != nil {
			e.newSource = f
		}
	}
}

// WithMetrics registers metrics at construction time.
func WithMetrics(ms ...Metric) Option {
	return func(e *Engine) { e.metrics = append(e.metrics, ms...) }
}
