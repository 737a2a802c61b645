package featmap

import (
	"log/slog"
)

type options struct {
	workers          int
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures a Mapper or a single remapping call.
type Option func(*options)

// WithWorkers bounds the number of goroutines used by the resolution pass
// and by the per-step repair reads of the minimum-support loop.
//
// If workers <= 0, runtime.GOMAXPROCS(0) is used.
func WithWorkers(workers int) Option {
	return func(o *options) {
		o.workers = workers
	}
}

// WithMetricsCollector configures a metrics collector for monitoring runs.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &featmap.BasicMetricsCollector{}
//	res, _ := featmap.RemapWithMinSupport(ctx, x, i, 5, featmap.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
//	fmt.Printf("Removed features: %d\n", stats.FeatureRemovals)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for remapping runs.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := featmap.NewJSONLogger(slog.LevelInfo)
//	m := featmap.New(featmap.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(base options, optFns []Option) options {
	o := base
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func defaultOptions() options {
	return options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
}
