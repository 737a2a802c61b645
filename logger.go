package featmap

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/featmap/internal/support"
	"github.com/hupe1980/featmap/model"
)

// Logger wraps slog.Logger with featmap-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithRun adds a run identifier field to the logger.
func (l *Logger) WithRun(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run", id),
	}
}

// LogRemap logs the outcome of a remapping run.
func (l *Logger) LogRemap(ctx context.Context, r Report, err error) {
	if err != nil {
		l.ErrorContext(ctx, "remap failed",
			"observations", r.Observations,
			"features", r.Features,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "remap completed",
		"observations", r.Observations,
		"features", r.Features,
		"min_support", r.MinSupport,
		"removed", len(r.Removed),
		"repaired", r.Repaired,
		"dropped_diagnoses", r.DroppedDiagnoses,
		"nnz", r.NNZ,
		"duration", r.Duration.Round(time.Microsecond),
	)
}

// LogFeatureRemoval logs one step of the minimum-support loop.
func (l *Logger) LogFeatureRemoval(ctx context.Context, f model.FeatureID, support, repaired int) {
	l.DebugContext(ctx, "feature removed",
		"feature", uint32(f),
		"support", support,
		"repaired", repaired,
	)
}

// LogInvariantViolation logs diverged support bookkeeping with every
// mismatch spelled out.
func (l *Logger) LogInvariantViolation(ctx context.Context, err *support.InvariantError) {
	mismatches := make([]slog.Attr, 0, len(err.Counts))
	for _, m := range err.Counts {
		mismatches = append(mismatches, slog.Group(m.Feature.String(),
			"incremental", m.Incremental,
			"recounted", m.Recounted,
		))
	}
	l.LogAttrs(ctx, slog.LevelError, "support invariant violated",
		slog.String("reason", err.Reason),
		slog.Int("count_mismatches", len(err.Counts)),
		slog.Any("inverse_mismatches", err.Inverse),
		slog.Attr{Key: "counts", Value: slog.GroupValue(mismatches...)},
	)
}
