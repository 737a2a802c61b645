package featmap

import (
	"context"
	"errors"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/featmap/csr"
	"github.com/hupe1980/featmap/internal/dictionary"
	"github.com/hupe1980/featmap/internal/resolver"
	"github.com/hupe1980/featmap/internal/support"
	"github.com/hupe1980/featmap/model"
)

// Result is the outcome of a remapping run.
type Result struct {
	// Matrix is the observation-by-feature matrix Y with
	// Matrix.Rows == X.Rows and Matrix.Cols == I.Rows.
	Matrix *csr.Matrix

	// Report summarizes the run.
	Report Report
}

// Report summarizes a remapping run.
type Report struct {
	Observations int // X.Rows
	Features     int // I.Rows
	MinSupport   int // 0 for Remap

	// UsedFeatures is the number of distinct features present in Y.
	UsedFeatures int

	// Removed lists features dropped by the minimum-support loop, in removal order.
	Removed []model.FeatureID

	// Repaired counts observation re-resolutions performed by the loop.
	Repaired int

	// DroppedDiagnoses counts diagnoses, over all observations, that no
	// feature in Y covers.
	DroppedDiagnoses int

	NNZ      int
	Duration time.Duration
}

// Mapper holds configuration shared by several remapping runs.
// A Mapper is safe for concurrent use; runs do not share state.
type Mapper struct {
	opts options
}

// New creates a Mapper.
func New(optFns ...Option) *Mapper {
	return &Mapper{opts: applyOptions(defaultOptions(), optFns)}
}

// Remap maps every observation of x onto the features defined by the rows
// of i. Each row of the result lists the selected features in selection
// order, which is ascending.
//
// x and i must be valid CSR matrices with the same number of columns.
// A canceled ctx aborts the run without a partial result.
func Remap(ctx context.Context, x, i *csr.Matrix, optFns ...Option) (*Result, error) {
	return New(optFns...).Remap(ctx, x, i)
}

// RemapWithMinSupport is like Remap but additionally guarantees that every
// feature present in the result is used by at least smin observations.
// smin <= 1 imposes no constraint; a negative smin is rejected with
// ErrInvalidMinSupport.
//
// Cancellation is honored only until the initial resolution pass has
// completed. The minimum-support loop always runs to its fixpoint.
func RemapWithMinSupport(ctx context.Context, x, i *csr.Matrix, smin int, optFns ...Option) (*Result, error) {
	return New(optFns...).RemapWithMinSupport(ctx, x, i, smin)
}

// Remap runs Remap with the Mapper's configuration.
func (m *Mapper) Remap(ctx context.Context, x, i *csr.Matrix) (*Result, error) {
	start := time.Now()
	report := Report{}

	y, err := m.remap(ctx, x, i, &report)
	m.finish(ctx, start, &report, err)
	if err != nil {
		return nil, err
	}
	return &Result{Matrix: y, Report: report}, nil
}

// RemapWithMinSupport runs RemapWithMinSupport with the Mapper's configuration.
//
// It panics with a *support.InvariantError if the support bookkeeping of the
// loop diverges. That indicates a defect in this package, never bad input.
func (m *Mapper) RemapWithMinSupport(ctx context.Context, x, i *csr.Matrix, smin int) (*Result, error) {
	start := time.Now()
	report := Report{MinSupport: smin}

	y, err := m.remapWithMinSupport(ctx, x, i, smin, &report)
	m.finish(ctx, start, &report, err)
	if err != nil {
		return nil, err
	}
	return &Result{Matrix: y, Report: report}, nil
}

func (m *Mapper) remap(ctx context.Context, x, i *csr.Matrix, report *Report) (*csr.Matrix, error) {
	dict, obs, resolutions, err := m.resolve(ctx, x, i, report)
	if err != nil {
		return nil, err
	}

	used := roaring.New()
	b := csr.NewBuilder(dict.NumFeatures(), obs.Len())
	for _, r := range resolutions {
		for _, f := range r.Features {
			b.Append(uint32(f))
			used.Add(uint32(f))
		}
		b.EndRow()
		report.DroppedDiagnoses += r.Dropped
	}

	y, err := b.Build()
	if err != nil {
		return nil, err
	}
	report.UsedFeatures = int(used.GetCardinality())
	report.NNZ = y.NNZ()
	return y, nil
}

func (m *Mapper) remapWithMinSupport(ctx context.Context, x, i *csr.Matrix, smin int, report *Report) (*csr.Matrix, error) {
	if smin < 0 {
		return nil, ErrInvalidMinSupport
	}

	dict, obs, resolutions, err := m.resolve(ctx, x, i, report)
	if err != nil {
		return nil, err
	}

	table := support.NewTable(resolutions, smin)
	maintainer := support.NewMaintainer(dict, obs, table, support.Config{
		MinSupport: smin,
		Workers:    m.opts.workers,
		Logger:     m.opts.logger.Logger,
		OnRemoval: func(f model.FeatureID, supp, repaired int) {
			m.opts.logger.LogFeatureRemoval(ctx, f, supp, repaired)
			m.opts.metricsCollector.RecordFeatureRemoval(repaired)
		},
	})

	stats, err := maintainer.Run(ctx)
	if err != nil {
		m.fatal(ctx, err)
	}
	if err := support.Verify(table); err != nil {
		m.fatal(ctx, err)
	}

	y, err := table.Matrix(dict.NumFeatures())
	if err != nil {
		return nil, err
	}

	report.Removed = stats.Removed
	report.Repaired = stats.Repaired
	report.DroppedDiagnoses = table.DroppedDiagnoses()
	report.UsedFeatures = len(table.SupportCounts())
	report.NNZ = y.NNZ()
	return y, nil
}

// resolve validates the inputs, builds the dictionary and runs the parallel
// resolution pass.
func (m *Mapper) resolve(ctx context.Context, x, i *csr.Matrix, report *Report) (*dictionary.Dictionary, resolver.Observations, []resolver.Resolution, error) {
	if err := validateInputs(x, i); err != nil {
		return nil, resolver.Observations{}, nil, err
	}
	report.Observations = x.Rows
	report.Features = i.Rows

	dict := dictionary.Build(i)
	obs := resolver.NewObservations(x)

	start := time.Now()
	resolutions, err := resolver.ResolveAll(ctx, obs, dict, m.opts.workers)
	if err != nil {
		return nil, resolver.Observations{}, nil, err
	}
	m.opts.metricsCollector.RecordResolvePass(obs.Len(), time.Since(start))
	return dict, obs, resolutions, nil
}

func (m *Mapper) finish(ctx context.Context, start time.Time, report *Report, err error) {
	report.Duration = time.Since(start)
	m.opts.metricsCollector.RecordRemap(report.DroppedDiagnoses, report.Duration, err)
	m.opts.logger.LogRemap(ctx, *report, err)
}

// fatal logs a bookkeeping divergence and panics with it.
func (m *Mapper) fatal(ctx context.Context, err error) {
	var ie *support.InvariantError
	if errors.As(err, &ie) {
		m.opts.logger.LogInvariantViolation(ctx, ie)
	} else {
		m.opts.logger.ErrorContext(ctx, "support maintenance failed", "error", err)
	}
	panic(err)
}
