package support

import (
	"context"
	"log/slog"

	"github.com/hupe1980/featmap/internal/dictionary"
	"github.com/hupe1980/featmap/internal/resolver"
	"github.com/hupe1980/featmap/model"
)

type state uint8

const (
	stateScanning state = iota
	stateRepairing
	stateDone
)

func (s state) String() string {
	switch s {
	case stateScanning:
		return "scanning"
	case stateRepairing:
		return "repairing"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Config configures a Maintainer.
type Config struct {
	// MinSupport is the support floor. Values <= 1 make Run a no-op.
	MinSupport int

	// Workers bounds the parallel re-resolution within one removal step.
	// 0 means GOMAXPROCS.
	Workers int

	// Logger receives debug events. nil disables logging.
	Logger *slog.Logger

	// OnRemoval, if set, is called after each feature removal with the
	// number of observations that were re-resolved.
	OnRemoval func(f model.FeatureID, support, repaired int)
}

// Stats summarizes a maintenance run.
type Stats struct {
	// Removed lists removed features in removal order.
	Removed []model.FeatureID

	// Repaired is the total number of observation re-resolutions.
	Repaired int
}

// Maintainer drives the minimum-support loop over a Table.
//
// Each iteration removes the lowest feature with 0 < support < MinSupport
// from the dictionary and re-resolves every observation that held it
// against the shrunk dictionary. The loop stops when no feature qualifies;
// since the dictionary never regrows, it removes at most NumFeatures
// features.
type Maintainer struct {
	dict  *dictionary.Dictionary
	obs   resolver.Observations
	table *Table
	cfg   Config
	log   *slog.Logger

	state  state
	target model.FeatureID
	stats  Stats
}

// NewMaintainer creates a Maintainer. table must have been built with the
// same MinSupport as cfg.
func NewMaintainer(dict *dictionary.Dictionary, obs resolver.Observations, table *Table, cfg Config) *Maintainer {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Maintainer{
		dict:  dict,
		obs:   obs,
		table: table,
		cfg:   cfg,
		log:   log,
		state: stateScanning,
	}
}

// Run executes the loop to its fixpoint. It is not cancelable: ctx only
// carries logging values. A returned error is always an *InvariantError.
func (m *Maintainer) Run(ctx context.Context) (Stats, error) {
	ctx = context.WithoutCancel(ctx)
	limit := m.dict.NumFeatures()

	for {
		switch m.state {
		case stateScanning:
			f, ok := m.table.WeakestFeature()
			if !ok {
				m.state = stateDone
				continue
			}
			if len(m.stats.Removed) >= limit {
				return m.stats, &InvariantError{Reason: "removal bound exceeded"}
			}
			m.target = f
			m.state = stateRepairing

		case stateRepairing:
			if err := m.repair(ctx, m.target); err != nil {
				return m.stats, err
			}
			m.state = stateScanning

		case stateDone:
			return m.stats, nil
		}
	}
}

// repair removes f and re-resolves its observations.
func (m *Maintainer) repair(ctx context.Context, f model.FeatureID) error {
	support := m.table.Support(f)
	if !m.dict.Remove(f) {
		return &InvariantError{
			Reason: "removed feature " + f.String() + " still has support",
			Counts: []Mismatch{{Feature: f, Incremental: support, Recounted: 0}},
		}
	}

	affected := m.table.DetachFeature(f)
	ids := make([]model.ObservationID, 0, affected.GetCardinality())
	affected.Iterate(func(o uint32) bool {
		ids = append(ids, model.ObservationID(o))
		return true
	})

	m.log.DebugContext(ctx, "removing under-supported feature",
		"feature", uint32(f),
		"support", support,
		"observations", len(ids),
		"remaining_features", m.dict.Len(),
	)

	// The dictionary is fixed for the rest of this step, so resolutions can
	// be computed in parallel; the table is then updated by this goroutine
	// alone, in ascending observation order.
	fresh, err := resolver.ResolveSubset(ctx, m.obs, m.dict, ids, m.cfg.Workers)
	if err != nil {
		return err
	}

	for i, o := range ids {
		old := m.table.Evict(o)
		m.table.Install(o, fresh[i])
		if m.log.Enabled(ctx, slog.LevelDebug) {
			m.log.DebugContext(ctx, "observation re-resolved",
				"observation", uint32(o),
				"old", model.FeatureIDs(old.ToArray()),
				"new", fresh[i].Features,
			)
		}
	}

	m.stats.Removed = append(m.stats.Removed, f)
	m.stats.Repaired += len(ids)

	if m.cfg.OnRemoval != nil {
		m.cfg.OnRemoval(f, support, len(ids))
	}
	return nil
}
