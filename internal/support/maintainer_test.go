package support

import (
	"bytes"
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"testing"

	"github.com/hupe1980/featmap/csr"
	"github.com/hupe1980/featmap/internal/dictionary"
	"github.com/hupe1980/featmap/internal/resolver"
	"github.com/hupe1980/featmap/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dict  *dictionary.Dictionary
	obs   resolver.Observations
	table *Table
}

func newFixture(t *testing.T, x, i *csr.Matrix, minSupport int) fixture {
	t.Helper()
	dict := dictionary.Build(i)
	obs := resolver.NewObservations(x)
	resolutions, err := resolver.ResolveAll(context.Background(), obs, dict, 4)
	require.NoError(t, err)
	return fixture{dict: dict, obs: obs, table: NewTable(resolutions, minSupport)}
}

func (f fixture) run(t *testing.T, cfg Config) Stats {
	t.Helper()
	stats, err := NewMaintainer(f.dict, f.obs, f.table, cfg).Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, Verify(f.table))
	return stats
}

func TestMaintainer_Example(t *testing.T) {
	// Feature 0 = {1,2} is used by one observation only.
	i := csr.MustFromRows(4, [][]int32{{1, 2}, {2, 3}, {2}})
	x := csr.MustFromRows(4, [][]int32{{1, 2}, {2, 3}, {2, 3}})
	fx := newFixture(t, x, i, 2)

	var removals []model.FeatureID
	stats := fx.run(t, Config{
		MinSupport: 2,
		OnRemoval: func(f model.FeatureID, support, repaired int) {
			removals = append(removals, f)
			assert.Equal(t, 1, support)
			assert.Equal(t, 1, repaired)
		},
	})

	// Removing 0 re-resolves observation 0 to {2}; feature 2 then has
	// support 1 and is removed as well, leaving observation 0 empty.
	assert.Equal(t, []model.FeatureID{0, 2}, stats.Removed)
	assert.Equal(t, stats.Removed, removals)
	assert.Equal(t, 2, stats.Repaired)

	assert.True(t, fx.table.Assignment(0).IsEmpty())
	assert.Equal(t, []uint32{1}, fx.table.Assignment(1).ToArray())
	assert.Equal(t, []uint32{1}, fx.table.Assignment(2).ToArray())
	assert.Equal(t, 2, fx.table.Support(1))
	assert.False(t, fx.dict.Contains(0))
	assert.False(t, fx.dict.Contains(2))
	assert.True(t, fx.dict.Contains(1))
}

func TestMaintainer_SingleRemovalReassigns(t *testing.T) {
	// Two observations need feature 2 after feature 0 goes away, so 2 survives.
	i := csr.MustFromRows(4, [][]int32{{1, 2}, {2, 3}, {2}})
	x := csr.MustFromRows(4, [][]int32{{1, 2}, {2}, {2, 3}, {2, 3}})
	fx := newFixture(t, x, i, 2)

	stats := fx.run(t, Config{MinSupport: 2})

	assert.Equal(t, []model.FeatureID{0}, stats.Removed)
	assert.Equal(t, []uint32{2}, fx.table.Assignment(0).ToArray())
	assert.Equal(t, 2, fx.table.Support(2))
	assert.Equal(t, 1, fx.table.DroppedDiagnoses(), "diagnosis 1 of observation 0")
}

func TestMaintainer_NoOpBelowTwo(t *testing.T) {
	i := csr.MustFromRows(3, [][]int32{{0}, {1}, {2}})
	x := csr.MustFromRows(3, [][]int32{{0}, {1, 2}})

	for _, smin := range []int{0, 1} {
		fx := newFixture(t, x, i, smin)
		stats := fx.run(t, Config{MinSupport: smin})
		assert.Empty(t, stats.Removed)
		assert.Equal(t, 3, fx.dict.Len())
	}
}

func TestMaintainer_ZeroSupportFeaturesStay(t *testing.T) {
	i := csr.MustFromRows(3, [][]int32{{0}, {1}, {2}})
	x := csr.MustFromRows(3, [][]int32{{0}, {0}})
	fx := newFixture(t, x, i, 2)

	stats := fx.run(t, Config{MinSupport: 2})
	assert.Empty(t, stats.Removed)
	assert.Equal(t, 3, fx.dict.Len(), "unused features are never selected")
}

func TestMaintainer_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	i := csr.MustFromRows(4, [][]int32{{1, 2}, {2, 3}, {2}})
	x := csr.MustFromRows(4, [][]int32{{1, 2}, {2}, {2, 3}, {2, 3}})
	fx := newFixture(t, x, i, 2)
	fx.run(t, Config{MinSupport: 2, Logger: logger})

	out := buf.String()
	require.Contains(t, out, "removing under-supported feature")
	require.Contains(t, out, `"feature":0`)
	require.Contains(t, out, "observation re-resolved")
	assert.Contains(t, out, `"observation":0,"old":[0],"new":[2]`)
}

func TestMaintainer_RemovedFeatureWithSupportIsInvariantViolation(t *testing.T) {
	i := csr.MustFromRows(2, [][]int32{{0}, {1}})
	x := csr.MustFromRows(2, [][]int32{{0}, {1}, {1}})
	fx := newFixture(t, x, i, 2)

	// Simulate a bookkeeping defect: the dictionary already lost feature 0.
	fx.dict.Remove(0)

	_, err := NewMaintainer(fx.dict, fx.obs, fx.table, Config{MinSupport: 2}).Run(context.Background())
	var ie *InvariantError
	require.ErrorAs(t, err, &ie)
	require.Equal(t, model.FeatureID(0), ie.Counts[0].Feature)
}

// referenceMinSupport is a direct, map-based rendition of the maintenance
// loop with a restart-scan resolver.
func referenceMinSupport(x, i *csr.Matrix, smin int) ([][]int, []int) {
	alive := make([]bool, i.Rows)
	for f := range alive {
		alive[f] = true
	}

	resolve := func(o int) map[int]bool {
		remaining := map[int32]bool{}
		for _, d := range x.Row(o) {
			remaining[d] = true
		}
		out := map[int]bool{}
		for len(remaining) > 0 {
			found := false
			for f := 0; f < i.Rows && !found; f++ {
				row := i.Row(f)
				if !alive[f] || len(row) == 0 {
					continue
				}
				ok := true
				for _, d := range row {
					ok = ok && remaining[d]
				}
				if ok {
					for _, d := range row {
						delete(remaining, d)
					}
					out[f] = true
					found = true
				}
			}
			if !found {
				break
			}
		}
		return out
	}

	assign := make([]map[int]bool, x.Rows)
	count := map[int]int{}
	for o := range assign {
		assign[o] = resolve(o)
		for f := range assign[o] {
			count[f]++
		}
	}

	var removed []int
	for {
		target := -1
		for f := 0; f < i.Rows; f++ {
			if alive[f] && count[f] > 0 && count[f] < smin {
				target = f
				break
			}
		}
		if target < 0 {
			break
		}
		alive[target] = false
		removed = append(removed, target)
		for o := range assign {
			if !assign[o][target] {
				continue
			}
			for f := range assign[o] {
				count[f]--
			}
			assign[o] = resolve(o)
			for f := range assign[o] {
				count[f]++
			}
		}
	}

	rows := make([][]int, x.Rows)
	for o, set := range assign {
		for f := range set {
			rows[o] = append(rows[o], f)
		}
		sort.Ints(rows[o])
	}
	return rows, removed
}

func randomCase(rng *rand.Rand, nObs, nFeat, nDiag int) (x, i *csr.Matrix) {
	feats := make([][]int32, nFeat)
	for f := range feats {
		for j := rng.Intn(3); j >= 0; j-- {
			feats[f] = append(feats[f], int32(rng.Intn(nDiag)))
		}
		if rng.Intn(20) == 0 {
			feats[f] = nil
		}
	}
	rows := make([][]int32, nObs)
	for o := range rows {
		for j := rng.Intn(8); j > 0; j-- {
			rows[o] = append(rows[o], int32(rng.Intn(nDiag)))
		}
	}
	return csr.MustFromRows(nDiag, rows), csr.MustFromRows(nDiag, feats)
}

func TestMaintainer_MatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for trial := 0; trial < 40; trial++ {
		x, i := randomCase(rng, 300, 40, 30)
		smin := 2 + rng.Intn(10)

		fx := newFixture(t, x, i, smin)
		stats := fx.run(t, Config{MinSupport: smin, Workers: 3})

		wantRows, wantRemoved := referenceMinSupport(x, i, smin)

		var gotRemoved []int
		for _, f := range stats.Removed {
			gotRemoved = append(gotRemoved, int(f))
		}
		require.Equal(t, wantRemoved, gotRemoved, "trial %d", trial)

		for o := 0; o < x.Rows; o++ {
			var got []int
			for _, f := range fx.table.Assignment(model.ObservationID(o)).ToArray() {
				got = append(got, int(f))
			}
			require.Equal(t, wantRows[o], got, "trial %d obs %d", trial, o)
		}
	}
}

func TestMaintainer_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(5))

	for trial := 0; trial < 25; trial++ {
		x, i := randomCase(rng, 500, 60, 40)
		smin := 2 + rng.Intn(20)

		fx := newFixture(t, x, i, smin)
		stats := fx.run(t, Config{MinSupport: smin})

		// Termination bound.
		require.LessOrEqual(t, len(stats.Removed), i.Rows)

		// Support floor at the fixpoint.
		for f, c := range fx.table.SupportCounts() {
			require.True(t, c == 0 || c >= smin, "feature %d has support %d < %d", f, c, smin)
			require.True(t, fx.dict.Contains(f), "removed feature %d still assigned", f)
		}

		// Inverse-index invariant, observation side.
		for o := 0; o < x.Rows; o++ {
			fx.table.Assignment(model.ObservationID(o)).Iterate(func(f uint32) bool {
				require.True(t, fx.table.Observations(model.FeatureID(f)).Contains(uint32(o)))
				return true
			})
		}
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "scanning", stateScanning.String())
	assert.Equal(t, "repairing", stateRepairing.String())
	assert.Equal(t, "done", stateDone.String())
	assert.Equal(t, "unknown", state(9).String())
}
