// Package support maintains observation-to-feature assignments under a
// minimum-support constraint.
//
// Table holds the three mutually consistent structures: Assignment
// (observation → features), its exact inverse (feature → observations), and
// incrementally maintained support counts. Maintainer runs the removal loop
// and Verify recomputes everything from scratch to check the bookkeeping.
package support

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/featmap/csr"
	"github.com/hupe1980/featmap/internal/resolver"
	"github.com/hupe1980/featmap/model"
)

// Table is the assignment state of one remapping run. It is not safe for
// concurrent use.
type Table struct {
	assignment []*roaring.Bitmap
	inverse    map[model.FeatureID]*roaring.Bitmap
	support    map[model.FeatureID]int
	dropped    []int

	minSupport int
	// weak holds every feature with 0 < support < minSupport.
	weak *roaring.Bitmap
}

// NewTable installs the initial resolutions, indexed by ObservationID, and
// derives the inverse index and support counts in one sequential pass.
func NewTable(resolutions []resolver.Resolution, minSupport int) *Table {
	t := &Table{
		assignment: make([]*roaring.Bitmap, len(resolutions)),
		inverse:    make(map[model.FeatureID]*roaring.Bitmap),
		support:    make(map[model.FeatureID]int),
		dropped:    make([]int, len(resolutions)),
		minSupport: minSupport,
		weak:       roaring.New(),
	}
	for o, res := range resolutions {
		t.Install(model.ObservationID(o), res)
	}
	return t
}

// NumObservations returns the number of observations in the table.
func (t *Table) NumObservations() int {
	return len(t.assignment)
}

// Assignment returns the features currently covering o.
// Callers must not modify the result.
func (t *Table) Assignment(o model.ObservationID) *roaring.Bitmap {
	return t.assignment[o]
}

// Observations returns the observations currently assigned f, or nil.
// Callers must not modify the result.
func (t *Table) Observations(f model.FeatureID) *roaring.Bitmap {
	return t.inverse[f]
}

// Support returns the incrementally maintained support count of f.
func (t *Table) Support(f model.FeatureID) int {
	return t.support[f]
}

// SupportCounts returns a copy of all non-zero support counts.
func (t *Table) SupportCounts() map[model.FeatureID]int {
	out := make(map[model.FeatureID]int, len(t.support))
	for f, c := range t.support {
		out[f] = c
	}
	return out
}

// DroppedDiagnoses returns the number of diagnoses, summed over all
// observations, that no assigned feature covers.
func (t *Table) DroppedDiagnoses() int {
	total := 0
	for _, n := range t.dropped {
		total += n
	}
	return total
}

// WeakestFeature returns the lowest FeatureID whose support is positive but
// below the minimum support.
func (t *Table) WeakestFeature() (model.FeatureID, bool) {
	if t.weak.IsEmpty() {
		return 0, false
	}
	return model.FeatureID(t.weak.Minimum()), true
}

// DetachFeature removes f from the inverse index and returns the
// observations that were assigned f. Their assignments and the support
// counts are left untouched; Evict fixes them per observation.
func (t *Table) DetachFeature(f model.FeatureID) *roaring.Bitmap {
	obs, ok := t.inverse[f]
	if !ok {
		return roaring.New()
	}
	delete(t.inverse, f)
	return obs
}

// Evict clears the assignment of o. For every feature g it held, the support
// of g drops by one (never below zero) and o leaves the inverse entry of g.
// It returns the evicted feature set.
func (t *Table) Evict(o model.ObservationID) *roaring.Bitmap {
	old := t.assignment[o]
	t.assignment[o] = nil
	t.dropped[o] = 0
	if old == nil {
		return roaring.New()
	}

	old.Iterate(func(raw uint32) bool {
		g := model.FeatureID(raw)
		if c := t.support[g]; c > 1 {
			t.support[g] = c - 1
		} else {
			delete(t.support, g)
		}
		if set, ok := t.inverse[g]; ok {
			set.Remove(uint32(o))
			if set.IsEmpty() {
				delete(t.inverse, g)
			}
		}
		t.touch(g)
		return true
	})
	return old
}

// Install assigns the features of res to o, which must currently have no
// assignment. Every new feature gains o in its inverse entry and one unit of
// support.
func (t *Table) Install(o model.ObservationID, res resolver.Resolution) {
	set := res.Set()
	t.assignment[o] = set
	t.dropped[o] = res.Dropped

	set.Iterate(func(raw uint32) bool {
		h := model.FeatureID(raw)
		obs, ok := t.inverse[h]
		if !ok {
			obs = roaring.New()
			t.inverse[h] = obs
		}
		obs.Add(uint32(o))
		t.support[h]++
		t.touch(h)
		return true
	})
}

func (t *Table) touch(f model.FeatureID) {
	if c := t.support[f]; c > 0 && c < t.minSupport {
		t.weak.Add(uint32(f))
	} else {
		t.weak.Remove(uint32(f))
	}
}

// Matrix serializes the assignment as an observations x numFeatures CSR
// matrix, rows in ascending ObservationID and features ascending per row.
func (t *Table) Matrix(numFeatures int) (*csr.Matrix, error) {
	b := csr.NewBuilder(numFeatures, len(t.assignment))
	for _, set := range t.assignment {
		b.AppendBitmap(set)
	}
	return b.Build()
}
