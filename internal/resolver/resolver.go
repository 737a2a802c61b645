// Package resolver implements greedy covering of an observation's diagnosis
// set by dictionary features, and the parallel pass that applies it to every
// observation.
package resolver

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/featmap/csr"
	"github.com/hupe1980/featmap/internal/dictionary"
	"github.com/hupe1980/featmap/model"
)

// Resolution is the outcome of covering one observation.
type Resolution struct {
	// Features lists the selected features in selection order, which is
	// ascending FeatureID.
	Features []model.FeatureID

	// Dropped is the number of diagnoses no selected feature covered.
	Dropped int
}

// Set returns the selected features as a bitmap.
func (r Resolution) Set() *roaring.Bitmap {
	bm := roaring.New()
	for _, f := range r.Features {
		bm.Add(uint32(f))
	}
	return bm
}

// Resolve covers diags with features from dict.
//
// Features are considered in ascending FeatureID order; a feature is
// selected when its whole (non-empty) diagnosis set is still uncovered, and
// its diagnoses are then consumed. The lowest eligible FeatureID always wins.
// Diagnoses no feature can take are dropped. diags is not modified.
func Resolve(dict *dictionary.Dictionary, diags *roaring.Bitmap) Resolution {
	remaining := diags.Clone()
	var selected []model.FeatureID

	// The uncovered set only shrinks, so a feature that is not a subset now
	// never becomes one later. One ascending pass therefore selects exactly
	// what restarting the scan after every match would.
	it := dict.Candidates(remaining).Iterator()
	for it.HasNext() && !remaining.IsEmpty() {
		f := model.FeatureID(it.Next())
		if !dict.Covers(f, remaining) {
			continue
		}
		remaining.AndNot(dict.Set(f))
		selected = append(selected, f)
	}

	return Resolution{
		Features: selected,
		Dropped:  int(remaining.GetCardinality()),
	}
}

// Observations exposes the rows of the observation matrix as diagnosis sets.
type Observations struct {
	x *csr.Matrix
}

// NewObservations wraps x. The matrix must not change while in use.
func NewObservations(x *csr.Matrix) Observations {
	return Observations{x: x}
}

// Len returns the number of observations.
func (o Observations) Len() int {
	return o.x.Rows
}

// Diagnoses returns a fresh bitmap holding the diagnosis set of obs.
func (o Observations) Diagnoses(obs model.ObservationID) *roaring.Bitmap {
	bm := roaring.New()
	for _, c := range o.x.Row(int(obs)) {
		bm.Add(uint32(c))
	}
	return bm
}
