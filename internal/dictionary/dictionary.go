// Package dictionary holds the feature dictionary: the mapping from each
// output feature to the set of diagnosis codes that defines it.
package dictionary

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/featmap/csr"
	"github.com/hupe1980/featmap/model"
)

// Dictionary maps FeatureID to its defining diagnosis set.
//
// Built once from the indicator matrix and afterwards only shrinks through
// Remove. Concurrent readers are safe as long as no Remove runs at the same
// time.
type Dictionary struct {
	// sets[f] is the diagnosis set of feature f. Never nil.
	sets []*roaring.Bitmap

	// cards[f] caches sets[f].GetCardinality().
	cards []uint64

	// postings[d] lists the features whose set contains diagnosis d, ascending.
	postings [][]uint32

	// alive holds the features not yet removed.
	alive *roaring.Bitmap
}

// Build converts the indicator matrix into a Dictionary.
// Row f of i defines feature f; repeated column ids collapse.
func Build(i *csr.Matrix) *Dictionary {
	d := &Dictionary{
		sets:     make([]*roaring.Bitmap, i.Rows),
		cards:    make([]uint64, i.Rows),
		postings: make([][]uint32, i.Cols),
		alive:    roaring.New(),
	}

	for f := 0; f < i.Rows; f++ {
		set := roaring.New()
		for _, c := range i.Row(f) {
			set.Add(uint32(c))
		}
		d.sets[f] = set
		d.cards[f] = set.GetCardinality()

		set.Iterate(func(diag uint32) bool {
			d.postings[diag] = append(d.postings[diag], uint32(f))
			return true
		})
	}

	if i.Rows > 0 {
		d.alive.AddRange(0, uint64(i.Rows))
	}
	return d
}

// NumFeatures returns the number of features the dictionary was built with,
// including removed ones.
func (d *Dictionary) NumFeatures() int {
	return len(d.sets)
}

// NumDiagnoses returns the diagnosis universe size (columns of I).
func (d *Dictionary) NumDiagnoses() int {
	return len(d.postings)
}

// Len returns the number of features still present.
func (d *Dictionary) Len() int {
	return int(d.alive.GetCardinality())
}

// Contains reports whether f is present.
func (d *Dictionary) Contains(f model.FeatureID) bool {
	return d.alive.Contains(uint32(f))
}

// Remove deletes f from the dictionary. It reports whether f was present.
func (d *Dictionary) Remove(f model.FeatureID) bool {
	return d.alive.CheckedRemove(uint32(f))
}

// Diagnoses returns the diagnosis set of f in ascending order, or nil when f
// is unknown. Removed features keep their definition.
func (d *Dictionary) Diagnoses(f model.FeatureID) []model.DiagnosisCode {
	if int(f) >= len(d.sets) {
		return nil
	}
	raw := d.sets[f].ToArray()
	out := make([]model.DiagnosisCode, len(raw))
	for i, v := range raw {
		out[i] = model.DiagnosisCode(v)
	}
	return out
}

// Set returns the diagnosis bitmap of f. Callers must not modify it.
func (d *Dictionary) Set(f model.FeatureID) *roaring.Bitmap {
	return d.sets[f]
}

// Cardinality returns the number of diagnoses defining f.
func (d *Dictionary) Cardinality(f model.FeatureID) int {
	return int(d.cards[f])
}

// Candidates returns the present features that share at least one
// diagnosis with diags. Every feature that could cover part of diags is in
// the result; empty features never are.
func (d *Dictionary) Candidates(diags *roaring.Bitmap) *roaring.Bitmap {
	out := roaring.New()
	diags.Iterate(func(diag uint32) bool {
		if int(diag) < len(d.postings) {
			out.AddMany(d.postings[diag])
		}
		return true
	})
	out.And(d.alive)
	return out
}

// Covers reports whether the non-empty set of f is contained in diags.
func (d *Dictionary) Covers(f model.FeatureID, diags *roaring.Bitmap) bool {
	card := d.cards[f]
	if card == 0 {
		return false
	}
	return d.sets[f].AndCardinality(diags) == card
}
