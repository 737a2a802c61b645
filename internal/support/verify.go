package support

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/featmap/model"
)

// Mismatch describes one feature whose support bookkeeping diverged.
type Mismatch struct {
	Feature     model.FeatureID
	Incremental int // count maintained by the loop
	Recounted   int // |InverseIndex[Feature]|
}

// InvariantError reports diverged bookkeeping. It signals a defect in the
// maintenance code, never bad input.
type InvariantError struct {
	// Reason names the violated invariant.
	Reason string

	// Counts lists support counts that differ from the inverse index.
	Counts []Mismatch

	// Inverse lists features whose inverse entry differs from the inverse of
	// the assignment.
	Inverse []model.FeatureID
}

func (e *InvariantError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "support invariant violated: %s", e.Reason)
	if len(e.Counts) > 0 {
		fmt.Fprintf(&sb, "; %d count mismatches [", len(e.Counts))
		for i, m := range e.Counts {
			if i > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(&sb, "%s:%d!=%d", m.Feature, m.Incremental, m.Recounted)
		}
		sb.WriteString("]")
	}
	if len(e.Inverse) > 0 {
		fmt.Fprintf(&sb, "; inverse index differs for %v", e.Inverse)
	}
	return sb.String()
}

// Verify recomputes support counts from the inverse index and the inverse
// index from the assignment, and compares both against the maintained
// state. It returns nil when everything agrees and an *InvariantError
// listing every divergence otherwise.
func Verify(t *Table) error {
	var counts []Mismatch
	for f, set := range t.inverse {
		if got, want := t.support[f], int(set.GetCardinality()); got != want {
			counts = append(counts, Mismatch{Feature: f, Incremental: got, Recounted: want})
		}
	}
	for f, c := range t.support {
		if _, ok := t.inverse[f]; !ok && c != 0 {
			counts = append(counts, Mismatch{Feature: f, Incremental: c})
		}
	}

	expected := make(map[model.FeatureID]*roaring.Bitmap)
	for o, set := range t.assignment {
		if set == nil {
			continue
		}
		set.Iterate(func(raw uint32) bool {
			f := model.FeatureID(raw)
			bm, ok := expected[f]
			if !ok {
				bm = roaring.New()
				expected[f] = bm
			}
			bm.Add(uint32(o))
			return true
		})
	}

	var inverse []model.FeatureID
	for f, want := range expected {
		if got, ok := t.inverse[f]; !ok || !got.Equals(want) {
			inverse = append(inverse, f)
		}
	}
	for f, got := range t.inverse {
		if _, ok := expected[f]; !ok && !got.IsEmpty() {
			inverse = append(inverse, f)
		}
	}

	if len(counts) == 0 && len(inverse) == 0 {
		return nil
	}

	slices.SortFunc(counts, func(a, b Mismatch) int { return cmp.Compare(a.Feature, b.Feature) })
	slices.Sort(inverse)
	return &InvariantError{
		Reason:  "final bookkeeping differs from recount",
		Counts:  counts,
		Inverse: inverse,
	}
}
