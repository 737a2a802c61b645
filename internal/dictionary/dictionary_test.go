package dictionary

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/featmap/csr"
	"github.com/hupe1980/featmap/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	i := csr.MustFromRows(5, [][]int32{
		{1, 2},
		{3, 2, 3}, // duplicate collapses
		{},        // inert
		{2},
	})
	d := Build(i)

	require.Equal(t, 4, d.NumFeatures())
	require.Equal(t, 5, d.NumDiagnoses())
	require.Equal(t, 4, d.Len())

	assert.Equal(t, []model.DiagnosisCode{1, 2}, d.Diagnoses(0))
	assert.Equal(t, []model.DiagnosisCode{2, 3}, d.Diagnoses(1))
	assert.Empty(t, d.Diagnoses(2))
	assert.Equal(t, []model.DiagnosisCode{2}, d.Diagnoses(3))
	assert.Nil(t, d.Diagnoses(99))

	assert.Equal(t, 2, d.Cardinality(1))
	assert.Equal(t, 0, d.Cardinality(2))
}

func TestRemove(t *testing.T) {
	d := Build(csr.MustFromRows(3, [][]int32{{0}, {1}, {2}}))

	require.True(t, d.Contains(1))
	require.True(t, d.Remove(1))
	require.False(t, d.Contains(1))
	require.False(t, d.Remove(1))
	require.Equal(t, 2, d.Len())
	require.Equal(t, 3, d.NumFeatures())

	// Definition survives removal.
	require.Equal(t, []model.DiagnosisCode{1}, d.Diagnoses(1))
}

func TestCandidates(t *testing.T) {
	d := Build(csr.MustFromRows(6, [][]int32{
		{1, 2}, // 0
		{2, 3}, // 1
		{},     // 2
		{2},    // 3
		{5},    // 4
	}))

	got := d.Candidates(roaring.BitmapOf(1, 2))
	require.Equal(t, []uint32{0, 1, 3}, got.ToArray())

	d.Remove(0)
	got = d.Candidates(roaring.BitmapOf(1, 2))
	require.Equal(t, []uint32{1, 3}, got.ToArray())

	require.True(t, d.Candidates(roaring.New()).IsEmpty())
}

func TestCovers(t *testing.T) {
	d := Build(csr.MustFromRows(4, [][]int32{{1, 2}, {}, {3}}))

	require.True(t, d.Covers(0, roaring.BitmapOf(1, 2, 3)))
	require.False(t, d.Covers(0, roaring.BitmapOf(1, 3)))
	require.False(t, d.Covers(1, roaring.BitmapOf(1, 2, 3)), "empty feature is inert")
	require.True(t, d.Covers(2, roaring.BitmapOf(3)))
}
