package csr

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomMatrix(seed int64, rows, cols, maxRowLen int) *Matrix {
	rng := rand.New(rand.NewSource(seed))
	b := NewBuilder(cols, rows)
	for r := 0; r < rows; r++ {
		n := rng.Intn(maxRowLen + 1)
		for i := 0; i < n; i++ {
			b.Append(uint32(rng.Intn(cols)))
		}
		b.EndRow()
	}
	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

func TestMarshalUnmarshal(t *testing.T) {
	matrices := map[string]*Matrix{
		"empty":  MustFromRows(4, nil),
		"small":  MustFromRows(5, [][]int32{{1, 2}, {}, {4, 0, 3}}),
		"random": randomMatrix(42, 2000, 300, 12),
	}

	for name, m := range matrices {
		for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
			t.Run(name+"/"+c.String(), func(t *testing.T) {
				data, err := Marshal(m, c)
				require.NoError(t, err)

				got, err := Unmarshal(data)
				require.NoError(t, err)
				require.True(t, m.Equal(got), "decoded matrix differs")
			})
		}
	}
}

func TestEncodeDecode_Stream(t *testing.T) {
	m := randomMatrix(7, 500, 64, 6)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, m, CompressionZSTD))

	got, err := Decode(&buf)
	require.NoError(t, err)
	require.True(t, m.Equal(got))
}

func TestCompression_Shrinks(t *testing.T) {
	// Long runs of identical rows compress well.
	rows := make([][]int32, 5000)
	for i := range rows {
		rows[i] = []int32{1, 2, 3}
	}
	m := MustFromRows(8, rows)

	raw, err := Marshal(m, CompressionNone)
	require.NoError(t, err)
	for _, c := range []Compression{CompressionLZ4, CompressionZSTD} {
		packed, err := Marshal(m, c)
		require.NoError(t, err)
		require.Less(t, len(packed), len(raw)/2, c.String())
	}
}

func TestUnmarshal_Corruption(t *testing.T) {
	m := MustFromRows(5, [][]int32{{1, 2}, {3}})
	data, err := Marshal(m, CompressionNone)
	require.NoError(t, err)

	t.Run("checksum", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[headerSize+blockHeaderSize] ^= 0xff
		_, err := Unmarshal(bad)
		require.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("magic", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[0] = 'X'
		_, err := Unmarshal(bad)
		require.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Unmarshal(data[:10])
		require.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestMarshal_RejectsInvalid(t *testing.T) {
	_, err := Marshal(&Matrix{Rows: 1, Cols: 1, Indptr: []int32{0, 2}, Indices: []int32{0}}, CompressionNone)
	require.ErrorIs(t, err, ErrInvalidMatrix)

	_, err = Marshal(MustFromRows(1, nil), Compression(9))
	require.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		require.Equal(t, c, got)
	}
	got, err := ParseCompression("")
	require.NoError(t, err)
	require.Equal(t, CompressionNone, got)

	_, err = ParseCompression("brotli")
	require.Error(t, err)
}

func TestParseHeader(t *testing.T) {
	m := randomMatrix(7, 50, 30, 6)
	data, err := Marshal(m, CompressionLZ4)
	require.NoError(t, err)

	h, err := ParseHeader(data[:HeaderSize])
	require.NoError(t, err)
	require.Equal(t, Header{Version: 1, Compression: CompressionLZ4, Rows: 50, Cols: 30, NNZ: m.NNZ()}, h)
	require.Equal(t, int64(4*(51+m.NNZ())), h.DecodedBytes())

	_, err = ParseHeader(data[:HeaderSize-1])
	require.ErrorIs(t, err, ErrCorrupt)

	bad := bytes.Clone(data)
	bad[4] = 9
	_, err = ParseHeader(bad)
	require.ErrorIs(t, err, ErrIncompatibleFormat)
}

func TestMarshal_BlockTooLarge(t *testing.T) {
	old := maxBlockSize
	maxBlockSize = 16
	t.Cleanup(func() { maxBlockSize = old })

	// Indptr is 12 bytes, indices 20 bytes.
	m := MustFromRows(8, [][]int32{{0, 1, 2}, {3, 4}})
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		_, err := Marshal(m, c)
		require.ErrorIs(t, err, ErrTooLarge, c.String())
	}

	small := MustFromRows(8, [][]int32{{0}, {1}})
	_, err := Marshal(small, CompressionNone)
	require.NoError(t, err)
}
