package csr

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/featmap/internal/hash"
)

const (
	magic         = "FMCS"
	formatVersion = uint16(1)
	headerSize    = 4 + 2 + 1 + 1 + 8 + 8 + 8
	trailerSize   = 4
)

// HeaderSize is the number of leading bytes ParseHeader needs.
const HeaderSize = headerSize

// Header is the fixed-size prefix of an encoded matrix.
type Header struct {
	Version     uint16
	Compression Compression
	Rows        int
	Cols        int
	NNZ         int
}

// DecodedBytes is the memory the decoded Indptr and Indices occupy.
func (h Header) DecodedBytes() int64 {
	return 4 * (int64(h.Rows) + 1 + int64(h.NNZ))
}

// ParseHeader decodes the header at the start of data without checking the
// payload or checksum.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < headerSize {
		return Header{}, fmt.Errorf("%w: %d bytes is too short for a header", ErrCorrupt, len(data))
	}
	if string(data[0:4]) != magic {
		return Header{}, fmt.Errorf("%w: bad magic %q", ErrCorrupt, data[0:4])
	}
	h := Header{
		Version:     binary.LittleEndian.Uint16(data[4:]),
		Compression: Compression(data[6]),
	}
	if h.Version != formatVersion {
		return Header{}, fmt.Errorf("%w: version %d", ErrIncompatibleFormat, h.Version)
	}
	rows := binary.LittleEndian.Uint64(data[8:])
	cols := binary.LittleEndian.Uint64(data[16:])
	nnz := binary.LittleEndian.Uint64(data[24:])
	if rows >= math.MaxInt32 || cols > math.MaxInt32 || nnz > math.MaxInt32 {
		return Header{}, fmt.Errorf("%w: %d x %d with %d entries", ErrTooLarge, rows, cols, nnz)
	}
	h.Rows, h.Cols, h.NNZ = int(rows), int(cols), int(nnz)
	return h, nil
}

// Marshal encodes m using the given block compression.
func Marshal(m *Matrix, c Compression) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if c > CompressionZSTD {
		return nil, fmt.Errorf("csr: unknown compression %s", c)
	}

	buf := make([]byte, headerSize, headerSize+4*(len(m.Indptr)+len(m.Indices))+2*blockHeaderSize+trailerSize)
	copy(buf[0:4], magic)
	binary.LittleEndian.PutUint16(buf[4:], formatVersion)
	buf[6] = byte(c)
	binary.LittleEndian.PutUint64(buf[8:], uint64(m.Rows))
	binary.LittleEndian.PutUint64(buf[16:], uint64(m.Cols))
	binary.LittleEndian.PutUint64(buf[24:], uint64(m.NNZ()))

	var err error
	if buf, err = appendBlock(buf, int32sToBytes(m.Indptr), c); err != nil {
		return nil, err
	}
	if buf, err = appendBlock(buf, int32sToBytes(m.Indices), c); err != nil {
		return nil, err
	}

	return binary.LittleEndian.AppendUint32(buf, hash.CRC32C(buf)), nil
}

// Unmarshal decodes a matrix produced by Marshal and validates it.
func Unmarshal(data []byte) (*Matrix, error) {
	if len(data) < headerSize+trailerSize {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrCorrupt, len(data))
	}
	if string(data[0:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorrupt, data[0:4])
	}

	body := data[:len(data)-trailerSize]
	want := binary.LittleEndian.Uint32(data[len(data)-trailerSize:])
	if got := hash.CRC32C(body); got != want {
		return nil, fmt.Errorf("%w: checksum mismatch (got %08x, want %08x)", ErrCorrupt, got, want)
	}

	h, err := ParseHeader(body)
	if err != nil {
		return nil, err
	}

	rest := body[headerSize:]
	indptrBytes, n, err := readBlock(rest, h.Compression, 4*(h.Rows+1))
	if err != nil {
		return nil, fmt.Errorf("indptr: %w", err)
	}
	rest = rest[n:]
	indicesBytes, n, err := readBlock(rest, h.Compression, 4*h.NNZ)
	if err != nil {
		return nil, fmt.Errorf("indices: %w", err)
	}
	if n != len(rest) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(rest)-n)
	}

	return New(h.Rows, h.Cols, bytesToInt32s(indicesBytes), bytesToInt32s(indptrBytes))
}

// Encode writes the encoding of m to w.
func Encode(w io.Writer, m *Matrix, c Compression) error {
	data, err := Marshal(m, c)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Decode reads an encoded matrix from r until EOF.
func Decode(r io.Reader) (*Matrix, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

func int32sToBytes(vals []int32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
	}
	return out
}

func bytesToInt32s(data []byte) []int32 {
	out := make([]int32, len(data)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out
}
