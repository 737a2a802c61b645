package dataset

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/featmap/blobstore"
	"github.com/hupe1980/featmap/csr"
	"github.com/hupe1980/featmap/internal/resource"
	"github.com/hupe1980/featmap/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transfer struct {
	op    string
	bytes int64
	err   error
}

type recordingObserver struct {
	mu        sync.Mutex
	transfers []transfer
}

func (r *recordingObserver) RecordTransfer(op string, bytes int64, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfers = append(r.transfers, transfer{op, bytes, err})
}

func TestDataset_SaveLoad(t *testing.T) {
	ctx := context.Background()
	x := testutil.NewRNG(1).Matrix(300, 40, 6)

	stores := map[string]blobstore.BlobStore{
		"memory": blobstore.NewMemoryStore(),
		"local":  blobstore.NewLocalStore(t.TempDir()),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			for _, c := range []csr.Compression{csr.CompressionNone, csr.CompressionLZ4, csr.CompressionZSTD} {
				obs := &recordingObserver{}
				ds := New(store, WithCompression(c), WithObserver(obs))

				n, err := ds.Save(ctx, "in/x.fmcs", x)
				require.NoError(t, err)
				assert.Positive(t, n)

				got, err := ds.Load(ctx, "in/x.fmcs")
				require.NoError(t, err)
				assert.True(t, x.Equal(got), "compression %s", c)

				h, size, err := ds.Stat(ctx, "in/x.fmcs")
				require.NoError(t, err)
				assert.Equal(t, n, size)
				assert.Equal(t, c, h.Compression)
				assert.Equal(t, x.NNZ(), h.NNZ)

				require.Len(t, obs.transfers, 2)
				assert.Equal(t, transfer{"save", n, nil}, obs.transfers[0])
				assert.Equal(t, transfer{"load", n, nil}, obs.transfers[1])
			}
		})
	}
}

func TestDataset_Load_Errors(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	obs := &recordingObserver{}
	ds := New(store, WithObserver(obs))

	_, err := ds.Load(ctx, "missing.fmcs")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Put(ctx, "short.fmcs", []byte("FMCS")))
	_, err = ds.Load(ctx, "short.fmcs")
	require.ErrorIs(t, err, csr.ErrCorrupt)

	data, err := csr.Marshal(csr.MustFromRows(3, [][]int32{{0, 2}}), csr.CompressionNone)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, store.Put(ctx, "bad.fmcs", data))
	_, err = ds.Load(ctx, "bad.fmcs")
	require.ErrorIs(t, err, csr.ErrCorrupt)

	require.Len(t, obs.transfers, 3)
	for _, tr := range obs.transfers {
		assert.Error(t, tr.err)
	}
}

func TestDataset_MemoryLimit(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	x := testutil.NewRNG(2).Matrix(1000, 50, 8)

	_, err := New(store).Save(ctx, "x.fmcs", x)
	require.NoError(t, err)

	ds := New(store, WithLimits(Limits{MemoryLimitBytes: 1024}))
	_, err = ds.Load(ctx, "x.fmcs")
	require.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)

	ds = New(store, WithLimits(Limits{MemoryLimitBytes: 1 << 30, IOLimitBytesPerSec: 1 << 30}))
	got, err := ds.Load(ctx, "x.fmcs")
	require.NoError(t, err)
	assert.True(t, x.Equal(got))
}

// failingStore hands out writers that always fail.
type failingStore struct {
	*blobstore.MemoryStore
}

type failingWriter struct {
	blobstore.WritableBlob
	aborted bool
}

func (w *failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func (w *failingWriter) Abort() error {
	w.aborted = true
	return nil
}

func (s failingStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	w, err := s.MemoryStore.Create(ctx, name)
	return &failingWriter{WritableBlob: w}, err
}

func TestDataset_Save_Aborts(t *testing.T) {
	ctx := context.Background()
	store := failingStore{blobstore.NewMemoryStore()}

	_, err := New(store).Save(ctx, "y.fmcs", csr.MustFromRows(2, [][]int32{{1}}))
	require.ErrorContains(t, err, "disk full")

	_, err = store.Open(ctx, "y.fmcs")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestDataset_Save_Invalid(t *testing.T) {
	ds := New(blobstore.NewMemoryStore())
	_, err := ds.Save(context.Background(), "y.fmcs", &csr.Matrix{Rows: 1, Cols: 1, Indptr: []int32{0, 1}, Indices: []int32{5}})
	require.ErrorIs(t, err, csr.ErrInvalidMatrix)
}

func TestDataset_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ds := New(blobstore.NewMemoryStore(), WithLogger(logger))

	_, err := ds.Save(context.Background(), "y.fmcs", csr.MustFromRows(2, [][]int32{{1}}))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"matrix saved"`)
	assert.Contains(t, buf.String(), `"component":"dataset"`)
	assert.Contains(t, buf.String(), `"compression":"lz4"`)

	m, err := ds.Load(context.Background(), "y.fmcs")
	require.NoError(t, err)
	assert.Equal(t, 1, m.NNZ())
	assert.Contains(t, buf.String(), `"msg":"matrix loaded"`)
	assert.Contains(t, buf.String(), `"memory_reserved":`)
	assert.Zero(t, ds.MemoryInUse())
}

func TestDataset_Limits(t *testing.T) {
	ds := New(blobstore.NewMemoryStore())
	assert.Equal(t, Limits{MaxConcurrentTransfers: 1}, ds.Limits())

	ds = New(blobstore.NewMemoryStore(), WithLimits(Limits{MemoryLimitBytes: 1 << 20, MaxConcurrentTransfers: 4}))
	assert.Equal(t, int64(1<<20), ds.Limits().MemoryLimitBytes)
	assert.Equal(t, int64(4), ds.Limits().MaxConcurrentTransfers)
}
