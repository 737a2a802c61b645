package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hupe1980/featmap/blobstore"
	"github.com/hupe1980/featmap/codec"
	"github.com/hupe1980/featmap/csr"
	"github.com/hupe1980/featmap/internal/resource"
)

// Limits bounds dataset transfers. Zero values mean unlimited, except
// MaxConcurrentTransfers, which defaults to 1. MemoryLimitBytes caps the
// memory of loads and saves in flight; a loaded matrix stops counting once
// Load returns.
type Limits = resource.Config

// Observer receives one call per finished load or save.
type Observer interface {
	RecordTransfer(op string, bytes int64, d time.Duration, err error)
}

type noopObserver struct{}

func (noopObserver) RecordTransfer(string, int64, time.Duration, error) {}

// Options configures a Dataset.
type Options struct {
	Limits      Limits
	Codec       codec.Codec
	Compression csr.Compression
	Logger      *slog.Logger
	Observer    Observer
}

// Option mutates Options.
type Option func(*Options)

// WithLimits sets transfer limits.
func WithLimits(l Limits) Option {
	return func(o *Options) { o.Limits = l }
}

// WithCodec sets the manifest codec. Default is codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *Options) { o.Codec = c }
}

// WithCompression sets the block compression used by Save. Default is LZ4.
func WithCompression(c csr.Compression) Option {
	return func(o *Options) { o.Compression = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithObserver sets the transfer observer.
func WithObserver(obs Observer) Option {
	return func(o *Options) { o.Observer = obs }
}

// Dataset reads and writes matrices and manifests in one store.
// It is safe for concurrent use.
type Dataset struct {
	store  blobstore.BlobStore
	rc     *resource.Controller
	opts   Options
	logger *slog.Logger
}

// New creates a Dataset on store.
func New(store blobstore.BlobStore, optFns ...Option) *Dataset {
	opts := Options{
		Codec:       codec.Default,
		Compression: csr.CompressionLZ4,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Observer == nil {
		opts.Observer = noopObserver{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Dataset{
		store:  store,
		rc:     resource.NewController(opts.Limits),
		opts:   opts,
		logger: logger.With("component", "dataset"),
	}
}

// Store returns the underlying blob store.
func (d *Dataset) Store() blobstore.BlobStore {
	return d.store
}

// Limits returns the effective transfer limits.
func (d *Dataset) Limits() Limits {
	return d.rc.Config()
}

// MemoryInUse returns the bytes currently reserved by loads in flight.
func (d *Dataset) MemoryInUse() int64 {
	return d.rc.MemoryUsage()
}

// Stat reads only the header of the matrix stored under name.
func (d *Dataset) Stat(ctx context.Context, name string) (csr.Header, int64, error) {
	b, err := d.store.Open(ctx, name)
	if err != nil {
		return csr.Header{}, 0, fmt.Errorf("open %s: %w", name, err)
	}
	defer b.Close()

	h, err := readHeader(ctx, b)
	if err != nil {
		return csr.Header{}, 0, fmt.Errorf("%s: %w", name, err)
	}
	return h, b.Size(), nil
}

func readHeader(ctx context.Context, b blobstore.Blob) (csr.Header, error) {
	buf := make([]byte, csr.HeaderSize)
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !(errors.Is(err, io.EOF) && n == len(buf)) {
		if errors.Is(err, io.EOF) {
			return csr.Header{}, fmt.Errorf("%w: %d bytes is too short for a header", csr.ErrCorrupt, n)
		}
		return csr.Header{}, err
	}
	return csr.ParseHeader(buf)
}

// Load reads and decodes the matrix stored under name.
//
// The encoded size plus the decoded size announced by the header is
// reserved against the memory limit for the duration of the load.
func (d *Dataset) Load(ctx context.Context, name string) (m *csr.Matrix, err error) {
	start := time.Now()
	var size int64
	defer func() {
		d.opts.Observer.RecordTransfer("load", size, time.Since(start), err)
	}()

	if err := d.rc.AcquireTransfer(ctx); err != nil {
		return nil, err
	}
	defer d.rc.ReleaseTransfer()

	b, err := d.store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer b.Close()
	size = b.Size()

	h, err := readHeader(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	reserve := size + h.DecodedBytes()
	if err := d.rc.AcquireMemory(ctx, reserve); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	defer d.rc.ReleaseMemory(reserve)

	rc, err := b.ReadRange(ctx, 0, size)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer rc.Close()

	m, err = csr.Decode(resource.NewRateLimitedReader(ctx, rc, d.rc))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	d.logger.DebugContext(ctx, "matrix loaded",
		"name", name,
		"rows", m.Rows,
		"cols", m.Cols,
		"nnz", m.NNZ(),
		"bytes", size,
		"memory_reserved", d.rc.MemoryUsage(),
		"duration", time.Since(start),
	)
	return m, nil
}

// Save encodes m and writes it under name. It returns the encoded size.
// A failed save leaves no blob behind on stores that support aborting.
func (d *Dataset) Save(ctx context.Context, name string, m *csr.Matrix) (n int64, err error) {
	start := time.Now()
	defer func() {
		d.opts.Observer.RecordTransfer("save", n, time.Since(start), err)
	}()

	if err := d.rc.AcquireTransfer(ctx); err != nil {
		return 0, err
	}
	defer d.rc.ReleaseTransfer()

	data, err := csr.Marshal(m, d.opts.Compression)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", name, err)
	}

	w, err := d.store.Create(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", name, err)
	}

	written, err := io.Copy(resource.NewRateLimitedWriter(ctx, w, d.rc), bytes.NewReader(data))
	if err != nil {
		_ = blobstore.Abort(w)
		return 0, fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("commit %s: %w", name, err)
	}

	d.logger.DebugContext(ctx, "matrix saved",
		"name", name,
		"compression", d.opts.Compression.String(),
		"bytes", written,
		"duration", time.Since(start),
	)
	return written, nil
}
