package dataset

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/featmap"
	"github.com/hupe1980/featmap/blobstore"
)

const (
	// ManifestVersion is the manifest schema version written by Publish.
	ManifestVersion = 1

	runsDir      = "runs"
	manifestName = "manifest.json"
)

// ErrNoCurrentRun is returned by Current before the first Publish.
var ErrNoCurrentRun = errors.New("no run has been published")

// Manifest describes one published remapping run.
type Manifest struct {
	Version   int               `json:"version"`
	ID        string            `json:"id"`
	Codec     string            `json:"codec"`
	CreatedAt time.Time         `json:"created_at"`
	Inputs    Inputs            `json:"inputs"`
	Output    Artifact          `json:"output"`
	Summary   Summary           `json:"summary"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// Inputs names the matrices a run was computed from.
type Inputs struct {
	Observations string `json:"observations"`
	Indicator    string `json:"indicator"`
}

// Artifact describes a stored matrix.
type Artifact struct {
	Name        string `json:"name"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
	NNZ         int    `json:"nnz"`
	Bytes       int64  `json:"bytes"`
	Compression string `json:"compression"`
}

// Summary is the persisted part of a featmap.Report.
type Summary struct {
	MinSupport       int      `json:"min_support"`
	UsedFeatures     int      `json:"used_features"`
	Removed          []uint32 `json:"removed"`
	Repaired         int      `json:"repaired"`
	DroppedDiagnoses int      `json:"dropped_diagnoses"`
	DurationMillis   int64    `json:"duration_ms"`
}

// NewRunID returns a sortable, collision-resistant run id.
func NewRunID(now time.Time) string {
	return now.UTC().Format("20060102T150405Z") + "-" + uuid.NewString()[:8]
}

// RunPath returns the blob name of file inside the directory of run id.
func RunPath(id, file string) string {
	return path.Join(runsDir, id, file)
}

// NewManifest builds the manifest of a finished run.
func NewManifest(id string, in Inputs, out Artifact, res *featmap.Result) *Manifest {
	r := res.Report
	removed := make([]uint32, len(r.Removed))
	for k, f := range r.Removed {
		removed[k] = uint32(f)
	}

	out.Rows, out.Cols, out.NNZ = res.Matrix.Rows, res.Matrix.Cols, res.Matrix.NNZ()
	return &Manifest{
		Version:   ManifestVersion,
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Inputs:    in,
		Output:    out,
		Summary: Summary{
			MinSupport:       r.MinSupport,
			UsedFeatures:     r.UsedFeatures,
			Removed:          removed,
			Repaired:         r.Repaired,
			DroppedDiagnoses: r.DroppedDiagnoses,
			DurationMillis:   r.Duration.Milliseconds(),
		},
	}
}

// Publish writes m under runs/<id>/manifest.json and points CURRENT at it.
// A manifest for the same id is never overwritten; that case returns an
// error wrapping blobstore.ErrExists.
func (d *Dataset) Publish(ctx context.Context, m *Manifest) error {
	if m.ID == "" {
		return errors.New("manifest has no run id")
	}
	m.Version = ManifestVersion
	m.Codec = d.opts.Codec.Name()

	data, err := d.opts.Codec.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	name := RunPath(m.ID, manifestName)
	if err := blobstore.PutIfNotExists(ctx, d.store, name, data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := d.store.Put(ctx, blobstore.CurrentName, []byte(name)); err != nil {
		return fmt.Errorf("update %s: %w", blobstore.CurrentName, err)
	}

	d.logger.InfoContext(ctx, "run published", "run_id", m.ID, "manifest", name)
	return nil
}

// Current returns the manifest CURRENT points at.
func (d *Dataset) Current(ctx context.Context) (*Manifest, error) {
	ptr, err := blobstore.Get(ctx, d.store, blobstore.CurrentName)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, ErrNoCurrentRun
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", blobstore.CurrentName, err)
	}
	return d.readManifest(ctx, strings.TrimSpace(string(ptr)))
}

// Manifest returns the manifest of run id.
func (d *Dataset) Manifest(ctx context.Context, id string) (*Manifest, error) {
	return d.readManifest(ctx, RunPath(id, manifestName))
}

func (d *Dataset) readManifest(ctx context.Context, name string) (*Manifest, error) {
	data, err := blobstore.Get(ctx, d.store, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	var m Manifest
	if err := d.opts.Codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("%s: unsupported manifest version %d (expected %d)", name, m.Version, ManifestVersion)
	}
	return &m, nil
}

// Runs lists the ids of all published runs in ascending order.
func (d *Dataset) Runs(ctx context.Context) ([]string, error) {
	names, err := d.store.List(ctx, runsDir+"/")
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, name := range names {
		dir, file := path.Split(name)
		if file != manifestName {
			continue
		}
		ids = append(ids, path.Base(dir))
	}
	return ids, nil
}
