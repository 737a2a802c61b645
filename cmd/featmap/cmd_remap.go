package main

import (
	"fmt"
	"time"

	"github.com/hupe1980/featmap"
	"github.com/hupe1980/featmap/csr"
	"github.com/hupe1980/featmap/dataset"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type remapFlags struct {
	x, i, out   string
	runID       string
	smin        int
	workers     int
	compression string
	publish     bool
	labels      map[string]string
}

func newRemapCmd(a *app) *cobra.Command {
	f := &remapFlags{}

	cmd := &cobra.Command{
		Use:   "remap",
		Short: "Map observations onto features and store the result",
		Example: `  featmap remap --store ./data --x x.fmcs --i i.fmcs --out y.fmcs
  featmap remap --store s3://bucket/cohort --x x.fmcs --i i.fmcs --smin 25 --publish`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRemap(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.x, "x", "", "observation-by-diagnosis matrix")
	fl.StringVar(&f.i, "i", "", "feature-by-diagnosis indicator matrix")
	fl.StringVar(&f.out, "out", "", "output matrix name (default runs/<id>/y.fmcs)")
	fl.StringVar(&f.runID, "run-id", "", "run id (default: generated)")
	fl.IntVar(&f.smin, "smin", 0, "minimum support per used feature (0 disables)")
	fl.IntVar(&f.workers, "workers", 0, "resolution workers (default GOMAXPROCS)")
	fl.StringVar(&f.compression, "compression", "", "output compression (none, lz4, zstd)")
	fl.BoolVar(&f.publish, "publish", false, "write a run manifest and update CURRENT")
	fl.StringToStringVar(&f.labels, "label", nil, "manifest label key=value (repeatable)")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("i")

	return cmd
}

func (a *app) runRemap(cmd *cobra.Command, f *remapFlags) error {
	ctx := cmd.Context()
	cfg := a.cfg.Remap
	flags := cmd.Flags()
	override(flags, "smin", func() { cfg.MinSupport = f.smin })
	override(flags, "workers", func() { cfg.Workers = f.workers })
	override(flags, "compression", func() { cfg.Compression = f.compression })
	override(flags, "publish", func() { cfg.Publish = f.publish })

	if cfg.MinSupport < 0 {
		return fmt.Errorf("--smin must not be negative, got %d", cfg.MinSupport)
	}
	compression, err := csr.ParseCompression(cfg.Compression)
	if err != nil {
		return err
	}

	id := f.runID
	if id == "" {
		id = dataset.NewRunID(time.Now())
	}
	out := f.out
	if out == "" {
		out = dataset.RunPath(id, "y.fmcs")
	}
	logger := a.logger.WithRun(id)
	ds := a.dataset(compression)
	lim := ds.Limits()
	logger.DebugContext(ctx, "dataset opened",
		"store", a.cfg.Store.URI,
		"memory_limit", lim.MemoryLimitBytes,
		"io_limit", lim.IOLimitBytesPerSec,
		"max_transfers", lim.MaxConcurrentTransfers,
	)

	var x, i *csr.Matrix
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		x, err = ds.Load(gctx, f.x)
		return err
	})
	g.Go(func() (err error) {
		i, err = ds.Load(gctx, f.i)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	opts := []featmap.Option{
		featmap.WithLogger(logger),
		featmap.WithMetricsCollector(a.metrics),
	}
	if cfg.Workers > 0 {
		opts = append(opts, featmap.WithWorkers(cfg.Workers))
	}
	m := featmap.New(opts...)

	var res *featmap.Result
	if cfg.MinSupport > 0 {
		res, err = m.RemapWithMinSupport(ctx, x, i, cfg.MinSupport)
	} else {
		res, err = m.Remap(ctx, x, i)
	}
	if err != nil {
		return err
	}

	size, err := ds.Save(ctx, out, res.Matrix)
	if err != nil {
		return err
	}

	if cfg.Publish {
		manifest := dataset.NewManifest(id,
			dataset.Inputs{Observations: f.x, Indicator: f.i},
			dataset.Artifact{Name: out, Bytes: size, Compression: compression.String()},
			res,
		)
		manifest.Labels = f.labels
		if err := ds.Publish(ctx, manifest); err != nil {
			return err
		}
	}

	r := res.Report
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run:               %s\n", id)
	fmt.Fprintf(w, "output:            %s (%d bytes, %s)\n", out, size, compression)
	fmt.Fprintf(w, "observations:      %d\n", r.Observations)
	fmt.Fprintf(w, "features used:     %d of %d\n", r.UsedFeatures, r.Features)
	fmt.Fprintf(w, "nnz:               %d\n", r.NNZ)
	fmt.Fprintf(w, "dropped diagnoses: %d\n", r.DroppedDiagnoses)
	if r.MinSupport > 0 {
		fmt.Fprintf(w, "removed features:  %d %v\n", len(r.Removed), r.Removed)
		fmt.Fprintf(w, "repaired rows:     %d\n", r.Repaired)
	}
	if cfg.Publish {
		fmt.Fprintln(w, "published:         yes")
	}
	return nil
}
