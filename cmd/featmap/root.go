package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/hupe1980/featmap"
	"github.com/hupe1980/featmap/blobstore"
	"github.com/hupe1980/featmap/csr"
	"github.com/hupe1980/featmap/dataset"
	fmprom "github.com/hupe1980/featmap/metric/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// app is the state shared by all commands of one invocation.
type app struct {
	configPath string
	cfg        Config

	// Flag targets. They only override cfg when set explicitly.
	storeURI    string
	ddbTable    string
	cacheDir    string
	logLevel    string
	logFormat   string
	metricsFile string

	logger  *featmap.Logger
	store   blobstore.BlobStore
	metrics *fmprom.Collector
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "featmap",
		Short: "Remap diagnosis matrices onto clinical features",
		Long: `featmap covers the diagnosis set of every observation with feature
definitions from an indicator matrix, optionally enforcing a minimum support
per feature, and stores the result in a local or remote blob store.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&a.storeURI, "store", "", "blob store URI (path, file://, mem://, s3://, minio://)")
	pf.StringVar(&a.ddbTable, "ddb-table", "", "DynamoDB table for the CURRENT pointer of an s3:// store")
	pf.StringVar(&a.cacheDir, "cache-dir", "", "local cache directory for remote stores")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&a.logFormat, "log-format", "", "log format (text, json)")
	pf.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")

	root.AddCommand(
		newRemapCmd(a),
		newInspectCmd(a),
		newConvertCmd(a),
		newRunsCmd(a),
	)
	return root
}

// setup loads the configuration, applies flag overrides and opens the store.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	override(flags, "store", func() { cfg.Store.URI = a.storeURI })
	override(flags, "ddb-table", func() { cfg.Store.DDBTable = a.ddbTable })
	override(flags, "cache-dir", func() { cfg.Store.CacheDir = a.cacheDir })
	override(flags, "log-level", func() { cfg.Log.Level = a.logLevel })
	override(flags, "log-format", func() { cfg.Log.Format = a.logFormat })
	override(flags, "metrics-file", func() { cfg.MetricsFile = a.metricsFile })
	if err := cfg.validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, _ := cfg.logLevel()
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Log.Format, "json") {
		a.logger = featmap.NewLogger(slog.NewJSONHandler(cmd.ErrOrStderr(), opts))
	} else {
		a.logger = featmap.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
	}

	a.metrics = fmprom.NewCollector("featmap")

	a.store, err = openStore(cmd.Context(), cfg.Store)
	return err
}

func (a *app) teardown() error {
	if a.cfg.MetricsFile == "" || a.metrics == nil {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// dataset opens the configured store with the given save compression.
func (a *app) dataset(compression csr.Compression) *dataset.Dataset {
	return dataset.New(a.store,
		dataset.WithLimits(dataset.Limits{
			MemoryLimitBytes:       a.cfg.Limits.MemoryBytes,
			IOLimitBytesPerSec:     a.cfg.Limits.IOBytesPerSec,
			MaxConcurrentTransfers: a.cfg.Limits.MaxConcurrency,
		}),
		dataset.WithCompression(compression),
		dataset.WithLogger(a.logger.Logger),
		dataset.WithObserver(a.metrics),
	)
}

func override(flags *pflag.FlagSet, name string, apply func()) {
	if flags.Changed(name) {
		apply()
	}
}
