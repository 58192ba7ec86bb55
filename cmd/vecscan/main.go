// Command vecscan imports vectors into a blob store and answers cosine
// similarity queries against them.
//
//	vecscan import vectors.txt --dim 300 --path ./data
//	vecscan similar "duck|NOUN" -n 10 --path ./data
//	vecscan query 0.1,0.2,0.3 --config vecscan.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vecscan"
	"github.com/hupe1980/vecscan/blobstore"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vecscan",
		Short: "Exhaustive cosine similarity search over keyed vectors",
		Long: `vecscan stores keyed, frequency-annotated vectors in a blob store
(local directory, memory, S3, MinIO, Badger or SQLite) and answers
nearest-neighbor queries by scanning every vector.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "YAML config file")
	pf.String("backend", "", "store backend: local, memory, s3, minio, badger, sqlite")
	pf.String("path", "", "store directory or database file")
	pf.String("prefix", "", "blob name prefix inside the store")
	pf.String("compression", "", "table blob compression: none, lz4, zstd")
	pf.Int("workers", 0, "scan workers (0 = GOMAXPROCS)")
	pf.String("log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newImportCmd(),
		newQueryCmd(),
		newSimilarCmd(),
		newInfoCmd(),
	)
	return rootCmd
}

// resolveConfig loads the config file, if any, and applies flags that were
// set explicitly.
func resolveConfig(cmd *cobra.Command) (Config, error) {
	flags := cmd.Flags()

	cfg := DefaultConfig()
	if path, _ := flags.GetString("config"); path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	if flags.Changed("backend") {
		cfg.Store.Backend, _ = flags.GetString("backend")
	}
	if flags.Changed("path") {
		cfg.Store.Path, _ = flags.GetString("path")
	}
	if flags.Changed("prefix") {
		cfg.Store.Prefix, _ = flags.GetString("prefix")
	}
	if flags.Changed("compression") {
		cfg.Compression, _ = flags.GetString("compression")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Lookup("dim") != nil && flags.Changed("dim") {
		cfg.Dimension, _ = flags.GetInt("dim")
	}

	return cfg, cfg.Validate()
}

// session bundles an open store with the map loaded from it.
type session struct {
	cfg   Config
	store blobstore.Store
	close func() error
	vm    *vecscan.VectorMap
}

func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}

	store, closeFn, err := openStore(cmd.Context(), cfg.Store)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, store: store, close: closeFn}, nil
}

// load reads the persisted map. If allowMissing is set and nothing has been
// saved yet, an empty map of dim is returned instead.
func (s *session) load(ctx context.Context, dim int, allowMissing bool) error {
	opts, err := s.cfg.Options()
	if err != nil {
		return err
	}

	vm, err := vecscan.NewVectorMap(max(dim, 1), opts...)
	if err != nil {
		return err
	}
	// A failed Load leaves vm empty and at dim.
	if err := vm.Load(ctx, s.store); err != nil {
		if !allowMissing || !errors.Is(err, blobstore.ErrNotFound) {
			return fmt.Errorf("load map: %w", err)
		}
	}
	if s.cfg.Dimension > 0 && vm.Dim() != s.cfg.Dimension && vm.Len() > 0 {
		return fmt.Errorf("stored map has dimension %d, config wants %d", vm.Dim(), s.cfg.Dimension)
	}
	s.vm = vm
	return nil
}
