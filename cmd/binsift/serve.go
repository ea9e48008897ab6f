package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/binsift/binsift/pkg/extract"
	"github.com/binsift/binsift/pkg/index"
	"github.com/binsift/binsift/pkg/serve"
	"github.com/binsift/binsift/pkg/signature"
	"github.com/binsift/binsift/pkg/store"
)

var (
	serveAddr    string
	serveData    string
	serveIndex   string
	serveCatalog string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the extraction service over HTTP",
	Long: `Run binsift as a long-lived HTTP service. Clients upload binary blobs,
receive a manifest of carved candidate files, stream archive-build
progress as server-sent events, and download the resulting zip.

Artifacts are held in memory unless --data points at a directory.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8000", "Listen address")
	serveCmd.Flags().StringVar(&serveData, "data", "", "Artifact directory (empty for in-memory storage)")
	serveCmd.Flags().StringVar(&serveIndex, "index", "", "Upload catalog database path (empty to disable)")
	serveCmd.Flags().StringVar(&serveCatalog, "catalog", "", "Path to custom signature catalog (YAML)")

	rootCmd.AddCommand(serveCmd)
}

// stderrLogger routes core diagnostics to stderr when --verbose is set.
type stderrLogger struct{}

func (stderrLogger) Log(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func runServe(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog(serveCatalog)
	if err != nil {
		return err
	}

	blobs, err := store.New(store.Config{Root: serveData})
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}

	var idx *index.Index
	if serveIndex != "" {
		idx, err = index.Open(serveIndex)
		if err != nil {
			return fmt.Errorf("opening index: %w", err)
		}
		defer idx.Close()
	}

	var logger extract.DebugLogger
	if verbose {
		logger = stderrLogger{}
	}

	core, err := extract.NewCore(extract.Config{
		Catalog: catalog,
		Blobs:   blobs,
		Index:   idx,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "binsift serving on %s\n", serveAddr)
	}
	return serve.NewServer(core).Run(ctx, serveAddr)
}

func loadCatalog(path string) ([]signature.Signature, error) {
	if path == "" {
		return nil, nil
	}
	catalog, err := signature.LoadCatalogFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return catalog, nil
}
