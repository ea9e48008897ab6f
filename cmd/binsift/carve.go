package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/binsift/binsift/pkg/carver"
	"github.com/binsift/binsift/pkg/types"
)

var (
	carveCatalog string
	carveFormat  string
	carveColor   string
	carveOut     string
)

// styles holds color formatters for human-readable carve output
type styles struct {
	heading *color.Color
	name    *color.Color
	tag     *color.Color
	meta    *color.Color
}

func newStyles(enabled bool) *styles {
	s := &styles{
		heading: color.New(color.Bold, color.FgHiWhite),
		name:    color.New(color.FgHiGreen),
		tag:     color.New(color.Bold, color.FgHiBlue),
		meta:    color.New(color.FgYellow),
	}

	if !enabled {
		s.heading.DisableColor()
		s.name.DisableColor()
		s.tag.DisableColor()
		s.meta.DisableColor()
	}

	return s
}

var carveCmd = &cobra.Command{
	Use:   "carve <file>",
	Short: "Carve embedded files out of a local binary",
	Long:  "Scan a local file for known signatures and list the carved candidate files",
	Args:  cobra.ExactArgs(1),
	RunE:  runCarve,
}

func init() {
	carveCmd.Flags().StringVar(&carveCatalog, "catalog", "", "Path to custom signature catalog (YAML)")
	carveCmd.Flags().StringVar(&carveFormat, "format", "human", "Output format: human, json")
	carveCmd.Flags().StringVar(&carveColor, "color", "auto", "Color output: auto, always, never")
	carveCmd.Flags().StringVarP(&carveOut, "out", "o", "", "Directory to write carved files into")
}

func runCarve(cmd *cobra.Command, args []string) error {
	target := args[0]

	content, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("reading target: %w", err)
	}
	if len(content) == 0 {
		return fmt.Errorf("target is empty: %s", target)
	}

	catalog, err := loadCatalog(carveCatalog)
	if err != nil {
		return err
	}

	carved := carver.New(catalog).Carve(content)

	if carveOut != "" {
		if err := writeCarved(carveOut, carved); err != nil {
			return err
		}
	}

	switch carveFormat {
	case "json":
		return outputCarvedJSON(cmd, target, content, carved)
	case "human":
		return outputCarvedHuman(cmd, target, content, carved)
	default:
		return fmt.Errorf("unknown output format: %s", carveFormat)
	}
}

func writeCarved(dir string, carved []types.CarvedFile) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	for _, f := range carved {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}
	}
	return nil
}

func outputCarvedJSON(cmd *cobra.Command, target string, content []byte, carved []types.CarvedFile) error {
	manifest := types.NewManifest(types.ComputeSourceID(content), filepath.Base(target), len(content), carved)

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(manifest)
}

func outputCarvedHuman(cmd *cobra.Command, target string, content []byte, carved []types.CarvedFile) error {
	out := cmd.OutOrStdout()

	switch carveColor {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default: // "auto"
		if !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != "" {
			color.NoColor = true
		} else {
			color.NoColor = false
		}
	}
	s := newStyles(!color.NoColor)

	fmt.Fprintf(out, "%s: %d bytes, %s\n", target, len(content),
		s.heading.Sprintf("%d files found", len(carved)))

	for i, f := range carved {
		fmt.Fprintf(out, "%d. %s\n", i, s.name.Sprint(f.Name))
		fmt.Fprintf(out, "   %s %s\n", s.tag.Sprint(f.Tag),
			s.meta.Sprintf("offset=%d size=%d", f.Offset, f.Size))
	}

	if carveOut != "" {
		fmt.Fprintf(out, "\nCarved files written to: %s\n", carveOut)
	}
	return nil
}
