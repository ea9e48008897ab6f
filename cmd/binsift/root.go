package main

import (
	"github.com/spf13/cobra"
)

var (
	verbose bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "binsift",
	Short: "binsift - carve embedded files out of binary blobs",
	Long: `Binsift scans arbitrary binary blobs for known file-format signatures,
carves out the embedded sub-files it finds, and packages selections of
them into downloadable zip archives.

Run it as a one-shot carver on local files, or as an HTTP service with
streaming archive progress.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	// Add subcommands
	rootCmd.AddCommand(carveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
