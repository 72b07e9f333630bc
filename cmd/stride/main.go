// Command stride runs a PACE dominating-set solver against a batch of
// benchmark instances, verifying and optionally uploading each result.
package main

import (
	"fmt"
	"os"

	"github.com/cuemby/stride/pkg/log"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stride",
	Short: "stride runs dominating-set solvers against PACE benchmark instances",
	Long: `stride is a benchmark-runner for the PACE dominating-set challenge.
It fetches graph instances and their metadata from an origin server,
executes an external solver binary against each one under a timeout,
verifies the returned solution, and optionally reports the result back
to the origin.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("stride version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "output logs in JSON format")
	rootCmd.PersistentFlags().String("data-dir", ".stride", "working directory for config, caches, and logs")
	rootCmd.PersistentFlags().String("server-url", "", "origin server URL (overrides config.json)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(exportInstanceCmd)
	rootCmd.AddCommand(exportSolutionCmd)
	rootCmd.AddCommand(importSolutionCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
