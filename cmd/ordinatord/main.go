// Command ordinatord runs the scheduler daemon and provides a CLI client
// for the same SystemMessages surface it serves over HTTP.
// Its subcommand/flag structure mirrors cmd/warren/main.go's cobra root
// command.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oceanridge/ordinator/pkg/log"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ordinatord",
	Short: "ordinatord runs the offshore maintenance scheduler",
	Long: `ordinatord coordinates the strategic, tactical, supervisor and
operational optimization tiers for one or more offshore assets, publishing
a shared solution snapshot and serving it over HTTP.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"ordinatord version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(requestCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
