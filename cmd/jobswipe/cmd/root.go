package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/swipingforjobs/jobswipe/pkg/config"
)

var (
	cfgFile string
	version = "dev" // Set by build
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jobswipe",
	Short: "JobSwipe - session agent for SwipingForJobs",
	Long: `JobSwipe keeps custody of your SwipingForJobs session on this machine.

It stores the session credential locally, keeps it reconciled with the
backend, warns before expiry, and runs the GitHub account-linking flow.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// A local .env is optional; referenced variables expand in the config file
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultPath(), "Path to configuration file")
}
