package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swipingforjobs/jobswipe/pkg/activity"
)

// activityCmd represents the activity command
var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Record a user interaction",
	Long: `Touch the interaction marker so a running 'jobswipe watch' resets its
inactivity countdown. Useful from editor hooks or shell prompts.`,
	RunE: runActivity,
}

func init() {
	rootCmd.AddCommand(activityCmd)
}

func runActivity(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := activity.Touch(cfg.Activity.MarkerPath); err != nil {
		return err
	}
	fmt.Println("Interaction recorded.")
	return nil
}
