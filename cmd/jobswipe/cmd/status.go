package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/swipingforjobs/jobswipe/pkg/activity"
	"github.com/swipingforjobs/jobswipe/pkg/session"
)

var statusReconcile bool

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session state",
	Long: `Show who is logged in and how long the session has left.

With --reconcile the local verdict is checked against the server first:
a revoked session is cleared, a fresher user record is adopted, and the
token is refreshed when it is close to expiry.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusReconcile, "reconcile", false, "Verify the session with the server first")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if statusReconcile {
		if !app.reconciler().Reconcile(cmd.Context()) {
			fmt.Println("Not logged in.")
			return nil
		}
	}

	if !app.validator.IsLoggedIn() {
		fmt.Println("Not logged in.")
		return nil
	}

	user := app.sessions.User()
	fmt.Printf("Logged in as %s (%s)\n", user.Name, user.Email)
	if user.GithubUsername != "" {
		fmt.Printf("GitHub: %s\n", user.GithubUsername)
	}

	if !app.validator.IsValid() {
		fmt.Println("Session: expired")
		return nil
	}

	minutes := app.validator.TimeUntilExpiry()
	fmt.Printf("Session: valid, %d minute(s) left (until %s)\n",
		minutes, app.sessions.Expiry().Local().Format(time.RFC1123))

	if app.validator.IsExpiringSoon() {
		fmt.Printf("Warning: session expires in under %d minutes\n", session.ExpiringSoonThreshold)
	}

	if err := activity.Touch(app.cfg.Activity.MarkerPath); err != nil {
		app.logger.Warn("could not record activity", "error", err)
	}
	return nil
}
