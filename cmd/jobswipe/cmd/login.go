package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/swipingforjobs/jobswipe/pkg/activity"
)

var loginCode string

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login <name>",
	Short: "Log in and take custody of a session",
	Long: `Log in to SwipingForJobs with your name and login code.

The granted session is stored locally and reused by every other command
until it expires or is revoked.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginCode, "code", "", "Login code (required)")
	loginCmd.MarkFlagRequired("code")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	resp, err := app.client.Login(cmd.Context(), args[0], loginCode)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if resp.User == nil || resp.Session == nil {
		return fmt.Errorf("login failed: server returned an incomplete grant")
	}

	expiresAt, err := time.Parse(time.RFC3339, resp.Session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("login failed: bad expiry in grant: %w", err)
	}

	if !app.sessions.Set(resp.Session.Token, resp.User, expiresAt) {
		return fmt.Errorf("login failed: could not store the session")
	}

	if err := activity.Touch(app.cfg.Activity.MarkerPath); err != nil {
		app.logger.Warn("could not record activity", "error", err)
	}

	fmt.Printf("Logged in as %s (%s)\n", resp.User.Name, resp.User.Email)
	fmt.Printf("Session valid until %s\n", expiresAt.Local().Format(time.RFC1123))
	return nil
}
