package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the local session",
	Long: `Discard the locally stored session and any in-flight linking handshake.

The server-side session is left alone; it lapses on its own schedule.`,
	RunE: runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	app.sessions.Clear()
	app.handshakes.Consume(cmd.Context())

	fmt.Println("Logged out.")
	return nil
}
