package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swipingforjobs/jobswipe/pkg/activity"
	"github.com/swipingforjobs/jobswipe/pkg/api"
)

var profileUpdate api.ProfileUpdateRequest

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update your profile",
	Long: `Show the locally cached profile, or update it on the server.

Any update flag pushes the change and adopts the server's returned
record into the local session.`,
	RunE: runProfile,
}

func init() {
	profileCmd.Flags().StringVar(&profileUpdate.Name, "name", "", "Update your display name")
	profileCmd.Flags().StringVar(&profileUpdate.LinkedinURL, "linkedin", "", "Update your LinkedIn URL")
	profileCmd.Flags().StringVar(&profileUpdate.Skills, "skills", "", "Update your skills (comma-separated)")
	profileCmd.Flags().StringVar(&profileUpdate.Preferences, "preferences", "", "Update your job preferences")
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	if !app.validator.IsLoggedIn() {
		return fmt.Errorf("not logged in; run 'jobswipe login' first")
	}

	user := app.sessions.User()

	if profileUpdate != (api.ProfileUpdateRequest{}) {
		updated, err := app.client.UpdateProfile(cmd.Context(), app.sessions.Token(), &profileUpdate)
		if err != nil {
			return fmt.Errorf("profile update failed: %w", err)
		}
		if !app.sessions.UpdateUser(updated) {
			return fmt.Errorf("profile update failed: server returned an invalid record")
		}
		user = updated
		fmt.Println("Profile updated.")
	}

	fmt.Printf("Name:  %s\n", user.Name)
	fmt.Printf("Email: %s\n", user.Email)
	if user.LinkedinURL != "" {
		fmt.Printf("LinkedIn: %s\n", user.LinkedinURL)
	}
	if user.GithubUsername != "" {
		fmt.Printf("GitHub: %s\n", user.GithubUsername)
	}
	if user.Skills != "" {
		fmt.Printf("Skills: %s\n", user.Skills)
	}
	if user.Preferences != "" {
		fmt.Printf("Preferences: %s\n", user.Preferences)
	}
	if user.ResumeFilename != "" {
		fmt.Printf("Resume: %s\n", user.ResumeFilename)
	}

	if err := activity.Touch(app.cfg.Activity.MarkerPath); err != nil {
		app.logger.Warn("could not record activity", "error", err)
	}
	return nil
}
