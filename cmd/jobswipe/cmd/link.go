package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/swipingforjobs/jobswipe/pkg/activity"
	"github.com/swipingforjobs/jobswipe/pkg/github"
	"github.com/swipingforjobs/jobswipe/pkg/oauthlink"
)

// linkCmd represents the link command
var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link your GitHub account",
	Long: `Link a GitHub account to your SwipingForJobs profile.

The flow has two phases: 'link start' hands you the GitHub authorization
URL, and after GitHub redirects your browser, 'link complete' finishes
the link with the redirected URL.`,
}

var linkStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Begin the linking flow and print the authorization URL",
	RunE:  runLinkStart,
}

var linkCompleteCmd = &cobra.Command{
	Use:   "complete <redirect-url>",
	Short: "Finish the linking flow with the URL GitHub redirected to",
	Args:  cobra.ExactArgs(1),
	RunE:  runLinkComplete,
}

var linkRetryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Abandon a failed attempt so a fresh one can start",
	RunE:  runLinkRetry,
}

func init() {
	linkCmd.AddCommand(linkStartCmd, linkCompleteCmd, linkRetryCmd)
	rootCmd.AddCommand(linkCmd)
}

func (a *app) coordinator(opts ...oauthlink.Option) *oauthlink.Coordinator {
	return oauthlink.New(a.client, a.sessions, a.handshakes, a.logger, opts...)
}

func runLinkStart(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	authURL, err := app.coordinator().Begin(cmd.Context())
	if err != nil {
		return err
	}

	if err := activity.Touch(app.cfg.Activity.MarkerPath); err != nil {
		app.logger.Warn("could not record activity", "error", err)
	}

	fmt.Println("Open this URL in your browser to authorize GitHub:")
	fmt.Println()
	fmt.Println("  " + authURL)
	fmt.Println()
	fmt.Println("After authorizing, run:")
	fmt.Println()
	fmt.Println("  jobswipe link complete \"<the URL GitHub redirected you to>\"")
	return nil
}

// parseCallback extracts the provider's query parameters from the
// redirected URL. A bare query string is accepted too.
func parseCallback(raw string) (oauthlink.CallbackParams, error) {
	var query url.Values
	if u, err := url.Parse(raw); err == nil && u.RawQuery != "" {
		query = u.Query()
	} else if q, err := url.ParseQuery(strings.TrimPrefix(raw, "?")); err == nil {
		query = q
	} else {
		return oauthlink.CallbackParams{}, fmt.Errorf("could not parse the redirect URL: %s", raw)
	}

	return oauthlink.CallbackParams{
		Code:  query.Get("code"),
		State: query.Get("state"),
		Err:   query.Get("error"),
	}, nil
}

func runLinkComplete(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	params, err := parseCallback(args[0])
	if err != nil {
		return err
	}

	redirected := make(chan struct{})
	coordinator := app.coordinator(
		oauthlink.WithTransitionHook(func(state oauthlink.State) {
			switch state {
			case oauthlink.StateProcessing:
				fmt.Println("Processing GitHub authorization...")
			case oauthlink.StateLinking:
				fmt.Println("Linking your GitHub account...")
			}
		}),
		oauthlink.WithRedirect(func() { close(redirected) }),
	)

	if coordinator.Complete(cmd.Context(), params) == oauthlink.StateError {
		return fmt.Errorf("linking failed: %s (run 'jobswipe link retry' to start over)", coordinator.Failure())
	}

	result := coordinator.Result()
	if result.AlreadyLinked {
		fmt.Println("This GitHub account is already linked.")
	} else {
		fmt.Printf("GitHub account %s linked.\n", result.GithubUsername)
		printGithubSummary(cmd.Context(), app, result.AccessToken)
	}

	if err := activity.Touch(app.cfg.Activity.MarkerPath); err != nil {
		app.logger.Warn("could not record activity", "error", err)
	}

	// The success message stays visible for a moment before the hand-back
	select {
	case <-redirected:
	case <-time.After(2 * oauthlink.RedirectDelay):
	}
	fmt.Println("Returning to your profile.")
	return nil
}

// printGithubSummary shows a short portfolio digest right after linking.
// Failures only log; the link itself already succeeded.
func printGithubSummary(ctx context.Context, app *app, accessToken string) {
	if accessToken == "" {
		return
	}

	client := github.NewClient(ctx, accessToken, app.logger)

	profile, err := client.User(ctx)
	if err != nil {
		app.logger.Warn("could not fetch GitHub profile", "error", err)
		return
	}
	repos, err := client.Repositories(ctx, 1, 100)
	if err != nil {
		app.logger.Warn("could not fetch GitHub repositories", "error", err)
		return
	}

	summary := github.Summarize(repos)
	fmt.Printf("GitHub profile: %s (%d followers)\n", profile.Login, profile.Followers)
	fmt.Printf("Repositories: %d (excluding forks), %d stars total\n", summary.RepoCount, summary.TotalStars)
	if len(summary.TopLanguages) > 0 {
		fmt.Printf("Top languages: %s\n", strings.Join(summary.TopLanguages, ", "))
	}
}

func runLinkRetry(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	app.coordinator().Retry(cmd.Context())
	fmt.Println("Linking attempt cleared. Run 'jobswipe link start' to try again.")
	return nil
}
