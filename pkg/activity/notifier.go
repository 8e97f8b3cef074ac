package activity

import (
	"fmt"
	"os"

	"github.com/swipingforjobs/jobswipe/pkg/logging"
)

// LogoutReason distinguishes the user-visible explanation for a forced
// logout.
type LogoutReason string

const (
	// ReasonExpired means the session lapsed or failed local validation.
	ReasonExpired LogoutReason = "expired"
	// ReasonInactivity means the inactivity countdown ran out.
	ReasonInactivity LogoutReason = "inactivity"
	// ReasonEnded means the server ended the session.
	ReasonEnded LogoutReason = "session ended"
)

// Notifier surfaces session events to the user. Warnings are non-blocking;
// a forced logout always carries its reason.
type Notifier interface {
	Warn(message string)
	ForceLogout(reason LogoutReason, message string)
}

// ConsoleNotifier writes notices to stderr, the agent's user surface.
type ConsoleNotifier struct {
	logger logging.Logger
}

// NewConsoleNotifier creates a ConsoleNotifier.
func NewConsoleNotifier(logger logging.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{logger: logger.WithComponent("notify")}
}

// Warn prints a non-blocking warning.
func (n *ConsoleNotifier) Warn(message string) {
	fmt.Fprintf(os.Stderr, "! %s\n", message)
}

// ForceLogout prints the logout notice with its reason.
func (n *ConsoleNotifier) ForceLogout(reason LogoutReason, message string) {
	n.logger.Info("forced logout", "reason", string(reason))
	fmt.Fprintf(os.Stderr, "✗ Logged out (%s): %s\n", reason, message)
}
