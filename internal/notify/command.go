package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/gido-dev/gido/internal/config"
	"github.com/gido-dev/gido/internal/errors"
	"github.com/gido-dev/gido/internal/logging"
	"github.com/gido-dev/gido/internal/system"
)

// CommandNotifier runs an operator-supplied command for each notification.
// The message is passed as GIDO_* environment variables and the body is
// also written to stdin.
type CommandNotifier struct {
	argv    []string
	exec    system.CommandExecutor
	timeout time.Duration
}

// NewCommandNotifier parses line with shell quoting rules. No shell is
// involved when the command runs.
func NewCommandNotifier(line string, exec system.CommandExecutor, timeout time.Duration) (*CommandNotifier, error) {
	argv, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command %q: %w", line, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("command is empty")
	}
	if exec == nil {
		exec = system.DefaultExecutor()
	}
	if timeout <= 0 {
		timeout = config.DefaultHookTimeout
	}
	return &CommandNotifier{argv: argv, exec: exec, timeout: timeout}, nil
}

func (n *CommandNotifier) Name() string { return "command" }

// Command returns the command line, re-quoted.
func (n *CommandNotifier) Command() string {
	return shellquote.Join(n.argv...)
}

func (n *CommandNotifier) Notify(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	cmd := system.Command{
		Name: n.argv[0],
		Args: n.argv[1:],
		Env: []string{
			"GIDO_TARGET=" + msg.Target,
			"GIDO_SUBJECT=" + msg.Subject,
			"GIDO_BODY=" + msg.Body,
			"GIDO_URL=" + msg.URL,
		},
		Stdin: msg.Body,
	}

	logging.Debug("running notification command", "command", n.Command())

	out, err := n.exec.Run(ctx, cmd)
	if err != nil {
		if output := strings.TrimSpace(string(out)); output != "" {
			err = fmt.Errorf("%w: %s", err, output)
		}
		return errors.NotificationError(fmt.Sprintf("notification command %s failed", n.argv[0]), false, err)
	}
	return nil
}
