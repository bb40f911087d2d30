// Package notify runs the user's shell hook when a Pomodoro phase begins.
package notify

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/runoshun/taskflow/internal/domain"
)

// DefaultTimeout bounds a single hook run.
const DefaultTimeout = 10 * time.Second

// Command runs a shell command with the phase in its environment.
// Fields are ordered to minimize memory padding.
type Command struct {
	logger  domain.Logger
	shell   string
	command string
	timeout time.Duration
}

// New creates a Command. An empty command makes Run a no-op.
func New(command string, logger domain.Logger) *Command {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &Command{
		logger:  logger,
		shell:   "sh",
		command: strings.TrimSpace(command),
		timeout: DefaultTimeout,
	}
}

// Enabled reports whether a command is configured.
func (c *Command) Enabled() bool {
	return c.command != ""
}

// Run executes the command for taskID entering phase and returns its combined output.
// TASKFLOW_TASK_ID and TASKFLOW_PHASE are added to the environment.
func (c *Command) Run(ctx context.Context, taskID int, phase string) ([]byte, error) {
	if !c.Enabled() {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// #nosec G204 - the command comes from the user's own config file
	cmd := exec.CommandContext(ctx, c.shell, "-c", c.command)
	cmd.WaitDelay = time.Second
	cmd.Env = append(os.Environ(),
		"TASKFLOW_TASK_ID="+strconv.Itoa(taskID),
		"TASKFLOW_PHASE="+phase,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		c.logger.Warn(taskID, "notify", fmt.Sprintf("%s hook failed: %v: %s", phase, err, strings.TrimSpace(string(out))))
		return out, fmt.Errorf("notify hook: %w", err)
	}
	c.logger.Debug(taskID, "notify", fmt.Sprintf("%s hook ran", phase))
	return out, nil
}

