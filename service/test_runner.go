package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/thecodereport/tcdr/domain"
	"github.com/thecodereport/tcdr/internal/config"
)

// CommandTestRunner runs the configured test command as a child process
type CommandTestRunner struct {
	command []string
	workDir string
	timeout time.Duration
	now     func() time.Time
}

// NewTestRunner creates a runner from configuration
func NewTestRunner(cfg *config.RunnerConfig) *CommandTestRunner {
	return &CommandTestRunner{
		command: cfg.Command,
		workDir: cfg.WorkDir,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		now:     time.Now,
	}
}

// CommandLine returns the command as a single display string
func (r *CommandTestRunner) CommandLine() string {
	return strings.Join(r.command, " ")
}

// Run executes the command and reports its outcome. A zero exit code is a
// success; everything else, including a timeout, is a failure.
func (r *CommandTestRunner) Run(ctx context.Context) *domain.RunAllResponse {
	if len(r.command) == 0 {
		return &domain.RunAllResponse{Error: "no test command configured"}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	cmd.Dir = r.workDir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second

	start := r.now()
	err := cmd.Run()
	duration := r.now().Sub(start).Seconds()

	outText, errText := stdout.String(), stderr.String()
	resp := &domain.RunAllResponse{
		DurationSeconds: &duration,
		Stdout:          &outText,
		Stderr:          &errText,
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		resp.Timeout = true
		resp.Error = fmt.Sprintf("test command timed out after %s", r.timeout)
	case errors.Is(ctx.Err(), context.Canceled):
		resp.Error = "test run cancelled"
	case err == nil:
		code := 0
		resp.OK = true
		resp.ExitCode = &code
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			resp.ExitCode = &code
			resp.Error = fmt.Sprintf("%s failed (exit code %d).", r.shortName(), code)
		} else {
			// The process never started, so there is no duration or output to report
			return &domain.RunAllResponse{Error: fmt.Sprintf("failed to start %s: %v", r.command[0], err)}
		}
	}
	return resp
}

// shortName is the executable plus its first argument, e.g. "dotnet test"
func (r *CommandTestRunner) shortName() string {
	if len(r.command) < 2 {
		return r.command[0]
	}
	return r.command[0] + " " + r.command[1]
}
