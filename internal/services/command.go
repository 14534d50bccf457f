package services

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner executes an external tool and returns an error describing
// any failure. Implementations must stop the process when ctx is done.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// RunCommand executes name with args, folding combined output into the error.
// A done context is reported as the context error so callers can tell
// cancellation apart from tool failures.
func RunCommand(ctx context.Context, name string, args ...string) error {
	return RunCommandEnv(ctx, nil, name, args...)
}

// RunCommandEnv is RunCommand with extra KEY=VALUE pairs appended to the
// inherited environment.
func RunCommandEnv(ctx context.Context, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if len(env) > 0 {
		cmd.Env = append(cmd.Environ(), env...)
	}
	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%s: %w: %s", name, err, tail(strings.TrimSpace(string(output)), 2048))
}

func tail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return "..." + s[len(s)-limit:]
}
