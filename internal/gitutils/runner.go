package gitutils

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultCommandTimeout bounds git invocations whose context has no deadline.
const DefaultCommandTimeout = 5 * time.Minute

// GitCommandError is a failed git invocation.
type GitCommandError struct {
	Args   []string
	Stdout string
	Stderr string
	Err    error
}

func (e *GitCommandError) Error() string {
	msg := fmt.Sprintf("git %s failed", strings.Join(e.Args, " "))
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *GitCommandError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit status of git, or -1 when git did not run.
func (e *GitCommandError) ExitCode() int {
	if ee, ok := e.Err.(*exec.ExitError); ok {
		return ee.ExitCode()
	}

	return -1
}

// CommandRunner executes git in a working directory.
type CommandRunner struct {
	workingDir string
}

func NewCommandRunner(workingDir string) *CommandRunner {
	return &CommandRunner{workingDir: workingDir}
}

// Run executes git and returns its trimmed output.
func (r *CommandRunner) Run(ctx context.Context, args ...string) (string, error) {
	out, err := r.RunRaw(ctx, args...)
	return strings.TrimSpace(out), err
}

// RunRaw executes git and returns its output as is.
func (r *CommandRunner) RunRaw(ctx context.Context, args ...string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCommandTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.workingDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug().Strs("args", args).Str("dir", r.workingDir).Msg("running git")
	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return "", &GitCommandError{
			Args:   args,
			Stdout: stdout.String(),
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return stdout.String(), nil
}
