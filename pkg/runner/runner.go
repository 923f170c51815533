// Package runner executes external commands and normalizes every outcome,
// including launch failures and timeouts, into a uniform Result.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aiyflowers/wslusb/pkg/logger"
)

const (
	// DefaultTimeout bounds short commands (list, attach, detach).
	DefaultTimeout = 15 * time.Second
	// ElevatedTimeout bounds elevated invocations: the wait covers the
	// user's UAC interaction, not just the command itself.
	ElevatedTimeout = 30 * time.Second
	// InstallTimeout bounds package-manager installs.
	InstallTimeout = 2 * time.Minute

	replacementChar = "�"
)

// Options controls a single invocation.
type Options struct {
	// Elevated re-invokes the command through PowerShell with a UAC prompt
	// and waits for it to finish. The elevation window stays hidden.
	Elevated bool
	// Timeout bounds the invocation. Zero means DefaultTimeout.
	Timeout time.Duration
	// NotFoundHint is appended to the failure message when the executable
	// is not on PATH, e.g. pointing at the tool's install source.
	NotFoundHint string
}

// Result is the normalized outcome of one invocation. Failures are reported
// through Succeeded and Stderr rather than returned as errors.
type Result struct {
	Succeeded bool
	Stdout    string
	Stderr    string
}

// CommandRunner abstracts command execution so callers can be tested with a
// stub runner.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string, opts Options) Result
}

// ExecRunner runs commands via os/exec, synchronously and one at a time.
type ExecRunner struct {
	powershell string
	log        zerolog.Logger
}

var _ CommandRunner = (*ExecRunner)(nil)

// NewExecRunner returns a runner using the given PowerShell binary for
// elevated invocations. An empty path defaults to "powershell".
func NewExecRunner(powershell string) *ExecRunner {
	if powershell == "" {
		powershell = "powershell"
	}

	return &ExecRunner{
		powershell: powershell,
		log:        logger.WithComponent("runner"),
	}
}

// Run executes name with args and waits for completion within the timeout.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, opts Options) Result {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
		if opts.Elevated {
			timeout = ElevatedTimeout
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd

	if opts.Elevated {
		// Start-Process -Verb RunAs is the only way to request elevation
		// for a single command without restarting the whole process.
		ps := fmt.Sprintf(
			`Start-Process -FilePath "%s" -ArgumentList "%s" -Verb RunAs -Wait -WindowStyle Hidden`,
			name, strings.Join(args, " "))
		cmd = exec.CommandContext(ctx, r.powershell, "-Command", ps)
	} else {
		cmd = exec.CommandContext(ctx, name, args...)
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.Debug().Str("command", name).Strs("args", args).Bool("elevated", opts.Elevated).Msg("running command")

	err := cmd.Run()

	res := Result{
		Stdout: decode(stdout.Bytes()),
		Stderr: decode(stderr.Bytes()),
	}

	if err == nil {
		res.Succeeded = true
		return res
	}

	res.Stderr = failureMessage(ctx, err, name, timeout, res.Stderr, opts.NotFoundHint)

	r.log.Debug().Str("command", name).Str("stderr", res.Stderr).Msg("command failed")

	return res
}

// decode tolerates undecodable bytes by substitution so a misbehaving tool
// can never make the runner itself fail.
func decode(b []byte) string {
	return strings.ToValidUTF8(string(b), replacementChar)
}

// failureMessage maps every failure mode to a human-readable message. The
// exit-code path keeps whatever the process wrote on stderr.
func failureMessage(ctx context.Context, err error, name string, timeout time.Duration, stderr, hint string) string {
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Sprintf("%s timed out after %s", name, timeout)
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		msg := fmt.Sprintf("%s was not found on PATH", name)
		if hint != "" {
			msg += "; " + hint
		}

		return msg
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if strings.TrimSpace(stderr) != "" {
			return stderr
		}

		return err.Error()
	}

	return fmt.Sprintf("failed to run %s: %s", name, err)
}
