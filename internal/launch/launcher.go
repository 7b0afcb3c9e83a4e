// Package launch turns a rendered run configuration into one external
// trainer process: it pins the run to a single accelerator via
// CUDA_VISIBLE_DEVICES, spawns the trainer, blocks until it exits, and
// propagates the trainer's exit status unchanged.
//
// The launcher does not retry, classify, or recover from trainer failures;
// failure handling belongs entirely to the trainer.
package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DeviceEnv is the environment variable restricting which accelerator the
// trainer may see.
const DeviceEnv = "CUDA_VISIBLE_DEVICES"

// Launcher spawns the external trainer. The zero value is not usable;
// construct with New.
type Launcher struct {
	// python is the interpreter running the trainer script.
	python string

	// script is the trainer entry point path.
	script string

	log *slog.Logger

	// stdout and stderr receive the child's output (in addition to the
	// per-run log file, when configured).
	stdout io.Writer
	stderr io.Writer
}

// Spec describes one launch.
type Spec struct {
	// Args is the fully rendered trainer argv (flags only; the script path
	// is prepended by the launcher).
	Args []string

	// GPU is the accelerator index exported as CUDA_VISIBLE_DEVICES.
	GPU int

	// LogPath, when non-empty, receives a copy of the child's combined
	// output.
	LogPath string

	// Dir, when non-empty, is the child's working directory.
	Dir string
}

// ExitError reports a trainer process that started but exited non-zero, or
// was killed by context cancellation.
type ExitError struct {
	// Code is the child's exit code. -1 when the child was killed by a
	// signal before exiting on its own.
	Code int

	// Killed is true when the run context was cancelled and the launcher
	// terminated the child.
	Killed bool
}

func (e *ExitError) Error() string {
	if e.Killed {
		return "trainer killed by cancellation"
	}
	return fmt.Sprintf("trainer exited with code %d", e.Code)
}

// New creates a Launcher for the given interpreter and trainer script.
// A nil logger discards operational output.
func New(python, script string, log *slog.Logger) *Launcher {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Launcher{
		python: python,
		script: script,
		log:    log,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// SetOutput redirects the child's stdout and stderr. Used by tests and by
// the dry-run path; defaults are the launcher's own stdout/stderr.
func (l *Launcher) SetOutput(stdout, stderr io.Writer) {
	l.stdout = stdout
	l.stderr = stderr
}

// Command returns the argv the launcher would spawn for spec, without
// spawning it. The first element is the interpreter.
func (l *Launcher) Command(spec Spec) []string {
	argv := make([]string, 0, len(spec.Args)+2)
	argv = append(argv, l.python, l.script)
	argv = append(argv, spec.Args...)
	return argv
}

// Env returns the device-visibility environment entry for spec.
func Env(spec Spec) string {
	return DeviceEnv + "=" + strconv.Itoa(spec.GPU)
}

// Launch spawns the trainer and blocks until it exits.
//
// Returns nil when the trainer exits zero. Returns *ExitError when the
// trainer starts but fails or is killed, so callers can propagate the exact
// exit status. Any other error means the trainer could not be started at
// all (missing script, interpreter not found).
func (l *Launcher) Launch(ctx context.Context, spec Spec) error {
	// Fail fast before spawning: a missing script would otherwise surface
	// as an opaque interpreter error after process startup.
	if _, err := os.Stat(l.script); err != nil {
		return fmt.Errorf("trainer script %s: %w", l.script, err)
	}
	python, err := exec.LookPath(l.python)
	if err != nil {
		return fmt.Errorf("interpreter %s: %w", l.python, err)
	}

	cmd := exec.CommandContext(ctx, python, append([]string{l.script}, spec.Args...)...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), Env(spec))
	setupProcessGroup(cmd)
	// Cap how long Wait blocks on the output pipes after the child dies, in
	// case an orphaned descendant survives the group kill.
	cmd.WaitDelay = 5 * time.Second

	stdout, stderr := l.stdout, l.stderr
	if spec.LogPath != "" {
		logFile, err := os.OpenFile(spec.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("opening run log: %w", err)
		}
		defer logFile.Close()
		stdout = io.MultiWriter(stdout, logFile)
		stderr = io.MultiWriter(stderr, logFile)
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	l.log.Debug("spawning trainer",
		"interpreter", python,
		"script", l.script,
		"gpu", spec.GPU,
		"args", len(spec.Args))
	l.log.Log(ctx, slog.LevelDebug-4, "full trainer command",
		"command", strings.Join(l.Command(spec), " "),
		"env", Env(spec))

	err = cmd.Run()
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return &ExitError{Code: exitCode(err), Killed: true}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("running trainer: %w", err)
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
