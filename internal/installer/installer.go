// Package installer drives the external package manager that installs a
// package and lists what ended up installed.
package installer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"go.trai.ch/zerr"
)

// DefaultBinary is the package manager invoked when none is configured.
const DefaultBinary = "uv"

// Runner executes a command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner implements Runner using os/exec.
type ExecRunner struct {
	Logger *slog.Logger
}

// Run executes name with args. Stderr is forwarded to the logger line by line.
// A non-zero exit is reported with the command and exit code attached.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // configured package manager

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &logWriter{logger: logger, command: name}

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		wrapped := zerr.With(zerr.Wrap(err, "command failed"), "command", strings.Join(append([]string{name}, args...), " "))
		return stdout.Bytes(), zerr.With(wrapped, "exit_code", exitCode)
	}
	return stdout.Bytes(), nil
}

type logWriter struct {
	logger  *slog.Logger
	command string
}

func (w *logWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimSuffix(string(p), "\n"), "\n") {
		if line != "" {
			w.logger.Debug(line, "command", w.command)
		}
	}
	return len(p), nil
}

// Installer wraps the "pip" interface of a package manager such as uv.
type Installer struct {
	binary string
	runner Runner
	logger *slog.Logger
}

// New returns an Installer for binary. A nil runner uses ExecRunner.
func New(binary string, runner Runner, logger *slog.Logger) *Installer {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &Installer{binary: binary, runner: runner, logger: logger}
}

// Install installs pkg into the active environment.
func (i *Installer) Install(ctx context.Context, pkg string) error {
	if pkg == "" {
		return zerr.New("package name is required")
	}
	i.logger.Info("installing package", "package", pkg, "installer", i.binary)
	if _, err := i.runner.Run(ctx, i.binary, "pip", "install", pkg); err != nil {
		return zerr.With(zerr.Wrap(err, "install failed"), "package", pkg)
	}
	return nil
}

// Freeze returns the name==version listing of installed packages.
func (i *Installer) Freeze(ctx context.Context) (string, error) {
	i.logger.Info("listing installed packages", "installer", i.binary)
	out, err := i.runner.Run(ctx, i.binary, "pip", "freeze")
	if err != nil {
		return "", zerr.Wrap(err, "freeze failed")
	}
	return string(out), nil
}
