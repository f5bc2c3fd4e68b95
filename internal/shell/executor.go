package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCommandNotFound = errors.New("command not found")
	ErrEmptyCommand    = errors.New("empty command")
	// ErrTransportUnavailable means the target could not be reached at all,
	// for example because the adb binary is missing on the host.
	ErrTransportUnavailable = errors.New("device transport unavailable")
)

// Executor runs commands and probes files on the target device.
// The target is either the local machine or a device reached over adb.
type Executor interface {
	// Output runs name with args and returns its stdout.
	// A non-zero exit is reported as a *CommandError.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Exists reports whether path exists on the target.
	Exists(ctx context.Context, path string) (bool, error)

	// KernelArch returns the kernel machine name (x86_64, aarch64, i686...).
	KernelArch(ctx context.Context) (string, error)
}

// CommandError describes a command that ran but failed.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.ExitCode != 0 {
		return fmt.Sprintf("%s: exit status %d: %s", e.Command, e.ExitCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Command, msg)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Message returns the most useful human readable part of the failure.
func (e *CommandError) Message() string {
	if msg := strings.TrimSpace(e.Stderr); msg != "" {
		return msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Command
}

func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
