package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// exit status sh uses for a missing command
const exitNotFound = 127

// ADBExecutor runs commands on an attached device through `adb shell`.
type ADBExecutor struct {
	adbPath string
	serial  string
	local   *LocalExecutor
}

// NewADBExecutor creates an ADBExecutor. An empty serial lets adb pick the only attached device.
func NewADBExecutor(adbPath, serial string, timeout time.Duration) *ADBExecutor {
	if adbPath == "" {
		adbPath = "adb"
	}
	return &ADBExecutor{
		adbPath: adbPath,
		serial:  serial,
		local:   NewLocalExecutor(timeout),
	}
}

func (a *ADBExecutor) shellArgs(remote ...string) []string {
	args := make([]string, 0, len(remote)+3)
	if a.serial != "" {
		args = append(args, "-s", a.serial)
	}
	args = append(args, "shell")
	return append(args, remote...)
}

func (a *ADBExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if name == "" {
		return nil, ErrEmptyCommand
	}
	remote := append([]string{name}, args...)
	out, err := a.run(ctx, remote...)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.ExitCode == exitNotFound {
			return nil, fmt.Errorf("%s: %w", name, ErrCommandNotFound)
		}
		return nil, err
	}
	return out, nil
}

func (a *ADBExecutor) Exists(ctx context.Context, path string) (bool, error) {
	script := fmt.Sprintf("[ -e %s ] && echo 1 || echo 0", quote(path))
	out, err := a.run(ctx, script)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(string(out)) == "1", nil
}

func (a *ADBExecutor) KernelArch(ctx context.Context) (string, error) {
	out, err := a.Output(ctx, "uname", "-m")
	if err != nil {
		return "", fmt.Errorf("read kernel arch: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// run executes remote on the device. A missing local adb is reported as
// ErrTransportUnavailable so it is never mistaken for a missing remote command.
func (a *ADBExecutor) run(ctx context.Context, remote ...string) ([]byte, error) {
	out, err := a.local.Output(ctx, a.adbPath, a.shellArgs(remote...)...)
	if errors.Is(err, ErrCommandNotFound) {
		return nil, fmt.Errorf("adb %s: %w", a.adbPath, ErrTransportUnavailable)
	}
	return out, err
}

// quote wraps s in single quotes for the remote shell.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
