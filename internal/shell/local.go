package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/shirou/gopsutil/v4/host"
)

// LocalExecutor runs commands on the machine the process lives on.
// On an Android device this is the device itself.
type LocalExecutor struct {
	timeout  time.Duration
	statFn   func(string) (os.FileInfo, error)
	archFn   func(context.Context) (string, error)
	lookPath func(string) (string, error)
}

// NewLocalExecutor creates a LocalExecutor. A zero timeout disables the per-command deadline.
func NewLocalExecutor(timeout time.Duration) *LocalExecutor {
	return &LocalExecutor{
		timeout:  timeout,
		statFn:   os.Stat,
		archFn:   func(context.Context) (string, error) { return host.KernelArch() },
		lookPath: exec.LookPath,
	}
}

func (l *LocalExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if name == "" {
		return nil, ErrEmptyCommand
	}
	if _, err := l.lookPath(name); err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrCommandNotFound)
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		cmdErr := &CommandError{
			Command: commandLine(name, args),
			Stderr:  stderr.String(),
			Err:     err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		if ctx.Err() != nil {
			cmdErr.Err = ctx.Err()
		}
		return nil, cmdErr
	}

	return stdout.Bytes(), nil
}

func (l *LocalExecutor) Exists(_ context.Context, path string) (bool, error) {
	if _, err := l.statFn(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (l *LocalExecutor) KernelArch(ctx context.Context) (string, error) {
	arch, err := l.archFn(ctx)
	if err != nil {
		return "", fmt.Errorf("read kernel arch: %w", err)
	}
	return arch, nil
}
