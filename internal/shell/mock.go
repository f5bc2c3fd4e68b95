package shell

import (
	"context"
	"strings"
	"sync"
)

// MockExecutor implements Executor for testing.
// Outputs and errors are keyed by the full command line, e.g. "settings get secure android_id".
type MockExecutor struct {
	Outputs map[string]string
	Errors  map[string]error
	Files   map[string]bool

	ExistsErr error
	Arch      string
	KernelErr error

	mu    sync.Mutex
	Calls []string
}

// NewMockExecutor creates a MockExecutor describing an arm64 host with no files.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		Outputs: make(map[string]string),
		Errors:  make(map[string]error),
		Files:   make(map[string]bool),
		Arch:    "aarch64",
	}
}

func (m *MockExecutor) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	line := strings.TrimSpace(commandLine(name, args))

	m.mu.Lock()
	m.Calls = append(m.Calls, line)
	m.mu.Unlock()

	if err, ok := m.Errors[line]; ok {
		return nil, err
	}
	out, ok := m.Outputs[line]
	if !ok {
		return nil, &CommandError{Command: line, ExitCode: exitNotFound, Err: ErrCommandNotFound}
	}
	return []byte(out), nil
}

func (m *MockExecutor) Exists(_ context.Context, path string) (bool, error) {
	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}
	return m.Files[path], nil
}

func (m *MockExecutor) KernelArch(_ context.Context) (string, error) {
	if m.KernelErr != nil {
		return "", m.KernelErr
	}
	return m.Arch, nil
}

// CallCount returns how many times the given command line was run.
func (m *MockExecutor) CallCount(line string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == line {
			n++
		}
	}
	return n
}
