package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fluttercommunity/android-id/internal/shell"
)

var ErrIDReadFailed = errors.New("failed to read android id")

const (
	settingsCommand   = "settings"
	settingsNamespace = "secure"
	androidIDKey      = "android_id"

	// printed by `settings get` for an unset key
	settingsNull = "null"
)

// IDReader provides the device identifier.
type IDReader interface {
	// GetID returns the Android ID. An empty string means the device
	// has no identifier set; failures are returned as errors wrapping ErrIDReadFailed.
	GetID(ctx context.Context) (string, error)
}

// SettingsReader reads the Android ID from secure settings.
// Every call goes to the settings provider; nothing is cached.
type SettingsReader struct {
	exec      shell.Executor
	namespace string
	key       string
}

// NewSettingsReader creates a SettingsReader for secure/android_id.
func NewSettingsReader(exec shell.Executor) *SettingsReader {
	return &SettingsReader{
		exec:      exec,
		namespace: settingsNamespace,
		key:       androidIDKey,
	}
}

func (r *SettingsReader) GetID(ctx context.Context) (string, error) {
	out, err := r.exec.Output(ctx, settingsCommand, "get", r.namespace, r.key)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrIDReadFailed, errorMessage(err))
	}

	id := strings.TrimSpace(string(out))
	if id == settingsNull {
		return "", nil
	}
	return id, nil
}

// errorMessage extracts the OS-level message, preferring the command's stderr.
func errorMessage(err error) string {
	var cmdErr *shell.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Message()
	}
	return err.Error()
}
