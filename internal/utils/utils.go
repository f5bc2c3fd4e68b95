package utils

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/fluttercommunity/android-id/internal/device"
	"github.com/fluttercommunity/android-id/internal/emulator"
	"github.com/fluttercommunity/android-id/internal/identity"
	"github.com/fluttercommunity/android-id/internal/logger"
	"github.com/fluttercommunity/android-id/internal/shell"
	"github.com/fluttercommunity/android-id/pkg/config"
	"github.com/rs/zerolog"
)

// SetupContext returns a context cancelled on SIGTERM or SIGINT.
func SetupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
}

// Components are the device-facing pieces built from one config.
type Components struct {
	Executor shell.Executor
	Source   device.Source
	IDs      identity.IDReader
	Detector *emulator.Detector
}

// NewExecutor runs device commands locally or through adb, per config.
func NewExecutor(cm *config.ConfigManager) shell.Executor {
	timeout := cm.GetCommandTimeout()
	if cm.GetDeviceMode() == config.ModeADB {
		return shell.NewADBExecutor(cm.GetADBPath(), cm.GetSerial(), timeout)
	}
	return shell.NewLocalExecutor(timeout)
}

// BuildComponents wires the ID reader and emulator detector onto exec.
func BuildComponents(cm *config.ConfigManager, exec shell.Executor) *Components {
	source := device.NewGetpropSource(exec)
	return &Components{
		Executor: exec,
		Source:   source,
		IDs:      identity.NewSettingsReader(exec),
		Detector: emulator.NewDetector(source, exec, cm.GetFileRoot()),
	}
}

// InitAuditLogger enables audit events when an audit log path is configured.
// The returned closer releases the audit file and must be called on shutdown;
// it is a no-op when auditing is off.
func InitAuditLogger(cm *config.ConfigManager, log *zerolog.Logger) (io.Closer, error) {
	path := cm.GetAuditLogPath()
	if path == "" {
		return auditCloser{}, nil
	}
	w, err := logger.NewFileAuditWriter(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log %s: %w", path, err)
	}
	if err := logger.InitAuditLogger(w); err != nil {
		log.Warn().Err(err).Msg("Failed to close previous audit log")
	}
	log.Info().Str("path", path).Msg("Audit logging enabled")
	return auditCloser{}, nil
}

type auditCloser struct{}

func (auditCloser) Close() error {
	return logger.CloseAuditLogger()
}
