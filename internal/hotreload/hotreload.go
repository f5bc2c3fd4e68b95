package hotreload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fluttercommunity/android-id/internal/logger"
	"github.com/fluttercommunity/android-id/pkg/config"
	"github.com/rs/zerolog"
)

// IntervalResetter is a scheduler whose interval can change while running.
type IntervalResetter interface {
	ResetIntervalFromExpr(intervalExpr string) error
}

type HotReloadManager struct {
	cm              *config.ConfigManager
	log             *zerolog.Logger
	probeScheduler  IntervalResetter
	changeCallbacks map[config.ConfigChangeType][]config.ConfigChangeCallback
	callbackMu      sync.RWMutex
}

func NewHotReloadManager(cm *config.ConfigManager, log *zerolog.Logger, probeScheduler IntervalResetter) *HotReloadManager {
	manager := &HotReloadManager{
		cm:              cm,
		log:             log,
		probeScheduler:  probeScheduler,
		changeCallbacks: make(map[config.ConfigChangeType][]config.ConfigChangeCallback),
	}

	manager.registerCallbacks()

	return manager
}

func (hrm *HotReloadManager) registerCallbacks() {
	hrm.RegisterChangeCallback(config.ProbeIntervalChanged, hrm.handleProbeChange)
	hrm.RegisterChangeCallback(config.LogLevelChanged, hrm.handleLogLevelChange)
	hrm.RegisterChangeCallback(config.DeviceChanged, hrm.handleRestartRequired)
	hrm.RegisterChangeCallback(config.ServerChanged, hrm.handleRestartRequired)
}

func (hrm *HotReloadManager) notifyChangeCallbacks(change config.ConfigChange) []error {
	hrm.callbackMu.RLock()
	defer hrm.callbackMu.RUnlock()

	callbacks, exists := hrm.changeCallbacks[change.Type]
	if !exists {
		return nil
	}

	var errs []error
	for _, callback := range callbacks {
		if err := callback(change); err != nil {
			errs = append(errs, err)
		}
		hrm.log.Info().Str("change_type", string(change.Type)).Msg("Configuration change processed")
	}

	return errs
}

// RegisterChangeCallback adds a callback run for every change of changeType.
func (hrm *HotReloadManager) RegisterChangeCallback(changeType config.ConfigChangeType, callback config.ConfigChangeCallback) {
	hrm.callbackMu.Lock()
	defer hrm.callbackMu.Unlock()

	hrm.changeCallbacks[changeType] = append(hrm.changeCallbacks[changeType], callback)
}

func (hrm *HotReloadManager) handleProbeChange(change config.ConfigChange) error {
	hrm.log.Info().
		Str("type", string(change.Type)).
		Interface("old_value", change.OldValue).
		Interface("new_value", change.NewValue).
		Msg("Handling probe interval change")

	if hrm.probeScheduler == nil {
		return nil
	}

	if hrm.cm.IsProbeDisabled() {
		hrm.log.Warn().Msg("Disabling the probe requires a restart")
	}

	if err := hrm.probeScheduler.ResetIntervalFromExpr(hrm.cm.GetProbeInterval()); err != nil {
		return fmt.Errorf("unable to reset probe scheduler: %w", err)
	}
	return nil
}

func (hrm *HotReloadManager) handleLogLevelChange(change config.ConfigChange) error {
	hrm.log.Info().
		Str("type", string(change.Type)).
		Interface("old_value", change.OldValue).
		Interface("new_value", change.NewValue).
		Msg("Handling log level change")

	newLogLevel, ok := change.NewValue.(string)
	if !ok {
		return fmt.Errorf("invalid log level type: %T", change.NewValue)
	}

	level := logger.ParseLevel(newLogLevel)
	zerolog.SetGlobalLevel(level)
	hrm.log.Info().Str("new_level", level.String()).Msg("Log level updated successfully")

	return nil
}

func (hrm *HotReloadManager) handleRestartRequired(change config.ConfigChange) error {
	hrm.log.Warn().
		Str("type", string(change.Type)).
		Interface("old_value", change.OldValue).
		Interface("new_value", change.NewValue).
		Msg("Configuration change takes effect after a restart")
	return nil
}

func (hrm *HotReloadManager) ProcessConfigChanges(changes []config.ConfigChange) error {
	hrm.log.Info().Int("change_count", len(changes)).Msg("Processing configuration changes")

	var errs []error

	for _, change := range changes {
		hrm.log.Debug().
			Str("change_type", string(change.Type)).
			Interface("old_value", change.OldValue).
			Interface("new_value", change.NewValue).
			Msg("Processing configuration change")

		errs = append(errs, hrm.notifyChangeCallbacks(change)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors occurred while processing configuration changes: %w", errors.Join(errs...))
	}

	hrm.log.Info().Msg("All configuration changes processed successfully")
	return nil
}

// Run reloads the config for every event until ctx ends. Reload failures are
// logged and the previous config stays in effect.
func (hrm *HotReloadManager) Run(ctx context.Context, events <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
			if err := hrm.Reload(); err != nil {
				hrm.log.Error().Err(err).Msg("Failed to apply config changes")
			}
		}
	}
}

// Reload re-reads the config file and applies the resulting changes.
func (hrm *HotReloadManager) Reload() error {
	changes, warnings, err := hrm.cm.ReloadConfig()
	for _, warning := range warnings {
		hrm.log.Warn().Msg(warning)
	}
	if err != nil {
		return err
	}
	if len(changes) == 0 {
		hrm.log.Debug().Msg("Config file changed without effective changes")
		return nil
	}
	return hrm.ProcessConfigChanges(changes)
}
