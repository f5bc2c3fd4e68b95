package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

type ConfigChangeType string

const (
	LogLevelChanged      ConfigChangeType = "log_level"
	ProbeIntervalChanged ConfigChangeType = "probe_interval"
	DeviceChanged        ConfigChangeType = "device"
	ServerChanged        ConfigChangeType = "server"
)

type ConfigChange struct {
	Type     ConfigChangeType
	OldValue interface{}
	NewValue interface{}
}

type ConfigChangeCallback func(change ConfigChange) error

// Override is applied on top of every config read from disk, so command-line
// flags keep precedence across reloads.
type Override func(*Config)

type ConfigManager struct {
	config     *Config
	configPath string
	overrides  []Override
	mu         sync.RWMutex
}

func NewConfigManager(configPath string, config *Config, overrides ...Override) *ConfigManager {
	if config == nil {
		config = DefaultConfig()
	}
	return &ConfigManager{
		config:     config,
		configPath: configPath,
		overrides:  overrides,
	}
}

// InitConfigManager loads the dotenv file, reads and validates the config and
// returns a manager for it. The returned warnings should be logged once a
// logger exists.
func InitConfigManager(configPath, envFile string, overrides ...Override) (*ConfigManager, []string, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}

	cfg, used, err := readConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config: %w", err)
	}

	for _, o := range overrides {
		o(cfg)
	}

	cfg, warnings, err := ValidateAndEnforceDefaults(cfg)
	if err != nil {
		return nil, warnings, fmt.Errorf("invalid config: %w", err)
	}

	if used == "" {
		used = configPath
	}
	return NewConfigManager(used, cfg, overrides...), warnings, nil
}

func (cm *ConfigManager) With(mutators ...Override) *ConfigManager {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for _, mutate := range mutators {
		mutate(cm.config)
	}
	return cm
}

// ReloadConfig re-reads the config file, validates it and swaps it in,
// returning the changes relative to the previous config.
// On error the current config is kept.
func (cm *ConfigManager) ReloadConfig() ([]ConfigChange, []string, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	oldConfig := cm.config

	newConfig, _, err := readConfig(cm.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config from disk: %w", err)
	}
	for _, o := range cm.overrides {
		o(newConfig)
	}

	validatedConfig, warnings, err := ValidateAndEnforceDefaults(newConfig)
	if err != nil {
		return nil, warnings, fmt.Errorf("failed to validate reloaded config: %w", err)
	}

	changes := cm.detectChanges(oldConfig, validatedConfig)

	cm.config = validatedConfig

	return changes, warnings, nil
}

func (cm *ConfigManager) detectChanges(oldConfig *Config, newConfig *Config) []ConfigChange {
	var changes []ConfigChange

	if !strings.EqualFold(oldConfig.LogLevel, newConfig.LogLevel) {
		changes = append(changes, ConfigChange{
			Type:     LogLevelChanged,
			OldValue: oldConfig.LogLevel,
			NewValue: newConfig.LogLevel,
		})
	}

	if oldConfig.Probe != newConfig.Probe {
		changes = append(changes, ConfigChange{
			Type:     ProbeIntervalChanged,
			OldValue: oldConfig.Probe,
			NewValue: newConfig.Probe,
		})
	}

	if oldConfig.Device != newConfig.Device {
		changes = append(changes, ConfigChange{
			Type:     DeviceChanged,
			OldValue: oldConfig.Device,
			NewValue: newConfig.Device,
		})
	}

	if oldConfig.Server != newConfig.Server {
		changes = append(changes, ConfigChange{
			Type:     ServerChanged,
			OldValue: oldConfig.Server,
			NewValue: newConfig.Server,
		})
	}

	return changes
}

// WriteConfig writes the current config to the manager's path.
func (cm *ConfigManager) WriteConfig() error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return WriteConfigFile(cm.configPath, cm.config)
}

// WriteConfigFile writes cfg to path as TOML when the extension is .toml
// and as indented JSON otherwise, creating the parent directory.
func WriteConfigFile(path string, cfg *Config) error {
	if path == "" {
		return fmt.Errorf("no config path set")
	}

	data, err := Marshal(cfg, formatFromPath(path))
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := ensureDir(dir); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0o600)
}

// Marshal encodes cfg as "json" or "toml".
func Marshal(cfg *Config, format string) ([]byte, error) {
	switch format {
	case "toml":
		var b strings.Builder
		if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
		return []byte(b.String()), nil
	case "json", "":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
}

func formatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "json"
}
