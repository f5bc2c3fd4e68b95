package config

import "time"

// Threadsafe getter functions to fetch config data.

func (cm *ConfigManager) GetLogLevel() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.LogLevel
}

func (cm *ConfigManager) IsJSONLog() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.JSONLogging
}

func (cm *ConfigManager) GetAuditLogPath() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.AuditLogPath
}

func (cm *ConfigManager) GetListenAddr() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.Server.ListenAddr
}

func (cm *ConfigManager) GetPathPrefix() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.Server.PathPrefix
}

func (cm *ConfigManager) IsPprofEnabled() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.Server.EnablePprof
}

func (cm *ConfigManager) GetTLSConfig() TLSConfig {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.Server.TLS
}

func (cm *ConfigManager) GetDeviceMode() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.Device.Mode
}

func (cm *ConfigManager) GetADBPath() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.Device.ADBPath
}

func (cm *ConfigManager) GetSerial() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.Device.Serial
}

// GetCommandTimeout returns the parsed device command timeout.
// Validation guarantees a parseable value; the default is used otherwise.
func (cm *ConfigManager) GetCommandTimeout() time.Duration {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	d, err := time.ParseDuration(cm.config.Device.CommandTimeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultCommandTimeout)
	}
	return d
}

func (cm *ConfigManager) GetFileRoot() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.Device.FileRoot
}

func (cm *ConfigManager) GetProbeInterval() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.Probe.Interval
}

func (cm *ConfigManager) IsProbeDisabled() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config.Probe.Disabled
}

// GetConfig returns a copy of the current config.
func (cm *ConfigManager) GetConfig() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return *cm.config
}

func (cm *ConfigManager) ConfigPath() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}
