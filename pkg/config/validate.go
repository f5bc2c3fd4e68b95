package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"fatal": true,
	"panic": true,
}

// ValidateAndEnforceDefaults checks cfg, replacing empty or invalid soft
// settings with defaults and reporting each replacement as a warning.
// Settings that cannot be defaulted safely produce an error.
func ValidateAndEnforceDefaults(cfg *Config) (*Config, []string, error) {
	var warnings []string

	if cfg == nil {
		warnings = append(warnings, "nil config provided, using defaults")
		cfg = DefaultConfig()
	}

	more, err := validateConfig(cfg)
	warnings = append(warnings, more...)
	if err != nil {
		return nil, warnings, err
	}

	return cfg, warnings, nil
}

func validateConfig(config *Config) ([]string, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	var warnings []string

	if config.LogLevel == "" {
		config.LogLevel = zerolog.LevelInfoValue
	} else if !validLogLevels[strings.ToLower(config.LogLevel)] {
		warnings = append(warnings, fmt.Sprintf(
			"invalid log_level '%s' provided. Valid options are: info, debug, panic, error, warn, fatal. Defaulting to 'info'.",
			config.LogLevel,
		))
		config.LogLevel = zerolog.LevelInfoValue
	}

	if config.Server.ListenAddr == "" {
		config.Server.ListenAddr = DefaultListenAddr
	} else if _, _, err := net.SplitHostPort(config.Server.ListenAddr); err != nil {
		return warnings, fmt.Errorf("invalid server.listen_addr %q: %w", config.Server.ListenAddr, err)
	}

	config.Server.PathPrefix = normalizePrefix(config.Server.PathPrefix)

	tlsCfg := config.Server.TLS
	if tlsCfg.Enabled() && (tlsCfg.CertFile == "" || tlsCfg.KeyFile == "") {
		return warnings, fmt.Errorf("server.tls requires both cert_file and key_file")
	}
	if !tlsCfg.Enabled() && tlsCfg.ClientCAFile != "" {
		return warnings, fmt.Errorf("server.tls.client_ca_file is set but TLS is not enabled")
	}

	switch strings.ToLower(config.Device.Mode) {
	case "":
		config.Device.Mode = ModeLocal
	case ModeLocal, ModeADB:
		config.Device.Mode = strings.ToLower(config.Device.Mode)
	default:
		return warnings, fmt.Errorf("invalid device.mode %q: must be %q or %q", config.Device.Mode, ModeLocal, ModeADB)
	}

	if config.Device.ADBPath == "" {
		config.Device.ADBPath = DefaultADBPath
	}
	if config.Device.FileRoot == "" {
		config.Device.FileRoot = DefaultFileRoot
	}

	if config.Device.CommandTimeout == "" {
		config.Device.CommandTimeout = DefaultCommandTimeout
	} else if d, err := time.ParseDuration(config.Device.CommandTimeout); err != nil || d <= 0 {
		warnings = append(warnings, fmt.Sprintf("invalid device.command_timeout '%s', using default %s", config.Device.CommandTimeout, DefaultCommandTimeout))
		config.Device.CommandTimeout = DefaultCommandTimeout
	}

	if config.Probe.Interval == "" {
		config.Probe.Interval = DefaultProbeInterval
	} else if !isValidInterval(config.Probe.Interval) {
		warnings = append(warnings, fmt.Sprintf("invalid schedule provided for probe.interval, using default schedule %s", DefaultProbeInterval))
		config.Probe.Interval = DefaultProbeInterval
	}

	return warnings, nil
}

// isValidInterval accepts cron descriptors of the form "@every <duration>"
// with a positive duration.
func isValidInterval(expr string) bool {
	if !strings.HasPrefix(expr, "@every ") {
		return false
	}
	if !isValidCronExpression(expr) {
		return false
	}
	d, err := time.ParseDuration(strings.TrimPrefix(expr, "@every "))
	return err == nil && d > 0
}

// isValidCronExpression checks the validity of a cron expression.
func isValidCronExpression(cronExpression string) bool {
	if _, err := cron.ParseStandard(cronExpression); err != nil {
		return false
	}
	return true
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || prefix == "/" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(prefix, "/")
}
