package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadEnvFile loads variables from a dotenv file without overriding ones
// already set in the environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// newViper returns a viper instance with defaults and environment bindings.
// Every key gets a default so that AutomaticEnv also applies to Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("json_logging", def.JSONLogging)
	v.SetDefault("audit_log_path", def.AuditLogPath)
	v.SetDefault("server.listen_addr", def.Server.ListenAddr)
	v.SetDefault("server.path_prefix", def.Server.PathPrefix)
	v.SetDefault("server.enable_pprof", def.Server.EnablePprof)
	v.SetDefault("server.tls.cert_file", def.Server.TLS.CertFile)
	v.SetDefault("server.tls.key_file", def.Server.TLS.KeyFile)
	v.SetDefault("server.tls.client_ca_file", def.Server.TLS.ClientCAFile)
	v.SetDefault("device.mode", def.Device.Mode)
	v.SetDefault("device.adb_path", def.Device.ADBPath)
	v.SetDefault("device.serial", def.Device.Serial)
	v.SetDefault("device.command_timeout", def.Device.CommandTimeout)
	v.SetDefault("device.file_root", def.Device.FileRoot)
	v.SetDefault("probe.interval", def.Probe.Interval)
	v.SetDefault("probe.disabled", def.Probe.Disabled)

	return v
}

// readConfig reads the config file at path, or searches the working directory
// and the user config directory when path is empty. It returns the file that
// was read, or "" when none was found and only defaults and env apply.
func readConfig(path string) (*Config, string, error) {
	v := newViper()

	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return nil, "", err
		}
		if isEmptyFile(expanded) {
			cfg, err := unmarshal(v)
			return cfg, "", err
		}
		v.SetConfigFile(expanded)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		if dir, err := DefaultConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	used := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("read config: %w", err)
		}
	} else {
		used = v.ConfigFileUsed()
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, "", err
	}
	return cfg, used, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func isEmptyFile(path string) bool {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return false
	}
	trimmed := strings.TrimSpace(string(data))
	return trimmed == "" || trimmed == "{}"
}
