package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestInitConfigManager(t *testing.T) {
	validJSON := writeTempFile(t, "config.json", `{
  "log_level": "debug",
  "device": {"mode": "adb", "serial": "emulator-5554", "command_timeout": "3s"},
  "probe": {"interval": "@every 1m"}
}`)
	validTOML := writeTempFile(t, "config.toml", `
log_level = "warn"

[server]
listen_addr = "0.0.0.0:9000"
enable_pprof = true
`)
	emptyFile := writeTempFile(t, "empty.json", "  ")
	invalidJSON := writeTempFile(t, "invalid.json", "not-json")
	invalidMode := writeTempFile(t, "mode.json", `{"device": {"mode": "telnet"}}`)

	tests := []struct {
		name    string
		path    string
		wantErr bool
		check   func(t *testing.T, cm *ConfigManager)
	}{
		{
			name: "JSON",
			path: validJSON,
			check: func(t *testing.T, cm *ConfigManager) {
				require.Equal(t, "debug", cm.GetLogLevel())
				require.Equal(t, ModeADB, cm.GetDeviceMode())
				require.Equal(t, "emulator-5554", cm.GetSerial())
				require.Equal(t, 3*time.Second, cm.GetCommandTimeout())
				require.Equal(t, "@every 1m", cm.GetProbeInterval())
				require.Equal(t, DefaultListenAddr, cm.GetListenAddr())
				require.Equal(t, validJSON, cm.ConfigPath())
			},
		},
		{
			name: "TOML",
			path: validTOML,
			check: func(t *testing.T, cm *ConfigManager) {
				require.Equal(t, "warn", cm.GetLogLevel())
				require.Equal(t, "0.0.0.0:9000", cm.GetListenAddr())
				require.True(t, cm.IsPprofEnabled())
				require.Equal(t, ModeLocal, cm.GetDeviceMode())
			},
		},
		{
			name: "FileMissing",
			path: filepath.Join(t.TempDir(), "absent.json"),
			check: func(t *testing.T, cm *ConfigManager) {
				require.Equal(t, *DefaultConfig(), cm.GetConfig())
			},
		},
		{
			name: "EmptyFile",
			path: emptyFile,
			check: func(t *testing.T, cm *ConfigManager) {
				require.Equal(t, DefaultPathPrefix, cm.GetPathPrefix())
			},
		},
		{name: "InvalidJSON", path: invalidJSON, wantErr: true},
		{name: "InvalidMode", path: invalidMode, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm, _, err := InitConfigManager(tt.path, "")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, cm)
			}
		})
	}
}

func TestInitConfigManager_EnvAndOverrides(t *testing.T) {
	path := writeTempFile(t, "config.json", `{"log_level": "warn", "device": {"serial": "from-file"}}`)

	t.Run("environment beats file", func(t *testing.T) {
		t.Setenv("ANDROID_ID_LOG_LEVEL", "error")
		t.Setenv("ANDROID_ID_DEVICE_COMMAND_TIMEOUT", "7s")

		cm, _, err := InitConfigManager(path, "")
		require.NoError(t, err)
		require.Equal(t, "error", cm.GetLogLevel())
		require.Equal(t, 7*time.Second, cm.GetCommandTimeout())
		require.Equal(t, "from-file", cm.GetSerial())
	})

	t.Run("dotenv file", func(t *testing.T) {
		envFile := writeTempFile(t, ".env", "ANDROID_ID_PROBE_INTERVAL=\"@every 2m\"\n")
		t.Cleanup(func() { _ = os.Unsetenv("ANDROID_ID_PROBE_INTERVAL") })

		cm, _, err := InitConfigManager(path, envFile)
		require.NoError(t, err)
		require.Equal(t, "@every 2m", cm.GetProbeInterval())
	})

	t.Run("overrides beat everything", func(t *testing.T) {
		t.Setenv("ANDROID_ID_LOG_LEVEL", "error")

		cm, _, err := InitConfigManager(path, "", SetLogLevel("debug"), UseADB("R58M123"))
		require.NoError(t, err)
		require.Equal(t, "debug", cm.GetLogLevel())
		require.Equal(t, ModeADB, cm.GetDeviceMode())
		require.Equal(t, "R58M123", cm.GetSerial())
	})

	t.Run("missing dotenv file is ignored", func(t *testing.T) {
		_, _, err := InitConfigManager(path, filepath.Join(t.TempDir(), ".env"))
		require.NoError(t, err)
	})
}

func TestConfigManager_ReloadConfig(t *testing.T) {
	path := writeTempFile(t, "config.json", `{"log_level": "info"}`)

	cm, _, err := InitConfigManager(path, "", SetSerial("pinned"))
	require.NoError(t, err)

	t.Run("no changes", func(t *testing.T) {
		changes, _, err := cm.ReloadConfig()
		require.NoError(t, err)
		require.Empty(t, changes)
	})

	t.Run("log level and interval changes", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(`{"log_level": "debug", "probe": {"interval": "@every 10s"}}`), 0o600))

		changes, _, err := cm.ReloadConfig()
		require.NoError(t, err)

		var types []ConfigChangeType
		for _, c := range changes {
			types = append(types, c.Type)
		}
		require.ElementsMatch(t, []ConfigChangeType{LogLevelChanged, ProbeIntervalChanged}, types)
		require.Equal(t, "debug", cm.GetLogLevel())
		require.Equal(t, "@every 10s", cm.GetProbeInterval())
		require.Equal(t, "pinned", cm.GetSerial())
	})

	t.Run("invalid file keeps current config", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(`{"device": {"mode": "nope"}}`), 0o600))

		_, _, err := cm.ReloadConfig()
		require.Error(t, err)
		require.Equal(t, "debug", cm.GetLogLevel())
	})
}

func TestConfigManager_WriteConfig(t *testing.T) {
	for _, name := range []string{"config.json", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cm := NewConfigManager(path, DefaultConfig())
			cm.With(SetLogLevel("warn"), SetProbeInterval("@every 45s"))
			require.NoError(t, cm.WriteConfig())

			loaded, _, err := InitConfigManager(path, "")
			require.NoError(t, err)
			require.Equal(t, "warn", loaded.GetLogLevel())
			require.Equal(t, "@every 45s", loaded.GetProbeInterval())
		})
	}
}

func TestMarshal(t *testing.T) {
	data, err := Marshal(DefaultConfig(), "toml")
	require.NoError(t, err)
	require.Contains(t, string(data), "[device]")
	require.Contains(t, string(data), `mode = "local"`)

	data, err = Marshal(DefaultConfig(), "json")
	require.NoError(t, err)
	require.Contains(t, string(data), `"listen_addr": "127.0.0.1:8547"`)

	_, err = Marshal(DefaultConfig(), "xml")
	require.Error(t, err)
}
