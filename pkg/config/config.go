package config

// Warning represents a non-critical issue with configuration.
type Warning string

type ServerConfig struct {
	ListenAddr  string    `json:"listen_addr,omitempty" toml:"listen_addr,omitempty" mapstructure:"listen_addr"`
	PathPrefix  string    `json:"path_prefix,omitempty" toml:"path_prefix,omitempty" mapstructure:"path_prefix"`
	EnablePprof bool      `json:"enable_pprof,omitempty" toml:"enable_pprof,omitempty" mapstructure:"enable_pprof"`
	TLS         TLSConfig `json:"tls,omitempty" toml:"tls,omitempty" mapstructure:"tls"`
}

// TLSConfig enables HTTPS on the bridge. Setting ClientCAFile additionally
// requires clients to present a certificate signed by that CA.
type TLSConfig struct {
	CertFile     string `json:"cert_file,omitempty" toml:"cert_file,omitempty" mapstructure:"cert_file"`
	KeyFile      string `json:"key_file,omitempty" toml:"key_file,omitempty" mapstructure:"key_file"`
	ClientCAFile string `json:"client_ca_file,omitempty" toml:"client_ca_file,omitempty" mapstructure:"client_ca_file"`
}

func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" || t.KeyFile != ""
}

// DeviceConfig selects how device commands are run: directly on the host,
// or through adb against a connected device.
type DeviceConfig struct {
	Mode           string `json:"mode,omitempty" toml:"mode,omitempty" mapstructure:"mode"`
	ADBPath        string `json:"adb_path,omitempty" toml:"adb_path,omitempty" mapstructure:"adb_path"`
	Serial         string `json:"serial,omitempty" toml:"serial,omitempty" mapstructure:"serial"`
	CommandTimeout string `json:"command_timeout,omitempty" toml:"command_timeout,omitempty" mapstructure:"command_timeout"`
	FileRoot       string `json:"file_root,omitempty" toml:"file_root,omitempty" mapstructure:"file_root"`
}

type ProbeConfig struct {
	Interval string `json:"interval,omitempty" toml:"interval,omitempty" mapstructure:"interval"`
	Disabled bool   `json:"disabled,omitempty" toml:"disabled,omitempty" mapstructure:"disabled"`
}

type Config struct {
	LogLevel     string       `json:"log_level,omitempty" toml:"log_level,omitempty" mapstructure:"log_level"`
	JSONLogging  bool         `json:"json_logging,omitempty" toml:"json_logging,omitempty" mapstructure:"json_logging"`
	AuditLogPath string       `json:"audit_log_path,omitempty" toml:"audit_log_path,omitempty" mapstructure:"audit_log_path"`
	Server       ServerConfig `json:"server" toml:"server" mapstructure:"server"`
	Device       DeviceConfig `json:"device" toml:"device" mapstructure:"device"`
	Probe        ProbeConfig  `json:"probe" toml:"probe" mapstructure:"probe"`
}

// DefaultConfig returns a config with every default applied.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Server: ServerConfig{
			ListenAddr: DefaultListenAddr,
			PathPrefix: DefaultPathPrefix,
		},
		Device: DeviceConfig{
			Mode:           ModeLocal,
			ADBPath:        DefaultADBPath,
			CommandTimeout: DefaultCommandTimeout,
			FileRoot:       DefaultFileRoot,
		},
		Probe: ProbeConfig{
			Interval: DefaultProbeInterval,
		},
	}
}
