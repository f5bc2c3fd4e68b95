package config

// The values below are the defaults used when the config file, the environment
// and the command line leave a setting empty or set it to an invalid value.

const DefaultConfigName string = "config"
const DefaultEnvFile string = ".env"

// Environment variables override config keys, e.g. ANDROID_ID_LOG_LEVEL or ANDROID_ID_DEVICE_MODE.
const EnvPrefix string = "ANDROID_ID"

const DefaultLogLevel string = "info"

const DefaultListenAddr string = "127.0.0.1:8547"
const DefaultPathPrefix string = "/api/v1"

// The probe scheduler only understands the @every form.
const DefaultProbeInterval string = "@every 00h00m30s"

const DefaultCommandTimeout string = "10s"

const (
	ModeLocal string = "local"
	ModeADB   string = "adb"
)

const DefaultADBPath string = "adb"
const DefaultFileRoot string = "/"
