package config

func SetLogLevel(level string) Override {
	return func(cfg *Config) {
		cfg.LogLevel = level
	}
}

func SetJSONLogging(enabled bool) Override {
	return func(cfg *Config) {
		cfg.JSONLogging = enabled
	}
}

func SetListenAddr(addr string) Override {
	return func(cfg *Config) {
		cfg.Server.ListenAddr = addr
	}
}

func SetDeviceMode(mode string) Override {
	return func(cfg *Config) {
		cfg.Device.Mode = mode
	}
}

func SetSerial(serial string) Override {
	return func(cfg *Config) {
		cfg.Device.Serial = serial
	}
}

// UseADB switches to adb mode, optionally pinning the device serial.
func UseADB(serial string) Override {
	return func(cfg *Config) {
		cfg.Device.Mode = ModeADB
		if serial != "" {
			cfg.Device.Serial = serial
		}
	}
}

func SetProbeInterval(expr string) Override {
	return func(cfg *Config) {
		cfg.Probe.Interval = expr
	}
}

func SetProbeDisabled(disabled bool) Override {
	return func(cfg *Config) {
		cfg.Probe.Disabled = disabled
	}
}
