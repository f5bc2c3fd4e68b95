package device

import (
	"context"
	"errors"
)

var ErrPropertiesUnavailable = errors.New("device properties unavailable")

// Properties are the build and hardware values used to describe a device.
// A property the device does not report is left empty.
type Properties struct {
	Manufacturer string `json:"manufacturer" toml:"manufacturer"`
	Brand        string `json:"brand" toml:"brand"`
	Model        string `json:"model" toml:"model"`
	Device       string `json:"device" toml:"device"`
	Product      string `json:"product" toml:"product"`
	Board        string `json:"board" toml:"board"`
	Hardware     string `json:"hardware" toml:"hardware"`
	Host         string `json:"host" toml:"host"`
	Fingerprint  string `json:"fingerprint" toml:"fingerprint"`
	Bootloader   string `json:"bootloader" toml:"bootloader"`
	RadioVersion string `json:"radio_version" toml:"radio_version"`
	OSVersion    string `json:"os_version" toml:"os_version"`
	SDKInt       int    `json:"sdk_int" toml:"sdk_int"`
	Incremental  string `json:"incremental" toml:"incremental"`
	Codename     string `json:"codename" toml:"codename"`
	Architecture string `json:"architecture" toml:"architecture"`
	KernelQemu   string `json:"kernel_qemu" toml:"kernel_qemu"`
}

// Source provides the properties of the current device.
type Source interface {
	Properties(ctx context.Context) (*Properties, error)
}

// StaticSource returns a fixed set of properties.
type StaticSource struct {
	Props *Properties
	Err   error
}

func (s *StaticSource) Properties(_ context.Context) (*Properties, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Props == nil {
		return &Properties{}, nil
	}
	p := *s.Props
	return &p, nil
}

// Info renders properties as the flat device-info map reported to callers.
func Info(p *Properties) map[string]interface{} {
	arch := p.Architecture
	if arch == "" {
		arch = "unknown"
	}
	return map[string]interface{}{
		"manufacturer": p.Manufacturer,
		"brand":        p.Brand,
		"model":        p.Model,
		"device":       p.Device,
		"product":      p.Product,
		"board":        p.Board,
		"hardware":     p.Hardware,
		"host":         p.Host,
		"fingerprint":  p.Fingerprint,
		"bootloader":   p.Bootloader,
		"radioVersion": p.RadioVersion,
		"osVersion":    p.OSVersion,
		"sdkInt":       p.SDKInt,
		"incremental":  p.Incremental,
		"codename":     p.Codename,
		"architecture": arch,
	}
}
