package device

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fluttercommunity/android-id/internal/shell"
)

const getpropCommand = "getprop"

// Android system property keys backing each build field.
const (
	propManufacturer = "ro.product.manufacturer"
	propBrand        = "ro.product.brand"
	propModel        = "ro.product.model"
	propDevice       = "ro.product.device"
	propProduct      = "ro.product.name"
	propBoard        = "ro.product.board"
	propHardware     = "ro.hardware"
	propHost         = "ro.build.host"
	propFingerprint  = "ro.build.fingerprint"
	propBootloader   = "ro.bootloader"
	propRadioVersion = "gsm.version.baseband"
	propRelease      = "ro.build.version.release"
	propSDK          = "ro.build.version.sdk"
	propIncremental  = "ro.build.version.incremental"
	propCodename     = "ro.build.version.codename"
	propKernelQemu   = "ro.kernel.qemu"
)

// GetpropSource reads properties from the Android property service via getprop.
type GetpropSource struct {
	exec shell.Executor
}

func NewGetpropSource(exec shell.Executor) *GetpropSource {
	return &GetpropSource{exec: exec}
}

// Properties dumps all system properties once and maps the build keys.
// A target without getprop has no properties; that is reported as an empty set, not an error.
func (g *GetpropSource) Properties(ctx context.Context) (*Properties, error) {
	out, err := g.exec.Output(ctx, getpropCommand)
	if err != nil {
		if errors.Is(err, shell.ErrCommandNotFound) {
			return &Properties{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrPropertiesUnavailable, err)
	}

	props := ParseGetprop(out)
	p := FromMap(props)

	if arch, err := g.exec.KernelArch(ctx); err == nil {
		p.Architecture = arch
	}

	return p, nil
}

// ParseGetprop parses `getprop` output of the form "[key]: [value]".
func ParseGetprop(data []byte) map[string]string {
	props := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
			continue
		}
		sep := strings.Index(line, "]: [")
		if sep < 0 {
			continue
		}
		key := line[1:sep]
		value := line[sep+len("]: [") : len(line)-1]
		if key == "" {
			continue
		}
		props[key] = value
	}

	return props
}

// FromMap builds Properties from raw system property values.
func FromMap(props map[string]string) *Properties {
	p := &Properties{
		Manufacturer: props[propManufacturer],
		Brand:        props[propBrand],
		Model:        props[propModel],
		Device:       props[propDevice],
		Product:      props[propProduct],
		Board:        props[propBoard],
		Hardware:     props[propHardware],
		Host:         props[propHost],
		Fingerprint:  props[propFingerprint],
		Bootloader:   props[propBootloader],
		RadioVersion: props[propRadioVersion],
		OSVersion:    props[propRelease],
		Incremental:  props[propIncremental],
		Codename:     props[propCodename],
		KernelQemu:   props[propKernelQemu],
	}

	if sdk, err := strconv.Atoi(strings.TrimSpace(props[propSDK])); err == nil {
		p.SDKInt = sdk
	}

	return p
}
