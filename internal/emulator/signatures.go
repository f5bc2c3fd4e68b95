package emulator

import (
	"fmt"
	"strings"

	"github.com/fluttercommunity/android-id/internal/device"
)

// Platform identifies the emulator family a signature belongs to.
type Platform string

const (
	PlatformAndroidSDK Platform = "android-sdk"
	PlatformQEMU       Platform = "qemu"
	PlatformX86        Platform = "x86"
	PlatformGenymotion Platform = "genymotion"
	PlatformBlueStacks Platform = "bluestacks"
	PlatformNox        Platform = "nox"
	PlatformDroid4X    Platform = "droid4x"
	PlatformVirtualBox Platform = "virtualbox"
	PlatformLDPlayer   Platform = "ldplayer"
	PlatformMEmu       Platform = "memu"
	PlatformAndy       Platform = "andy"
)

// Field names a device property a signature inspects.
type Field string

const (
	FieldManufacturer Field = "manufacturer"
	FieldBrand        Field = "brand"
	FieldModel        Field = "model"
	FieldDevice       Field = "device"
	FieldProduct      Field = "product"
	FieldBoard        Field = "board"
	FieldHardware     Field = "hardware"
	FieldHost         Field = "host"
	FieldFingerprint  Field = "fingerprint"
	FieldArchitecture Field = "architecture"
	FieldKernelQemu   Field = "ro.kernel.qemu"
)

func (f Field) value(p *device.Properties) string {
	switch f {
	case FieldManufacturer:
		return p.Manufacturer
	case FieldBrand:
		return p.Brand
	case FieldModel:
		return p.Model
	case FieldDevice:
		return p.Device
	case FieldProduct:
		return p.Product
	case FieldBoard:
		return p.Board
	case FieldHardware:
		return p.Hardware
	case FieldHost:
		return p.Host
	case FieldFingerprint:
		return p.Fingerprint
	case FieldArchitecture:
		return p.Architecture
	case FieldKernelQemu:
		return p.KernelQemu
	default:
		return ""
	}
}

type op int

const (
	opEqual op = iota
	opEqualFold
	opPrefix
	opContains
	opLowerContains
)

type cond struct {
	field Field
	op    op
	value string
}

// holds reports whether the condition is satisfied. Empty properties never satisfy a condition.
func (c cond) holds(p *device.Properties) bool {
	v := c.field.value(p)
	if v == "" {
		return false
	}
	switch c.op {
	case opEqual:
		return v == c.value
	case opEqualFold:
		return strings.EqualFold(v, c.value)
	case opPrefix:
		return strings.HasPrefix(v, c.value)
	case opContains:
		return strings.Contains(v, c.value)
	case opLowerContains:
		return strings.Contains(strings.ToLower(v), c.value)
	default:
		return false
	}
}

func (c cond) String() string {
	switch c.op {
	case opEqual:
		return fmt.Sprintf("%s is %q", c.field, c.value)
	case opEqualFold:
		return fmt.Sprintf("%s is %q (any case)", c.field, c.value)
	case opPrefix:
		return fmt.Sprintf("%s starts with %q", c.field, c.value)
	case opContains:
		return fmt.Sprintf("%s contains %q", c.field, c.value)
	case opLowerContains:
		return fmt.Sprintf("%s contains %q (any case)", c.field, c.value)
	default:
		return string(c.field)
	}
}

func equal(f Field, v string) cond         { return cond{f, opEqual, v} }
func equalFold(f Field, v string) cond     { return cond{f, opEqualFold, v} }
func prefix(f Field, v string) cond        { return cond{f, opPrefix, v} }
func contains(f Field, v string) cond      { return cond{f, opContains, v} }
func lowerContains(f Field, v string) cond { return cond{f, opLowerContains, v} }

// rule matches when every cond in all holds and no cond in except holds.
type rule struct {
	platform Platform
	all      []cond
	except   []cond
}

func when(p Platform, c ...cond) rule {
	return rule{platform: p, all: c}
}

func (r rule) unless(c ...cond) rule {
	r.except = append(r.except, c...)
	return r
}

func (r rule) matches(p *device.Properties) bool {
	for _, c := range r.all {
		if !c.holds(p) {
			return false
		}
	}
	for _, c := range r.except {
		if c.holds(p) {
			return false
		}
	}
	return true
}

func (r rule) String() string {
	parts := make([]string, 0, len(r.all)+len(r.except))
	for _, c := range r.all {
		parts = append(parts, c.String())
	}
	s := strings.Join(parts, " and ")
	for _, c := range r.except {
		s += ", unless " + c.String()
	}
	return s
}

// anyLowerContains expands to one rule per field checking a lower-cased substring.
func anyLowerContains(p Platform, v string, fields ...Field) []rule {
	rules := make([]rule, 0, len(fields))
	for _, f := range fields {
		rules = append(rules, when(p, lowerContains(f, v)))
	}
	return rules
}

func concat(groups ...[]rule) []rule {
	var out []rule
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// propertyRules is the known emulator signature table, evaluated in order.
var propertyRules = concat(
	[]rule{
		when(PlatformAndroidSDK, prefix(FieldFingerprint, "generic")),
		when(PlatformAndroidSDK, prefix(FieldFingerprint, "unknown")),
		when(PlatformAndroidSDK, contains(FieldModel, "google_sdk")),
		when(PlatformAndroidSDK, contains(FieldModel, "Emulator")),
		when(PlatformAndroidSDK, contains(FieldModel, "Android SDK built for x86")),
		when(PlatformGenymotion, contains(FieldManufacturer, "Genymotion")),
		when(PlatformAndroidSDK, prefix(FieldModel, "sdk_")),
		when(PlatformAndroidSDK, prefix(FieldDevice, "emulator")),
		when(PlatformAndroidSDK, prefix(FieldBrand, "generic"), prefix(FieldDevice, "generic")),
		when(PlatformAndroidSDK, equal(FieldProduct, "google_sdk")),
		when(PlatformBlueStacks, equal(FieldBoard, "QC_Reference_Phone")).
			unless(equalFold(FieldManufacturer, "xiaomi")),
		when(PlatformAndroidSDK, prefix(FieldHost, "Build")).
			unless(equalFold(FieldManufacturer, "sony")),
		when(PlatformQEMU, equal(FieldKernelQemu, "1")),
		when(PlatformQEMU, contains(FieldHardware, "goldfish")),
		when(PlatformQEMU, contains(FieldHardware, "ranchu")),
		when(PlatformVirtualBox, contains(FieldProduct, "vbox86p")),
		when(PlatformNox, lowerContains(FieldProduct, "nox")),
		when(PlatformNox, lowerContains(FieldBoard, "nox")),
		when(PlatformNox, lowerContains(FieldHardware, "nox")),
		when(PlatformDroid4X, lowerContains(FieldModel, "droid4x")),
		when(PlatformVirtualBox, equal(FieldHardware, "vbox86")),
	},
	anyLowerContains(PlatformLDPlayer, "changwan",
		FieldManufacturer, FieldBrand, FieldModel, FieldDevice, FieldProduct, FieldFingerprint),
	anyLowerContains(PlatformLDPlayer, "ldplayer",
		FieldManufacturer, FieldBrand, FieldModel),
	[]rule{
		when(PlatformLDPlayer, lowerContains(FieldHardware, "lkm")),
		when(PlatformLDPlayer, lowerContains(FieldHardware, "ttvm")),
		when(PlatformLDPlayer, equal(FieldModel, "LDPlayer")),
		when(PlatformLDPlayer, equal(FieldManufacturer, "Chang Wan")),
		when(PlatformLDPlayer, equal(FieldDevice, "ttVM_Hdragon")),
		when(PlatformLDPlayer, contains(FieldFingerprint, "LDPlayer")),
	},
	anyLowerContains(PlatformMEmu, "memu",
		FieldManufacturer, FieldBrand, FieldModel, FieldDevice, FieldProduct),
	[]rule{
		when(PlatformMEmu, equal(FieldManufacturer, "Microvirt")),
		when(PlatformMEmu, equal(FieldModel, "MEmu")),
		when(PlatformMEmu, lowerContains(FieldHardware, "memu")),
	},
	anyLowerContains(PlatformBlueStacks, "bluestacks",
		FieldManufacturer, FieldBrand, FieldModel, FieldDevice, FieldProduct),
	[]rule{
		when(PlatformBlueStacks, equal(FieldManufacturer, "BlueStacks")),
		when(PlatformX86, contains(FieldArchitecture, "x86")),
		when(PlatformX86, contains(FieldArchitecture, "i686")),
	},
)

type fileGroup struct {
	platform Platform
	paths    []string
}

// probeFiles lists files only present on emulator images.
// Relative names are resolved against the detector's file root.
var probeFiles = []fileGroup{
	{PlatformGenymotion, []string{
		"/dev/socket/genyd",
		"/dev/socket/baseband_genyd",
	}},
	{PlatformAndy, []string{
		"fstab.andy",
		"ueventd.andy.rc",
	}},
	{PlatformNox, []string{
		"fstab.nox",
		"init.nox.rc",
		"ueventd.nox.rc",
	}},
	{PlatformX86, []string{
		"ueventd.android_x86.rc",
		"x86.prop",
		"ueventd.ttVM_x86.rc",
		"init.ttVM_x86.rc",
		"fstab.ttVM_x86",
		"fstab.vbox86",
		"init.vbox86.rc",
		"ueventd.vbox86.rc",
	}},
	{PlatformQEMU, []string{
		"/dev/socket/qemud",
		"/dev/qemu_pipe",
	}},
	{PlatformLDPlayer, []string{
		"/system/lib/libc_malloc_debug_qemu.so",
		"/system/bin/microvirt-prop",
		"/system/bin/microvirt-uiautomator",
		"/system/bin/microvirtd",
		"/system/xbin/microvirt-prop",
	}},
	{PlatformMEmu, []string{
		"fstab.memu",
		"init.memu.rc",
		"ueventd.memu.rc",
	}},
}

// ProbePaths returns every probe file name in evaluation order.
func ProbePaths() []string {
	var paths []string
	for _, g := range probeFiles {
		paths = append(paths, g.paths...)
	}
	return paths
}
