package emulator

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fluttercommunity/android-id/internal/device"
	"github.com/fluttercommunity/android-id/internal/shell"
	"github.com/stretchr/testify/require"
)

func retailSamsung() *device.Properties {
	return &device.Properties{
		Manufacturer: "samsung",
		Brand:        "samsung",
		Model:        "SM-G991B",
		Device:       "o1s",
		Product:      "o1sxeea",
		Board:        "exynos2100",
		Hardware:     "exynos2100",
		Host:         "21R3NF12",
		Fingerprint:  "samsung/o1sxeea/o1s:14/UP1A.231005.007/G991BXXSBGWL1:user/release-keys",
		OSVersion:    "14",
		SDKInt:       34,
		Architecture: "aarch64",
	}
}

func retailPixel() *device.Properties {
	return &device.Properties{
		Manufacturer: "Google",
		Brand:        "google",
		Model:        "Pixel 6",
		Device:       "oriole",
		Product:      "oriole",
		Board:        "oriole",
		Hardware:     "oriole",
		Host:         "abfarm-release-2004-0137",
		Fingerprint:  "google/oriole/oriole:14/UQ1A.240205.004/11269751:user/release-keys",
		Architecture: "aarch64",
	}
}

func with(base *device.Properties, mutate func(p *device.Properties)) *device.Properties {
	p := *base
	mutate(&p)
	return &p
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		props         *device.Properties
		wantEmulator  bool
		wantPlatforms []Platform
	}{
		{
			name: "android studio arm64 image",
			props: &device.Properties{
				Manufacturer: "Google",
				Model:        "sdk_gphone64_arm64",
				Fingerprint:  "google/sdk_gphone64_arm64/emu64a:14/UE1A.230829.036/10716218:userdebug/dev-keys",
			},
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformAndroidSDK},
		},
		{
			name:         "retail samsung",
			props:        retailSamsung(),
			wantEmulator: false,
		},
		{
			name:         "retail pixel",
			props:        retailPixel(),
			wantEmulator: false,
		},
		{
			name:         "no properties",
			props:        &device.Properties{},
			wantEmulator: false,
		},
		{
			name:          "generic fingerprint",
			props:         with(retailPixel(), func(p *device.Properties) { p.Fingerprint = "generic/sdk/generic:8.0.0" }),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformAndroidSDK},
		},
		{
			name:          "unknown fingerprint",
			props:         with(retailPixel(), func(p *device.Properties) { p.Fingerprint = "unknown" }),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformAndroidSDK},
		},
		{
			name:          "legacy sdk model",
			props:         with(retailPixel(), func(p *device.Properties) { p.Model = "Android SDK built for x86" }),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformAndroidSDK},
		},
		{
			name:          "genymotion manufacturer",
			props:         with(retailPixel(), func(p *device.Properties) { p.Manufacturer = "Genymotion" }),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformGenymotion},
		},
		{
			name: "generic brand and device",
			props: with(retailPixel(), func(p *device.Properties) {
				p.Brand = "generic"
				p.Device = "generic_x86"
			}),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformAndroidSDK},
		},
		{
			name:         "generic brand alone",
			props:        with(retailPixel(), func(p *device.Properties) { p.Brand = "generic" }),
			wantEmulator: false,
		},
		{
			name:          "bluestacks reference board",
			props:         with(retailPixel(), func(p *device.Properties) { p.Board = "QC_Reference_Phone" }),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformBlueStacks},
		},
		{
			name: "xiaomi reference board",
			props: with(retailPixel(), func(p *device.Properties) {
				p.Board = "QC_Reference_Phone"
				p.Manufacturer = "Xiaomi"
			}),
			wantEmulator: false,
		},
		{
			name:          "build host",
			props:         with(retailPixel(), func(p *device.Properties) { p.Host = "Build2" }),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformAndroidSDK},
		},
		{
			name: "sony build host",
			props: with(retailPixel(), func(p *device.Properties) {
				p.Host = "BuildHost"
				p.Manufacturer = "Sony"
			}),
			wantEmulator: false,
		},
		{
			name:          "qemu kernel",
			props:         with(retailPixel(), func(p *device.Properties) { p.KernelQemu = "1" }),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformQEMU},
		},
		{
			name:          "ranchu hardware",
			props:         with(retailPixel(), func(p *device.Properties) { p.Hardware = "ranchu" }),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformQEMU},
		},
		{
			name:          "nox product any case",
			props:         with(retailPixel(), func(p *device.Properties) { p.Product = "NOX" }),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformNox},
		},
		{
			name:          "vbox86 hardware",
			props:         with(retailPixel(), func(p *device.Properties) { p.Hardware = "vbox86" }),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformVirtualBox},
		},
		{
			name:          "droid4x model",
			props:         with(retailPixel(), func(p *device.Properties) { p.Model = "Droid4X-MAC" }),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformDroid4X},
		},
		{
			name: "ldplayer",
			props: with(retailPixel(), func(p *device.Properties) {
				p.Manufacturer = "Chang Wan"
				p.Device = "ttVM_Hdragon"
			}),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformLDPlayer},
		},
		{
			name:          "memu",
			props:         with(retailPixel(), func(p *device.Properties) { p.Manufacturer = "Microvirt" }),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformMEmu},
		},
		{
			name:          "bluestacks brand",
			props:         with(retailPixel(), func(p *device.Properties) { p.Brand = "BlueStacks" }),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformBlueStacks},
		},
		{
			name:          "x86_64 kernel",
			props:         with(retailPixel(), func(p *device.Properties) { p.Architecture = "x86_64" }),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformX86},
		},
		{
			name:          "i686 kernel",
			props:         with(retailPixel(), func(p *device.Properties) { p.Architecture = "i686" }),
			wantEmulator:  true,
			wantPlatforms: []Platform{PlatformX86},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := Classify(tt.props)
			require.Equal(t, tt.wantEmulator, len(matches) > 0, "matches: %v", matches)

			if tt.wantPlatforms != nil {
				report := &Report{Matches: matches}
				require.Equal(t, tt.wantPlatforms, report.Platforms())
			}
		})
	}
}

// prop returns properties with only field f set to v.
func prop(f Field, v string) *device.Properties {
	p := &device.Properties{}
	switch f {
	case FieldManufacturer:
		p.Manufacturer = v
	case FieldBrand:
		p.Brand = v
	case FieldModel:
		p.Model = v
	case FieldDevice:
		p.Device = v
	case FieldProduct:
		p.Product = v
	case FieldBoard:
		p.Board = v
	case FieldHardware:
		p.Hardware = v
	case FieldHost:
		p.Host = v
	case FieldFingerprint:
		p.Fingerprint = v
	case FieldArchitecture:
		p.Architecture = v
	case FieldKernelQemu:
		p.KernelQemu = v
	}
	return p
}

func TestClassify_EveryRule(t *testing.T) {
	tests := []struct {
		platform Platform
		reason   string
		props    *device.Properties
	}{
		{PlatformAndroidSDK, `fingerprint starts with "generic"`, prop(FieldFingerprint, "generic/sdk/generic:8.0.0")},
		{PlatformAndroidSDK, `fingerprint starts with "unknown"`, prop(FieldFingerprint, "unknown")},
		{PlatformAndroidSDK, `model contains "google_sdk"`, prop(FieldModel, "google_sdk")},
		{PlatformAndroidSDK, `model contains "Emulator"`, prop(FieldModel, "Android Emulator")},
		{PlatformAndroidSDK, `model contains "Android SDK built for x86"`, prop(FieldModel, "Android SDK built for x86_64")},
		{PlatformGenymotion, `manufacturer contains "Genymotion"`, prop(FieldManufacturer, "Genymotion")},
		{PlatformAndroidSDK, `model starts with "sdk_"`, prop(FieldModel, "sdk_gphone_x86")},
		{PlatformAndroidSDK, `device starts with "emulator"`, prop(FieldDevice, "emulator64_x86_64")},
		{PlatformAndroidSDK, `brand starts with "generic" and device starts with "generic"`, &device.Properties{Brand: "generic_x86", Device: "generic_x86"}},
		{PlatformAndroidSDK, `product is "google_sdk"`, prop(FieldProduct, "google_sdk")},
		{PlatformBlueStacks, `board is "QC_Reference_Phone", unless manufacturer is "xiaomi" (any case)`, prop(FieldBoard, "QC_Reference_Phone")},
		{PlatformAndroidSDK, `host starts with "Build", unless manufacturer is "sony" (any case)`, prop(FieldHost, "Build3")},
		{PlatformQEMU, `ro.kernel.qemu is "1"`, prop(FieldKernelQemu, "1")},
		{PlatformQEMU, `hardware contains "goldfish"`, prop(FieldHardware, "goldfish")},
		{PlatformQEMU, `hardware contains "ranchu"`, prop(FieldHardware, "ranchu")},
		{PlatformVirtualBox, `product contains "vbox86p"`, prop(FieldProduct, "vbox86p")},
		{PlatformNox, `product contains "nox" (any case)`, prop(FieldProduct, "Nox")},
		{PlatformNox, `board contains "nox" (any case)`, prop(FieldBoard, "NOX_board")},
		{PlatformNox, `hardware contains "nox" (any case)`, prop(FieldHardware, "nox")},
		{PlatformDroid4X, `model contains "droid4x" (any case)`, prop(FieldModel, "Droid4X")},
		{PlatformVirtualBox, `hardware is "vbox86"`, prop(FieldHardware, "vbox86")},
		{PlatformLDPlayer, `manufacturer contains "changwan" (any case)`, prop(FieldManufacturer, "ChangWan")},
		{PlatformLDPlayer, `brand contains "changwan" (any case)`, prop(FieldBrand, "changwan")},
		{PlatformLDPlayer, `model contains "changwan" (any case)`, prop(FieldModel, "CHANGWAN-1")},
		{PlatformLDPlayer, `device contains "changwan" (any case)`, prop(FieldDevice, "changwan")},
		{PlatformLDPlayer, `product contains "changwan" (any case)`, prop(FieldProduct, "ChangWan")},
		{PlatformLDPlayer, `fingerprint contains "changwan" (any case)`, prop(FieldFingerprint, "ChangWan/ttvm")},
		{PlatformLDPlayer, `manufacturer contains "ldplayer" (any case)`, prop(FieldManufacturer, "ldplayer")},
		{PlatformLDPlayer, `brand contains "ldplayer" (any case)`, prop(FieldBrand, "LDPlayer9")},
		{PlatformLDPlayer, `model contains "ldplayer" (any case)`, prop(FieldModel, "ldplayer9")},
		{PlatformLDPlayer, `hardware contains "lkm" (any case)`, prop(FieldHardware, "LKM")},
		{PlatformLDPlayer, `hardware contains "ttvm" (any case)`, prop(FieldHardware, "ttVM_x86")},
		{PlatformLDPlayer, `model is "LDPlayer"`, prop(FieldModel, "LDPlayer")},
		{PlatformLDPlayer, `manufacturer is "Chang Wan"`, prop(FieldManufacturer, "Chang Wan")},
		{PlatformLDPlayer, `device is "ttVM_Hdragon"`, prop(FieldDevice, "ttVM_Hdragon")},
		{PlatformLDPlayer, `fingerprint contains "LDPlayer"`, prop(FieldFingerprint, "LDPlayer/x86")},
		{PlatformMEmu, `manufacturer contains "memu" (any case)`, prop(FieldManufacturer, "MEmu Play")},
		{PlatformMEmu, `brand contains "memu" (any case)`, prop(FieldBrand, "memu")},
		{PlatformMEmu, `model contains "memu" (any case)`, prop(FieldModel, "MEMU-X")},
		{PlatformMEmu, `device contains "memu" (any case)`, prop(FieldDevice, "memu")},
		{PlatformMEmu, `product contains "memu" (any case)`, prop(FieldProduct, "memu_x86")},
		{PlatformMEmu, `manufacturer is "Microvirt"`, prop(FieldManufacturer, "Microvirt")},
		{PlatformMEmu, `model is "MEmu"`, prop(FieldModel, "MEmu")},
		{PlatformMEmu, `hardware contains "memu" (any case)`, prop(FieldHardware, "memu")},
		{PlatformBlueStacks, `manufacturer contains "bluestacks" (any case)`, prop(FieldManufacturer, "bluestacks")},
		{PlatformBlueStacks, `brand contains "bluestacks" (any case)`, prop(FieldBrand, "BlueStacks")},
		{PlatformBlueStacks, `model contains "bluestacks" (any case)`, prop(FieldModel, "BLUESTACKS 5")},
		{PlatformBlueStacks, `device contains "bluestacks" (any case)`, prop(FieldDevice, "bluestacks")},
		{PlatformBlueStacks, `product contains "bluestacks" (any case)`, prop(FieldProduct, "bluestacks_x86")},
		{PlatformBlueStacks, `manufacturer is "BlueStacks"`, prop(FieldManufacturer, "BlueStacks")},
		{PlatformX86, `architecture contains "x86"`, prop(FieldArchitecture, "x86_64")},
		{PlatformX86, `architecture contains "i686"`, prop(FieldArchitecture, "i686")},
	}

	require.Len(t, propertyRules, 52)
	require.Len(t, tests, len(propertyRules))

	covered := make(map[string]bool)
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			require.Contains(t, Classify(tt.props), Match{Platform: tt.platform, Reason: tt.reason})
		})
		covered[tt.reason] = true
	}

	for _, r := range propertyRules {
		require.True(t, covered[r.String()], "rule without a case: %s", r)
	}
}

func TestClassify_CaseSensitiveRules(t *testing.T) {
	for _, p := range []*device.Properties{
		prop(FieldModel, "android emulator"),
		prop(FieldManufacturer, "genymotion"),
		prop(FieldDevice, "Emulator64"),
		prop(FieldProduct, "GOOGLE_SDK"),
		prop(FieldHardware, "Goldfish"),
		prop(FieldFingerprint, "ldplayer/x86"),
		prop(FieldModel, "memu"),
		prop(FieldManufacturer, "microvirt"),
	} {
		matches := Classify(p)
		// only the any-case rules may still fire
		for _, m := range matches {
			require.Contains(t, m.Reason, "(any case)", "%+v", p)
		}
	}
	require.Empty(t, Classify(prop(FieldModel, "android emulator")))
	require.Empty(t, Classify(prop(FieldHardware, "Goldfish")))
}

func TestClassify_Nil(t *testing.T) {
	require.Empty(t, Classify(nil))
}

func TestClassify_Reasons(t *testing.T) {
	matches := Classify(with(retailPixel(), func(p *device.Properties) { p.Host = "Build2" }))
	require.Len(t, matches, 1)
	require.Equal(t, `host starts with "Build", unless manufacturer is "sony" (any case)`, matches[0].Reason)
}

func TestDetector_IsEmulator(t *testing.T) {
	ctx := context.Background()

	t.Run("property match", func(t *testing.T) {
		src := &device.StaticSource{Props: &device.Properties{
			Manufacturer: "Google",
			Model:        "sdk_gphone64_arm64",
			Fingerprint:  "google/sdk_gphone64_arm64/emu64a:14",
		}}
		d := NewDetector(src, shell.NewMockExecutor(), "")

		ok, err := d.IsEmulator(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("retail device without probe files", func(t *testing.T) {
		d := NewDetector(&device.StaticSource{Props: retailSamsung()}, shell.NewMockExecutor(), "")

		ok, err := d.IsEmulator(ctx)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("relative probe file under root", func(t *testing.T) {
		m := shell.NewMockExecutor()
		m.Files["/fstab.nox"] = true
		d := NewDetector(&device.StaticSource{Props: retailSamsung()}, m, "")

		ok, err := d.IsEmulator(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("absolute probe file", func(t *testing.T) {
		m := shell.NewMockExecutor()
		m.Files["/dev/qemu_pipe"] = true
		d := NewDetector(&device.StaticSource{Props: retailSamsung()}, m, "/data/local/tmp")

		ok, err := d.IsEmulator(ctx)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("probe errors count as absent", func(t *testing.T) {
		m := shell.NewMockExecutor()
		m.Files["/fstab.nox"] = true
		m.ExistsErr = errors.New("permission denied")
		d := NewDetector(&device.StaticSource{Props: retailSamsung()}, m, "")

		ok, err := d.IsEmulator(ctx)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("missing adb is an error, not a clean device", func(t *testing.T) {
		exec := shell.NewADBExecutor(filepath.Join(t.TempDir(), "adb"), "", time.Second)
		d := NewDetector(device.NewGetpropSource(exec), exec, "")

		ok, err := d.IsEmulator(ctx)
		require.ErrorIs(t, err, shell.ErrTransportUnavailable)
		require.False(t, ok)
	})

	t.Run("source failure", func(t *testing.T) {
		src := &device.StaticSource{Err: device.ErrPropertiesUnavailable}
		d := NewDetector(src, shell.NewMockExecutor(), "")

		_, err := d.IsEmulator(ctx)
		require.ErrorIs(t, err, device.ErrPropertiesUnavailable)
	})

	t.Run("deterministic", func(t *testing.T) {
		d := NewDetector(&device.StaticSource{Props: retailPixel()}, shell.NewMockExecutor(), "")
		first, err := d.IsEmulator(ctx)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := d.IsEmulator(ctx)
			require.NoError(t, err)
			require.Equal(t, first, again)
		}
	})
}

func TestDetector_Detect(t *testing.T) {
	ctx := context.Background()

	m := shell.NewMockExecutor()
	m.Files["/dev/socket/genyd"] = true
	m.Files["/init.memu.rc"] = true
	props := with(retailPixel(), func(p *device.Properties) { p.Hardware = "goldfish" })
	d := NewDetector(&device.StaticSource{Props: props}, m, "")

	report, err := d.Detect(ctx)
	require.NoError(t, err)
	require.True(t, report.Emulator)
	require.Equal(t, []Platform{PlatformQEMU, PlatformGenymotion, PlatformMEmu}, report.Platforms())
	require.Contains(t, report.Matches, Match{Platform: PlatformMEmu, Reason: "found file /init.memu.rc"})
	require.Equal(t, "goldfish", report.Device.Hardware)

	t.Run("clean device", func(t *testing.T) {
		d := NewDetector(&device.StaticSource{Props: retailSamsung()}, shell.NewMockExecutor(), "")
		report, err := d.Detect(ctx)
		require.NoError(t, err)
		require.False(t, report.Emulator)
		require.Empty(t, report.Matches)
	})
}

func TestDetector_ExistingFiles(t *testing.T) {
	m := shell.NewMockExecutor()
	m.Files["/system/bin/microvirtd"] = true
	m.Files["/x86.prop"] = true
	d := NewDetector(&device.StaticSource{}, m, "")

	got := d.ExistingFiles(context.Background(), ProbePaths())
	require.Equal(t, []string{"/x86.prop", "/system/bin/microvirtd"}, got)

	require.Empty(t, d.ExistingFiles(context.Background(), []string{"/nope"}))
}

func TestProbePaths(t *testing.T) {
	paths := ProbePaths()
	require.Len(t, paths, 25)
	require.Contains(t, paths, "/dev/qemu_pipe")
	require.Contains(t, paths, "ueventd.vbox86.rc")
}
