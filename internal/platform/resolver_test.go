package platform

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cpuinfo(part string) func() ([]byte, error) {
	return func() ([]byte, error) {
		return []byte("processor\t: 0\nBogoMIPS\t: 108.00\nCPU implementer\t: 0x41\nCPU part\t: " +
			part + "\nCPU revision\t: 3\n\nprocessor\t: 1\nCPU part\t: 0xfff\n"), nil
	}
}

func TestResolveDesktopTargets(t *testing.T) {
	tests := []struct {
		os, arch string
		want     string
	}{
		{"darwin", "amd64", "mac/x86_64/libpv_cobra.dylib"},
		{"darwin", "arm64", "mac/arm64/libpv_cobra.dylib"},
		{"windows", "amd64", "windows/amd64/libpv_cobra.dll"},
		{"linux", "amd64", "linux/x86_64/libpv_cobra.so"},
	}

	for _, tt := range tests {
		t.Run(tt.os+"/"+tt.arch, func(t *testing.T) {
			got, err := Resolve(Host{OS: tt.os, Arch: tt.arch})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveUnsupported(t *testing.T) {
	for _, h := range []Host{
		{OS: "windows", Arch: "arm64"},
		{OS: "linux", Arch: "386"},
		{OS: "plan9", Arch: "amd64"},
	} {
		_, err := Resolve(h)
		assert.ErrorIs(t, err, ErrUnsupportedPlatform, "%s/%s", h.OS, h.Arch)
	}
}

func TestResolveARMBoards(t *testing.T) {
	tests := []struct {
		arch string
		part string
		want string
	}{
		{"arm", "0xb76", "raspberry-pi/arm11/libpv_cobra.so"},
		{"arm", "0xc07", "raspberry-pi/cortex-a7/libpv_cobra.so"},
		{"arm", "0xd03", "raspberry-pi/cortex-a53/libpv_cobra.so"},
		{"arm", "0xd08", "raspberry-pi/cortex-a72/libpv_cobra.so"},
		{"arm", "0xD0B", "raspberry-pi/cortex-a76/libpv_cobra.so"},
		{"arm64", "0xd03", "raspberry-pi/cortex-a53-aarch64/libpv_cobra.so"},
		{"arm64", "0xd08", "raspberry-pi/cortex-a72-aarch64/libpv_cobra.so"},
		{"arm64", "0xd0b", "raspberry-pi/cortex-a76-aarch64/libpv_cobra.so"},
		{"arm64", "0xd07", "jetson/cortex-a57-aarch64/libpv_cobra.so"},
		{"arm", "0xc08", "beaglebone/libpv_cobra.so"},
	}

	for _, tt := range tests {
		t.Run(tt.arch+"/"+tt.part, func(t *testing.T) {
			var logs bytes.Buffer
			got, err := Resolve(Host{
				OS:      "linux",
				Arch:    tt.arch,
				CPUInfo: cpuinfo(tt.part),
				Logger:  zerolog.New(&logs),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, logs.String(), "supported boards resolve without a warning")
		})
	}
}

func TestResolveARMFallsBackWithWarning(t *testing.T) {
	tests := []struct {
		name string
		arch string
		part string
		want string
	}{
		{"unknown 32-bit part", "arm", "0x123", "raspberry-pi/arm11/libpv_cobra.so"},
		{"unknown 64-bit part", "arm64", "0x123", "raspberry-pi/cortex-a53-aarch64/libpv_cobra.so"},
		{"jetson part on 32-bit", "arm", "0xd07", "raspberry-pi/arm11/libpv_cobra.so"},
		{"arm11 on 64-bit", "arm64", "0xb76", "raspberry-pi/cortex-a53-aarch64/libpv_cobra.so"},
		{"beaglebone on 64-bit", "arm64", "0xc08", "raspberry-pi/cortex-a53-aarch64/libpv_cobra.so"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			got, err := Resolve(Host{
				OS:      "linux",
				Arch:    tt.arch,
				CPUInfo: cpuinfo(tt.part),
				Logger:  zerolog.New(&logs),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, logs.String(), `"level":"warn"`)
		})
	}
}

func TestResolveARMWithoutCPUPart(t *testing.T) {
	_, err := Resolve(Host{
		OS:      "linux",
		Arch:    "arm64",
		CPUInfo: func() ([]byte, error) { return []byte("processor\t: 0\nHardware\t: BCM2835\n"), nil },
		Logger:  zerolog.Nop(),
	})
	assert.ErrorIs(t, err, ErrUnknownCPU)
}

func TestResolveARMUnreadableCPUInfo(t *testing.T) {
	_, err := Resolve(Host{
		OS:      "linux",
		Arch:    "arm",
		CPUInfo: func() ([]byte, error) { return nil, errors.New("permission denied") },
		Logger:  zerolog.Nop(),
	})
	assert.ErrorIs(t, err, ErrUnknownCPU)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestCPUPartUsesFirstMatchingLine(t *testing.T) {
	info, _ := cpuinfo("0xD03")()
	part, ok := cpuPart(info)
	require.True(t, ok)
	assert.Equal(t, "0xd03", part)
}
