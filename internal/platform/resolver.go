// Package platform picks the Cobra library artifact built for the running
// operating system, architecture and, on ARM Linux, CPU model.
package platform

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const libraryName = "libpv_cobra"

var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrUnknownCPU          = errors.New("unable to determine CPU model")
)

// Host describes the machine an artifact is resolved for.
type Host struct {
	OS   string
	Arch string

	// CPUInfo returns the contents of /proc/cpuinfo. Only consulted on ARM
	// Linux.
	CPUInfo func() ([]byte, error)

	Logger zerolog.Logger
}

// Current describes the running process.
func Current() Host {
	return Host{
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
		CPUInfo: func() ([]byte, error) { return os.ReadFile("/proc/cpuinfo") },
		Logger:  log.Logger,
	}
}

// Resolve returns the artifact path for h, relative to a library directory
// and always slash separated.
func Resolve(h Host) (string, error) {
	switch h.OS + "/" + h.Arch {
	case "darwin/amd64":
		return "mac/x86_64/" + libraryName + ".dylib", nil
	case "darwin/arm64":
		return "mac/arm64/" + libraryName + ".dylib", nil
	case "windows/amd64":
		return "windows/amd64/" + libraryName + ".dll", nil
	case "linux/amd64":
		return "linux/x86_64/" + libraryName + ".so", nil
	case "linux/arm", "linux/arm64":
		return resolveARM(h)
	}
	return "", fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, h.OS, h.Arch)
}

// cpuParts maps the "CPU part" field of /proc/cpuinfo to a machine name.
var cpuParts = map[string]string{
	"0xb76": "arm11",
	"0xc07": "cortex-a7",
	"0xd03": "cortex-a53",
	"0xd07": "cortex-a57",
	"0xd08": "cortex-a72",
	"0xd0b": "cortex-a76",
	"0xc08": "beaglebone",
}

// boards lists the machines each board family ships builds for.
var boards = []struct {
	dir      string
	machines []string
}{
	{"raspberry-pi", []string{
		"arm11", "cortex-a7", "cortex-a53", "cortex-a72", "cortex-a76",
		"cortex-a53-aarch64", "cortex-a72-aarch64", "cortex-a76-aarch64",
	}},
	{"jetson", []string{"cortex-a57-aarch64"}},
	{"beaglebone", []string{"beaglebone"}},
}

func resolveARM(h Host) (string, error) {
	if h.CPUInfo == nil {
		return "", ErrUnknownCPU
	}
	info, err := h.CPUInfo()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnknownCPU, err)
	}
	part, ok := cpuPart(info)
	if !ok {
		return "", ErrUnknownCPU
	}

	is64 := h.Arch == "arm64"
	machine, known := cpuParts[part]
	if known && is64 {
		machine += "-aarch64"
	}

	if known {
		for _, b := range boards {
			for _, m := range b.machines {
				if m != machine {
					continue
				}
				if b.dir == "beaglebone" {
					return path.Join(b.dir, libraryName+".so"), nil
				}
				return path.Join(b.dir, machine, libraryName+".so"), nil
			}
		}
	}

	fallback := "arm11"
	if is64 {
		fallback = "cortex-a53-aarch64"
	}
	h.Logger.Warn().
		Str("cpu_part", part).
		Str("machine", machine).
		Str("fallback", fallback).
		Msg("Unsupported CPU, falling back to the most compatible Raspberry Pi build")
	return path.Join("raspberry-pi", fallback, libraryName+".so"), nil
}

// cpuPart returns the lowercased last token of the first "CPU part" line.
func cpuPart(info []byte) (string, bool) {
	sc := bufio.NewScanner(bytes.NewReader(info))
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, "CPU part") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return "", false
		}
		return strings.ToLower(fields[len(fields)-1]), true
	}
	return "", false
}

// LibraryDir returns the default directory holding the per-platform library
// tree: lib/ beside the executable if present, otherwise lib/ under the
// working directory.
func LibraryDir() string {
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Join(filepath.Dir(exe), "lib")
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return dir
		}
	}
	return "lib"
}
