package gpio

import (
	"os"
	"runtime"
	"strings"
)

// BoardModel identifies the host board for status display. It prefers the
// device-tree model string and falls back to matching the SoC part number
// from /proc/cpuinfo.
func BoardModel() string {
	if b, err := os.ReadFile("/proc/device-tree/model"); err == nil {
		if m := strings.TrimRight(string(b), "\x00\n "); m != "" {
			return m
		}
	}
	if b, err := os.ReadFile("/proc/cpuinfo"); err == nil {
		info := string(b)
		switch {
		case strings.Contains(info, "BCM2712"):
			return "Raspberry Pi 5"
		case strings.Contains(info, "BCM2711"):
			return "Raspberry Pi 4"
		case strings.Contains(info, "BCM"):
			return "Raspberry Pi (older model)"
		}
	}
	if runtime.GOOS == "darwin" {
		return "macOS (simulation)"
	}
	return "non-Pi system"
}
