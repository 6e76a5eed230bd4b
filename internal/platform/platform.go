// Package platform classifies the runtime environment the notifier runs in.
//
// The binary may run unmodified inside or outside a WSL2 container, so WSL2
// is detected at runtime rather than at compile time.
package platform

import (
	"os"
	"runtime"
	"strings"
)

// Target is the closed set of environments the dispatcher branches on.
type Target int

const (
	MacOS Target = iota
	LinuxNative
	LinuxWSL2
	Windows
)

func (t Target) String() string {
	switch t {
	case MacOS:
		return "macos"
	case LinuxNative:
		return "linux"
	case LinuxWSL2:
		return "wsl2"
	case Windows:
		return "windows"
	default:
		return "unknown"
	}
}

// ForeignShell reports whether notifications on this target go through a
// Windows shell (and therefore need path translation for absolute paths).
func (t Target) ForeignShell() bool {
	return t == Windows || t == LinuxWSL2
}

// Detect classifies the current process environment.
func Detect() Target {
	return Classify(runtime.GOOS, IsWSL2)
}

// Classify is the pure classification core, split out so tests can drive it
// with arbitrary GOOS values and probe outcomes.
//
// Exactly one of the four targets is returned. An inconclusive WSL probe
// means native Linux; a GOOS outside the three supported families is
// treated as LinuxNative, the closest behavioral match (BSDs and friends).
func Classify(goos string, wslProbe func() bool) Target {
	switch goos {
	case "darwin":
		return MacOS
	case "windows":
		return Windows
	case "linux":
		if wslProbe != nil && wslProbe() {
			return LinuxWSL2
		}
		return LinuxNative
	default:
		return LinuxNative
	}
}

// IsWSL2 probes /proc for the Microsoft kernel signature. Any read error is
// treated as "not WSL" (the probe is best-effort and pure).
func IsWSL2() bool {
	for _, p := range []string{"/proc/sys/kernel/osrelease", "/proc/version"} {
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		s := strings.ToLower(string(b))
		if strings.Contains(s, "microsoft") || strings.Contains(s, "wsl2") {
			return true
		}
	}
	return false
}
