// Package platform reports the read-only host capabilities consumed when the
// default serializer configuration is constructed.
//
// Detection runs once per process through Current. Individual probes that fail
// never surface as errors: the probe is recorded in Capabilities.Failures and
// a conservative value is used instead.
package platform

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// StrictModeEnv toggles strict mode for the process when set to a boolean.
const StrictModeEnv = "JSCONFIG_STRICT_MODE"

// Capabilities is the detected host environment.
type Capabilities struct {
	StrictMode bool

	OS        string
	Arch      string
	Compiler  string
	GoVersion string

	IsUnix    bool
	IsLinux   bool
	IsDarwin  bool
	IsWindows bool
	Container bool

	// SupportsThreadAffinity is false on hosts without OS threads (js/wasm),
	// where goroutine pinning has no meaning.
	SupportsThreadAffinity bool

	Failures []DetectionError
}

// DetectionError records a probe that could not determine its flag.
type DetectionError struct {
	Flag string
	Err  error
}

func (e DetectionError) Error() string {
	return fmt.Sprintf("platform: detect %s: %v", e.Flag, e.Err)
}

func (e DetectionError) Unwrap() error { return e.Err }

// Detector holds the probes used by Detect. Zero-valued fields fall back to
// the os package.
type Detector struct {
	LookupEnv func(string) (string, bool)
	ReadFile  func(string) ([]byte, error)
	Stat      func(string) (os.FileInfo, error)
	GOOS      string
	GOARCH    string
}

// Detect probes the host using the os package.
func Detect() Capabilities {
	return Detector{}.Detect()
}

// Detect probes the host.
func (d Detector) Detect() Capabilities {
	d = d.withDefaults()
	caps := Capabilities{
		OS:        d.GOOS,
		Arch:      d.GOARCH,
		Compiler:  runtime.Compiler,
		GoVersion: runtime.Version(),
	}
	switch d.GOOS {
	case "linux":
		caps.IsLinux, caps.IsUnix = true, true
	case "darwin":
		caps.IsDarwin, caps.IsUnix = true, true
	case "windows":
		caps.IsWindows = true
	case "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos", "aix":
		caps.IsUnix = true
	}
	caps.SupportsThreadAffinity = d.GOOS != "js" && d.GOOS != "wasip1"

	if raw, ok := d.LookupEnv(StrictModeEnv); ok {
		strict, err := parseFlag(raw)
		if err != nil {
			caps.Failures = append(caps.Failures, DetectionError{Flag: "strict_mode", Err: err})
		} else {
			caps.StrictMode = strict
		}
	}

	if caps.IsLinux {
		container, err := d.detectContainer()
		if err != nil {
			caps.Failures = append(caps.Failures, DetectionError{Flag: "container", Err: err})
		}
		caps.Container = container
	}
	return caps
}

func (d Detector) detectContainer() (bool, error) {
	if _, err := d.Stat("/.dockerenv"); err == nil {
		return true, nil
	}
	data, err := d.ReadFile("/proc/1/cgroup")
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	content := string(data)
	for _, marker := range []string{"docker", "kubepods", "containerd", "lxc"} {
		if strings.Contains(content, marker) {
			return true, nil
		}
	}
	return false, nil
}

func (d Detector) withDefaults() Detector {
	if d.LookupEnv == nil {
		d.LookupEnv = os.LookupEnv
	}
	if d.ReadFile == nil {
		d.ReadFile = os.ReadFile
	}
	if d.Stat == nil {
		d.Stat = os.Stat
	}
	if d.GOOS == "" {
		d.GOOS = runtime.GOOS
	}
	if d.GOARCH == "" {
		d.GOARCH = runtime.GOARCH
	}
	return d
}

func parseFlag(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "yes", "y":
		return true, nil
	case "off", "no", "n", "":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(raw))
}

var (
	currentOnce sync.Once
	current     Capabilities
)

// Current returns the process capabilities, detecting them on first use.
func Current() Capabilities {
	currentOnce.Do(func() {
		current = Detect()
	})
	return current
}
