// Package device describes the machine and application an SDK runs in.
package device

import (
	"os"
	"runtime"
	"strings"

	"golang.org/x/text/language"
)

// Context is the device and build information attached to every event.
type Context struct {
	IsDebug        bool
	Locale         string
	OSName         string
	OSVersion      string
	AppVersion     string
	AppBuildNumber string
	DeviceModel    string
}

// Provider supplies the device context. Implementations must be safe for
// concurrent use.
type Provider interface {
	DeviceContext() Context
}

// Static is a Provider that always returns the same Context.
type Static Context

func (s Static) DeviceContext() Context {
	return Context(s)
}

// App identifies the host application.
type App struct {
	Version     string
	BuildNumber string
	Debug       bool
}

// Detect inspects the running process once and returns the result as a
// Static provider.
func Detect(app App) Static {
	osVersion, model := platformInfo()
	return Static{
		IsDebug:        app.Debug,
		Locale:         Locale(),
		OSName:         osName(runtime.GOOS),
		OSVersion:      osVersion,
		AppVersion:     app.Version,
		AppBuildNumber: app.BuildNumber,
		DeviceModel:    model,
	}
}

func osName(goos string) string {
	switch goos {
	case "darwin":
		return "macOS"
	case "ios":
		return "iOS"
	case "linux":
		return "Linux"
	case "android":
		return "Android"
	case "windows":
		return "Windows"
	case "freebsd":
		return "FreeBSD"
	default:
		return goos
	}
}

var localeEnv = []string{"LC_ALL", "LC_MESSAGES", "LANG"}

// Locale returns the base language code of the process locale, e.g. "en"
// for LANG=en_US.UTF-8, or "" when none is set.
func Locale() string {
	for _, key := range localeEnv {
		if l := ParseLocale(os.Getenv(key)); l != "" {
			return l
		}
	}
	return ""
}

// ParseLocale normalises a POSIX locale string to its base language code.
// The C and POSIX locales have no language and yield "".
func ParseLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexAny(raw, ".@"); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" || raw == "C" || raw == "POSIX" {
		return ""
	}

	tag, err := language.Parse(strings.ReplaceAll(raw, "_", "-"))
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	return base.String()
}
