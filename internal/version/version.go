// Package version reports build information.
package version

import (
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/dalemusser/contactform/httputil"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/dalemusser/contactform/internal/version.Version=1.0.0 \
//	                   -X github.com/dalemusser/contactform/internal/version.Commit=abc123 \
//	                   -X github.com/dalemusser/contactform/internal/version.BuildTime=2026-01-15T10:30:00Z"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the /version body.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Get returns build info. Commit and BuildTime fall back to the VCS stamp
// embedded by the go tool when ldflags did not set them.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.Commit == "unknown":
				info.Commit = s.Value
			case s.Key == "vcs.time" && info.BuildTime == "unknown":
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

// String is the one-line form used in the startup log.
func String() string {
	i := Get()
	if i.Version == "dev" && i.Commit == "unknown" {
		return "dev"
	}
	return i.Version + " (" + i.Commit + ", built " + i.BuildTime + ")"
}

// Handler answers with Get() as JSON.
func Handler() http.Handler {
	info := Get()
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, info, nil)
	})
}
