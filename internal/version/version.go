// Package version carries the build identity that ends up in generated
// manifests (appVersion), in the sync client's user agent, and in CLI and
// server output. Release builds stamp the variables via ldflags; everything
// else falls back to Go module and VCS metadata.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const AppName = "QuillBox"

// Overridable at link time:
//
//	-ldflags "-X .../internal/version.Version=1.2.0 -X .../internal/version.Revision=<sha>"
var (
	Version   = "0.3.0-dev"
	Revision  = "HEAD"
	BuildDate = ""
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok && info != nil {
		fromBuildInfo(info)
	}
	if BuildDate == "" {
		BuildDate = time.Now().UTC().Format(time.RFC3339)
	}
}

// fromBuildInfo fills in whatever ldflags left at its default. Module version
// wins for releases installed via `go install`; VCS stamps cover dev builds.
func fromBuildInfo(info *debug.BuildInfo) {
	if Version == "0.3.0-dev" || Version == "" {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			Version = strings.TrimPrefix(v, "v")
		}
	}

	var revision, modified, vcsTime string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		case "vcs.time":
			vcsTime = s.Value
		}
	}
	if (Revision == "HEAD" || Revision == "") && revision != "" {
		if modified == "true" {
			revision += "-dirty"
		}
		Revision = revision
	}
	if BuildDate == "" {
		BuildDate = vcsTime
	}
}

// Short is the version and revision only, e.g. "0.3.0 (5e23a4)".
func Short() string {
	return fmt.Sprintf("%s (%s)", Version, Revision)
}

// Detailed adds toolchain, platform and build date,
// e.g. "0.3.0 (5e23a4; go1.23.6; linux/amd64; 2026-08-30T00:00:00Z)".
func Detailed() string {
	return fmt.Sprintf("%s (%s; %s; %s/%s; %s)", Version, Revision, runtime.Version(), runtime.GOOS, runtime.GOARCH, BuildDate)
}

// DetailedWithApp prefixes Detailed with the application name.
func DetailedWithApp() string {
	return AppName + " " + Detailed()
}

// UserAgent identifies this client on the wire, e.g. "QuillBox/0.3.0".
func UserAgent() string {
	return AppName + "/" + Version
}
