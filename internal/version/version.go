// Package version carries the build metadata that cmd/eventsite injects
// via ldflags and the status endpoint reports.
package version

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit string // Short git commit hash (e.g., "abc1234")
	BuildTime string // Build timestamp in RFC3339 format
}

// String renders the info in the form the -version flag prints.
func (i Info) String() string {
	return i.Version + " (commit: " + i.GitCommit + ", built: " + i.BuildTime + ")"
}
