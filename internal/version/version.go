// Package version holds build information set through ldflags:
//
//	go build -ldflags "-X github.com/ironsheep/sprite-avatar-mcp/internal/version.Version=v1.2.0"
package version

import "fmt"

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the build information for --version output.
func String(program string) string {
	return fmt.Sprintf("%s %s\n  Build time: %s\n  Git commit: %s\n", program, Version, BuildTime, GitCommit)
}
