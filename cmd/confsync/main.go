// Command confsync syncs report and workflow configuration between
// deployments of the business application over its REST API.
package main

import "github.com/stackmill/confsync/cmd/confsync/cmd"

// Build information, set via -ldflags at release time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
