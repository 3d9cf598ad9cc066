package main

import (
	"os"

	"quickResume/internal/delivery/cli"
)

// Set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	cli.Version = version
	cli.Commit = commit

	os.Exit(cli.Execute())
}
