package main

import (
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/teemow/gdrive-mcp/cmd"
)

// version will be set by goreleaser during build
var version = "dev"

func main() {
	// Silent, stdout carries the stdio transport
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	cmd.SetVersion(version)
	cmd.Execute()
}
