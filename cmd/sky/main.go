// Package main is the entry point for the sky CLI.
//
// sky is a command-line tool for provisioning AWS network environments:
// a VPC with an internet gateway, route tables and evenly partitioned
// subnets across availability zones, optionally with one EC2 instance
// per subnet. It is stateless: every run re-derives the current state
// from the provider.
//
// Commands: init, network, up, version.
//
// For detailed usage information, run:
//
//	sky --help
package main

import (
	"fmt"
	"os"

	"github.com/asmotherman/sky/cmd/sky/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
