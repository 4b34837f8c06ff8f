// Package main is the entry point for the hdcluster CLI.
//
// hdcluster launches and manages Hadoop clusters on Amazon EC2 or Hetzner
// Cloud. Cluster membership is tracked with security groups, persistent
// storage with a per-cluster volume manifest.
//
// For detailed usage information, run:
//
//	hdcluster --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/hdcluster/cmd/hdcluster/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
