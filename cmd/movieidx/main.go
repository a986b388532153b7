// Package main provides the entry point for the movieidx CLI.
package main

import (
	"os"

	"github.com/kailas-cloud/movieidx/cmd/movieidx/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
