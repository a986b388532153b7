// Package cmd provides the CLI commands for movieidx.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/movieidx/internal/config"
	"github.com/kailas-cloud/movieidx/internal/version"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	// ExitDrift is returned by verify when the live index differs from the desired one.
	ExitDrift = 2
)

// exitError carries a specific process exit code.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	env        string
	configPath string
}

// NewRootCmd creates the root command for the movieidx CLI.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "movieidx",
		Short: "Manage the weighted text index of the movie catalog",
		Long: `movieidx applies, verifies and inspects the weighted text index over the
movie catalog (title 10, genres 5, description 3, cast.name 3,
director.name 2, writer.name 2, production_company 1).

Re-applying an identical index is a no-op.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("movieidx version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&flags.env, "env", config.GetEnv(), "Environment name (selects config/<env>.yaml and log format)")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Explicit config file (overrides --env lookup)")

	cmd.AddCommand(newShowCmd(flags))
	cmd.AddCommand(newPlanCmd(flags))
	cmd.AddCommand(newApplyCmd(flags))
	cmd.AddCommand(newVerifyCmd(flags))
	cmd.AddCommand(newDropCmd(flags))
	cmd.AddCommand(newProbeCmd(flags))
	cmd.AddCommand(newHistoryCmd(flags))
	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	err := root.Execute()
	if err == nil {
		return ExitOK
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return exitCode(err)
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitError
}

// loadConfig reads --config when given, else config/<env>.yaml.
func (f *globalFlags) loadConfig() (config.Config, error) {
	if f.configPath != "" {
		return config.LoadFile(f.configPath)
	}
	return config.Load(f.env)
}
