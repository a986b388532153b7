package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	domidx "github.com/kailas-cloud/movieidx/internal/domain/textindex"
	textindexuc "github.com/kailas-cloud/movieidx/internal/usecase/textindex"
)

const defaultHistoryLimit = 20

// newShowCmd prints the desired definition. It needs no database.
func newShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the desired index definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			idx, err := desiredIndex(cfg.Index)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), idx)
		},
	}
}

func newPlanCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Compare the live index with the desired definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(a *app) error {
				plan, err := a.index.Plan(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), plan)
			})
		},
	}
}

func newApplyCmd(flags *globalFlags) *cobra.Command {
	var opts textindexuc.ApplyOptions

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create the index, or do nothing when it is already up to date",
		Long: `Create the weighted text index over the movie catalog.

An identical live index is left untouched. A live index with different
fields, weights or language options is reported as a conflict unless
--replace is given, in which case it is dropped and recreated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(a *app) error {
				res, err := a.index.Apply(cmd.Context(), opts)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "Drop and recreate a drifted index")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the plan without changing anything")

	return cmd
}

func newVerifyCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the live index against the desired definition",
		Long:  "Print the fidelity report. Exits with code 2 when the index is missing or drifted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(a *app) error {
				rep, err := a.index.Verify(cmd.Context())
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), rep); err != nil {
					return err
				}
				return verifyResult(rep)
			})
		},
	}
}

// verifyResult turns a report that is not in sync into ExitDrift.
func verifyResult(rep textindexuc.Report) error {
	switch {
	case !rep.Exists:
		return &exitError{code: ExitDrift, msg: fmt.Sprintf("index %s does not exist", rep.Index)}
	case !rep.InSync:
		return &exitError{
			code: ExitDrift,
			msg:  fmt.Sprintf("index %s drifted: %s", rep.Index, strings.Join(domidx.DriftStrings(rep.Drift), "; ")),
		}
	}
	return nil
}

func newDropCmd(flags *globalFlags) *cobra.Command {
	var opts textindexuc.DropOptions

	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop the live index",
		Long: `Drop the live index.

A text index under a different name is left alone unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(a *app) error {
				res, err := a.index.Drop(cmd.Context(), opts)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.IfExists, "if-exists", false, "Succeed when there is no index to drop")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Drop a text index even when its name differs")

	return cmd
}

func newProbeCmd(flags *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "probe <query>",
		Short: "Run a ranked text query through the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withApp(cmd.Context(), flags, func(a *app) error {
				res, err := a.index.Probe(cmd.Context(), query, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", textindexuc.DefaultProbeLimit, "Maximum number of hits")

	return cmd
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded index changes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(a *app) error {
				entries, err := a.index.History(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), entries)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultHistoryLimit, "Maximum number of entries (0 for all)")

	return cmd
}
