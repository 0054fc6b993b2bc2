package rebase

import (
	"context"
	"io"

	"prflow/internal/cli/paramutils"
	synccmd "prflow/internal/cli/sync"
	"prflow/internal/cli/utils"
	"prflow/internal/domain/branch"
	"prflow/internal/gitutils"

	"github.com/spf13/cobra"
)

var loadGit = paramutils.LoadGit

type cmdParams struct {
	Target string
	NoPush bool
	DryRun bool
	Stash  bool
}

func fillFlagParams(flags paramutils.FlagRepo, params *cmdParams) {
	params.NoPush = flags.GetBoolOrDefault("no-push", params.NoPush)
	params.DryRun = flags.GetBoolOrDefault("dry-run", params.DryRun)
	params.Stash = flags.GetBoolOrDefault("stash", params.Stash)
}

func runCmd(cmd *cobra.Command, args []string) error {
	flags := &paramutils.PFlagSetWrapper{Flags: cmd.Flags()}

	params := &cmdParams{Target: paramutils.ParseIDArg(args)}
	fillFlagParams(flags, params)

	g, err := loadGit()
	if err != nil {
		return err
	}

	return execute(cmd.Context(), g, params, cmd.OutOrStdout())
}

func execute(ctx context.Context, g gitutils.Git, params *cmdParams, out io.Writer) error {
	res, err := branch.NewEngine(g, nil).Rebase(ctx, &branch.SyncRequest{
		Target:    params.Target,
		NoPush:    params.NoPush,
		DryRun:    params.DryRun,
		AutoStash: params.Stash,
	})
	if err != nil {
		return err
	}

	synccmd.Report(out, res)

	return nil
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebase <branch>",
		Short: "Rebase the checked out branch onto another branch",
		Long: `Fetches the branch, rebases the checked out branch onto it and force pushes
the result with lease.`,
		Args: cobra.ExactArgs(1),
		RunE: utils.RunCommandWrapper(runCmd),
	}

	cmd.Flags().Bool("no-push", false, "do not push the result")
	cmd.Flags().Bool("dry-run", false, "show what would be done")
	cmd.Flags().Bool("stash", false, "stash local changes and restore them afterwards")

	return cmd
}
