package sync

import (
	"context"
	"fmt"
	"io"

	"prflow/internal/cli/paramutils"
	"prflow/internal/cli/utils"
	"prflow/internal/domain/branch"
	"prflow/internal/gitutils"

	"github.com/spf13/cobra"
)

var loadGit = paramutils.LoadGit

func runCmd(cmd *cobra.Command, args []string) error {
	flags := &paramutils.PFlagSetWrapper{Flags: cmd.Flags()}

	params := &cmdParams{Target: paramutils.ParseIDArg(args)}
	err := fillFlagParams(flags, params)
	if err != nil {
		return err
	}

	g, err := loadGit()
	if err != nil {
		return err
	}

	return execute(cmd.Context(), g, params, cmd.OutOrStdout())
}

func execute(ctx context.Context, g gitutils.Git, params *cmdParams, out io.Writer) error {
	res, err := branch.NewEngine(g, nil).Sync(ctx, &branch.SyncRequest{
		Target:    params.Target,
		Strategy:  params.Strategy,
		NoPush:    params.NoPush,
		DryRun:    params.DryRun,
		AutoStash: params.Stash,
	})
	if err != nil {
		return err
	}

	Report(out, res)

	return nil
}

// Report prints the outcome of a sync.
func Report(out io.Writer, res *branch.SyncResult) {
	if res.DryRun {
		fmt.Fprintf(out, "Would %s %s into %s\n", res.Strategy, res.Ref, res.Branch)
		return
	}
	if res.UpToDate {
		fmt.Fprintf(out, "%s is already up to date with %s\n", res.Branch, res.Ref)
		return
	}

	fmt.Fprintf(out, "Synced %s with %s (%s)\n", res.Branch, res.Ref, res.Strategy)
	if res.Pushed {
		fmt.Fprintf(out, "Pushed %s\n", res.Branch)
	}
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <branch>",
		Short: "Bring another branch into the checked out branch",
		Long: `Fetches the branch, merges it into the checked out branch and pushes the
result. Conflicts are left in the working tree for you to resolve.`,
		Args: cobra.ExactArgs(1),
		RunE: utils.RunCommandWrapper(runCmd),
	}

	cmd.Flags().Bool("rebase", false, "rebase onto the branch instead of merging it")
	cmd.Flags().Bool("squash", false, "squash the branch into one commit")
	cmd.Flags().Bool("ff-only", false, "only fast-forward")
	cmd.Flags().Bool("no-push", false, "do not push the result")
	cmd.Flags().Bool("dry-run", false, "show what would be done")
	cmd.Flags().Bool("stash", false, "stash local changes and restore them afterwards")

	return cmd
}
