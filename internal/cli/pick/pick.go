package pick

import (
	"context"
	"fmt"
	"io"

	"prflow/internal/cli/paramutils"
	"prflow/internal/cli/utils"
	"prflow/internal/domain/branch"
	"prflow/internal/errcodes"

	"github.com/spf13/cobra"
)

var loadEnvironment = paramutils.LoadEnvironment

type cmdParams struct {
	From   string
	To     string
	DryRun bool
	Stash  bool
}

func parseArgs(args []string, params *cmdParams) error {
	if len(args) != 2 {
		return errcodes.ErrMissingBranch
	}

	params.From = args[0]
	params.To = args[1]

	return nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	flags := &paramutils.PFlagSetWrapper{Flags: cmd.Flags()}

	params := &cmdParams{}
	err := parseArgs(args, params)
	if err != nil {
		return err
	}
	params.DryRun = flags.GetBoolOrDefault("dry-run", false)
	params.Stash = flags.GetBoolOrDefault("stash", false)

	env, err := loadEnvironment(flags)
	if err != nil {
		return err
	}

	return execute(cmd.Context(), branch.NewEngine(env.Git, env.Client), params, cmd.OutOrStdout())
}

type picker interface {
	Pick(ctx context.Context, r *branch.PickRequest) (*branch.PickResult, error)
}

func execute(ctx context.Context, p picker, params *cmdParams, out io.Writer) error {
	res, err := p.Pick(ctx, &branch.PickRequest{
		From:      params.From,
		To:        params.To,
		DryRun:    params.DryRun,
		AutoStash: params.Stash,
	})
	if err != nil {
		return err
	}

	if len(res.Commits) == 0 {
		fmt.Fprintf(out, "Nothing to pick, %s has every commit of %s\n", params.To, params.From)
		return nil
	}

	if res.BaseBranch != "" {
		fmt.Fprintf(out, "%s was cut from %s, leaving its commits out\n", params.From, res.BaseBranch)
	}

	verb := "Picked"
	if params.DryRun {
		verb = "Would pick"
	}
	fmt.Fprintf(out, "%s %d commits onto %s:\n", verb, len(res.Commits), res.Branch)
	for _, c := range res.Commits {
		fmt.Fprintf(out, "  %s\n", c)
	}

	if res.PullRequest != nil {
		fmt.Fprintf(out, "Created a pull request: %s -> %s\n", res.PullRequest.Source, res.PullRequest.Destination)
		fmt.Fprintln(out, "  ", res.PullRequest.URL)
	}

	return nil
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pick <from> <to>",
		Short: "Pick the commits of one branch onto another",
		Long: `Cherry-picks the commits of <from> that <to> does not have onto a new branch
created from <to>, pushes it and opens a pull request into <to>.`,
		Args: cobra.ExactArgs(2),
		RunE: utils.RunCommandWrapper(runCmd),
	}

	cmd.Flags().Bool("dry-run", false, "list the commits without picking them")
	cmd.Flags().Bool("stash", false, "stash local changes and restore them afterwards")

	return cmd
}
