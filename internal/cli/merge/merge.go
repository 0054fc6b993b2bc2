package merge

import (
	"context"
	"fmt"
	"io"

	"prflow/internal/cli/paramutils"
	"prflow/internal/cli/utils"
	"prflow/internal/domain/pullrequest"
	"prflow/internal/gitutils"

	"github.com/gosuri/uilive"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func setUpFlags(cmd *cobra.Command) {
	cmd.Flags().String("strategy", "", "merge strategy - (merge, squash, rebase, ff-only) (default merge.strategy)")
	cmd.Flags().BoolP("force", "f", false, "merge without asking for confirmation")
	cmd.Flags().Bool("push", false, "push the checked out branch first when it is the source branch")
	cmd.Flags().Bool("delete-branch", false, "delete the source branch after merging")
	cmd.Flags().Duration("interval", pullrequest.DefaultInterval, "time between mergeability checks")
	cmd.Flags().Duration("timeout", pullrequest.DefaultTimeout, "how long to wait for the pull request to become mergeable")
	cmd.Flags().Bool("dry-run", false, "check the pull request without merging it")
}

var loadEnvironment = paramutils.LoadEnvironment

type pusher interface {
	Push(ctx context.Context, branch string, o *gitutils.PushOptions) error
}

// pushSource pushes branch when it is the source of the pull request.
func pushSource(ctx context.Context, g pusher, c pullrequest.Getter, id, branch string, dryRun bool) error {
	pr, err := c.Get(ctx, id)
	if err != nil {
		return err
	}

	if branch == "" || pr.Source != branch {
		log.Warn().
			Str("branch", branch).
			Str("source", pr.Source).
			Msg("checked out branch is not the source branch, not pushing")
		return nil
	}

	if dryRun {
		log.Info().Str("branch", branch).Msg("would push")
		return nil
	}

	return g.Push(ctx, branch, &gitutils.PushOptions{})
}

var confirm = utils.Confirm

func runCmd(cmd *cobra.Command, args []string) error {
	flags := &paramutils.PFlagSetWrapper{Flags: cmd.Flags()}
	env, err := loadEnvironment(flags)
	if err != nil {
		return err
	}

	cmdArgs := parseArgs(args)
	params := &cmdParams{}
	fillDefaultParams(env.Config, params)
	fillFlagParams(flags, params)
	err = validateParams(params)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	id, err := utils.ResolvePullRequestID(ctx, env.Client, cmdArgs.ID, env.Context.Branch, "Merge pull request")
	if err != nil {
		return err
	}

	if params.Push {
		err := pushSource(ctx, env.Git, env.Client, id, env.Context.Branch, params.DryRun)
		if err != nil {
			return err
		}
	}

	if !params.Force && !params.DryRun {
		ok, err := confirm(fmt.Sprintf("Merge pull request #%s (%s)?", id, params.Strategy), true)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
			return nil
		}
	}

	return execute(ctx, env.Client, id, params, cmd.OutOrStdout())
}

func progressObserver(w *uilive.Writer, id string) pullrequest.Observer {
	return pullrequest.ObserverFunc(func(t *pullrequest.Transition) {
		msg := fmt.Sprintf("#%s %s", id, t.To)
		if t.Check > 0 {
			msg += fmt.Sprintf(" (check %d)", t.Check)
		}
		if t.Err != nil {
			msg += ": " + t.Err.Error()
		}

		fmt.Fprintln(w, msg)
		_ = w.Flush()
	})
}

func report(out io.Writer, res *pullrequest.PollResult, params *cmdParams) {
	switch res.Outcome {
	case pullrequest.OutcomeDryRun:
		pr := res.PullRequest
		fmt.Fprintf(
			out,
			"Pull request #%s (%s -> %s) is %s, would merge with %s\n",
			pr.ID, pr.Source, pr.Destination, pr.Mergeable, params.Strategy,
		)
	case pullrequest.OutcomeMerged:
		pr := res.PullRequest
		if res.AlreadyMerged() {
			fmt.Fprintf(out, "Pull request #%s was already merged\n", pr.ID)
			return
		}
		fmt.Fprintf(out, "Merged pull request #%s: %s -> %s\n", pr.ID, pr.Source, pr.Destination)
		if res.BranchDeleted {
			fmt.Fprintf(out, "Deleted branch %s\n", pr.Source)
		}
	}
}

func execute(ctx context.Context, c pullrequest.MergeClient, id string, params *cmdParams, out io.Writer) error {
	writer := uilive.New()
	writer.Out = out

	poller := pullrequest.NewPoller(c, &pullrequest.PollerOptions{
		Interval: params.Interval,
		Timeout:  params.Timeout,
		Observer: progressObserver(writer, id),
	})
	res := poller.Run(ctx, &pullrequest.MergePlan{
		ID:           id,
		Strategy:     params.Strategy,
		Force:        params.Force,
		Push:         params.Push,
		DeleteBranch: params.DeleteBranch,
		DryRun:       params.DryRun,
	})

	report(out, res, params)

	return res.Err()
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [ID]",
		Short: "Merge pull request once it is mergeable",
		Long: `Waits until the pull request can be merged and merges it. Without an ID the
open pull request of the checked out branch is merged.`,
		Args: cobra.MaximumNArgs(1),
		RunE: utils.RunCommandWrapper(runCmd),
	}

	setUpFlags(cmd)

	return cmd
}
