package summarize

import (
	"context"
	"fmt"
	"io"

	"prflow/internal/cli/paramutils"
	"prflow/internal/cli/utils"
	"prflow/internal/domain/summary"

	"github.com/spf13/cobra"
)

var loadEnvironment = paramutils.LoadEnvironment

type summarizer interface {
	Summarize(ctx context.Context, id string) (*summary.Summary, error)
}

var newSummarizer = func(env *paramutils.Environment) (summarizer, error) {
	l, err := env.Factory.DefaultLLM()
	if err != nil {
		return nil, err
	}

	return summary.NewRequester(env.Client, env.Git, l).
		WithTemplate(env.Config.GetString("llm.template")), nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	flags := &paramutils.PFlagSetWrapper{Flags: cmd.Flags()}
	env, err := loadEnvironment(flags)
	if err != nil {
		return err
	}

	s, err := newSummarizer(env)
	if err != nil {
		return err
	}

	id, err := utils.ResolvePullRequestID(
		cmd.Context(),
		env.Client,
		paramutils.ParseIDArg(args),
		env.Context.Branch,
		"Summarize pull request",
	)
	if err != nil {
		return err
	}

	return execute(cmd.Context(), s, id, cmd.OutOrStdout())
}

func execute(ctx context.Context, s summarizer, id string, out io.Writer) error {
	res, err := s.Summarize(ctx, id)
	if err != nil {
		return err
	}

	if res.PullRequest != nil {
		fmt.Fprintln(out, utils.TitleStyle.Render(fmt.Sprintf("#%s %s", res.PullRequest.ID, res.PullRequest.Title)))
	}
	for _, f := range res.Files {
		fmt.Fprintf(out, "  %s\n", f)
	}
	if res.Truncated {
		fmt.Fprintln(out, "  (diff was truncated for the summary)")
	}
	fmt.Fprintf(out, "\n%s\n", res.Text)

	return nil
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize [ID]",
		Short: "Summarize pull request changes",
		Long:  `Asks the configured language model for a summary of the changes of a pull request`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  utils.RunCommandWrapper(runCmd),
	}

	return cmd
}
