package reword

import (
	"context"
	"fmt"
	"io"

	"prflow/internal/cli/paramutils"
	"prflow/internal/cli/utils"
	"prflow/internal/domain/pullrequest"
	"prflow/internal/domain/summary"

	"github.com/spf13/cobra"
)

var (
	loadEnvironment = paramutils.LoadEnvironment
	confirm         = utils.Confirm
)

type rewordGenerator interface {
	Reword(ctx context.Context, id string) (*summary.Rewording, error)
}

var newRewordGenerator = func(env *paramutils.Environment) (rewordGenerator, error) {
	l, err := env.Factory.DefaultLLM()
	if err != nil {
		return nil, err
	}

	return summary.NewRequester(env.Client, env.Git, l), nil
}

func runCmd(cmd *cobra.Command, args []string) error {
	flags := &paramutils.PFlagSetWrapper{Flags: cmd.Flags()}
	env, err := loadEnvironment(flags)
	if err != nil {
		return err
	}

	params := &cmdParams{}
	fillFlagParams(flags, params)

	gen, err := newRewordGenerator(env)
	if err != nil {
		return err
	}

	id, err := utils.ResolvePullRequestID(
		cmd.Context(),
		env.Client,
		paramutils.ParseIDArg(args),
		env.Context.Branch,
		"Reword pull request",
	)
	if err != nil {
		return err
	}

	return execute(cmd.Context(), gen, env.Client, id, params, cmd.OutOrStdout())
}

func confirmMessage(id string, params *cmdParams, title string) string {
	switch {
	case params.updatesTitle() && params.updatesBody():
		return fmt.Sprintf("Update pull request #%s with the generated title and description?", id)
	case params.updatesTitle():
		return fmt.Sprintf("Update the title of pull request #%s to %q?", id, title)
	}

	return fmt.Sprintf("Update the description of pull request #%s?", id)
}

func orEmpty(s string) string {
	if s == "" {
		return "(empty)"
	}

	return s
}

func execute(
	ctx context.Context,
	gen rewordGenerator,
	u pullrequest.Updater,
	id string,
	params *cmdParams,
	out io.Writer,
) error {
	res, err := gen.Reword(ctx, id)
	if err != nil {
		return err
	}
	current := res.PullRequest

	if params.updatesTitle() {
		fmt.Fprintln(out, utils.TitleStyle.Render("Title"))
		fmt.Fprintf(out, "  current: %s\n  new:     %s\n", orEmpty(current.Title), res.Title)
	}
	if params.updatesBody() {
		fmt.Fprintln(out, utils.TitleStyle.Render("Description"))
		fmt.Fprintf(out, "  current: %s\n  new:     %s\n", orEmpty(current.Body), orEmpty(res.Description))
	}

	service := pullrequest.NewUpdateService(u)
	o := params.updateOptions(res)

	if params.DryRun {
		if _, err := service.Update(ctx, current, o, true); err != nil {
			return err
		}
		fmt.Fprintf(out, "Dry run, pull request #%s was not updated\n", id)
		return nil
	}

	if !params.Force {
		ok, err := confirm(confirmMessage(id, params, res.Title), true)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborted")
			return nil
		}
	}

	pr, err := service.Update(ctx, current, o, false)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Updated pull request #%s\n", id)
	url := pr.URL
	if url == "" {
		url = current.URL
	}
	if url != "" {
		fmt.Fprintln(out, "  ", url)
	}

	return nil
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reword [ID]",
		Aliases: []string{"rw"},
		Short:   "Rewrite the title and description of a pull request",
		Long: `Asks the configured language model for a new title and description based on
the changes of a pull request and updates it after confirmation.`,
		Args: cobra.MaximumNArgs(1),
		RunE: utils.RunCommandWrapper(runCmd),
	}

	cmd.Flags().Bool("title", false, "only rewrite the title")
	cmd.Flags().Bool("description", false, "only rewrite the description")
	cmd.Flags().Bool("dry-run", false, "show the generated text without updating")
	cmd.Flags().BoolP("force", "f", false, "do not ask for confirmation")

	return cmd
}
