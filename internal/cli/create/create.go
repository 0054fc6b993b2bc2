package cmdcreate

import (
	"context"
	"fmt"
	"io"

	"prflow/internal/cli/paramutils"
	"prflow/internal/cli/utils"
	"prflow/internal/domain/pullrequest"
	"prflow/internal/domain/summary"
	"prflow/internal/pkg/client"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func setUpFlags(cmd *cobra.Command) {
	cmd.Flags().
		StringP("target", "d", "", "target branch of your pull request (default closest of default.targets)")
	cmd.Flags().
		StringP("source", "s", "", "source branch of your pull request (default checked out branch)")
	cmd.Flags().
		StringP("title", "t", "", "the title of the pull request (default last commit message)")
	cmd.Flags().StringP("body", "b", "", "the body of the pull request")
	cmd.Flags().Bool("ai-body", false, "write the body from a summary of the branch diff")
	cmd.Flags().
		BoolP("interactive", "i", false, "confirm every field before creating the pull request")
	cmd.Flags().Bool("draft", false, "mark the pull request as draft")
	cmd.Flags().Bool("dry-run", false, "show the pull request without creating it")
}

var loadEnvironment = paramutils.LoadEnvironment

type describer interface {
	Describe(ctx context.Context, title, base, head string) (string, error)
}

var newDescriber = func(env *paramutils.Environment) (describer, error) {
	l, err := env.Factory.DefaultLLM()
	if err != nil {
		return nil, err
	}

	return summary.NewRequester(env.Client, env.Git, l).
		WithTemplate(env.Config.GetString("llm.template")), nil
}

// describe fills the body from the local diff. Failures leave the body as it
// is.
func describe(ctx context.Context, d describer, params *createCmdParams) {
	body, err := d.Describe(ctx, params.Title, "origin/"+params.Destination, params.Source)
	if err != nil {
		log.Warn().Err(err).Msg("could not write the body, creating the pull request without it")
		return
	}

	params.Body = body
}

func runCmd(cmd *cobra.Command, args []string) error {
	flags := &paramutils.PFlagSetWrapper{Flags: cmd.Flags()}
	env, err := loadEnvironment(flags)
	if err != nil {
		return err
	}

	params := &createCmdParams{}
	fillDefaultParams(env.Context, env.Config.GetStringSlice("default.targets"), params)
	fillFlagParams(flags, params)

	if params.Interactive {
		err := fillInteractiveParams(params)
		if err != nil {
			return err
		}
	}

	err = params.Validate()
	if err != nil {
		return err
	}

	if params.AIBody {
		d, err := newDescriber(env)
		if err != nil {
			log.Warn().Err(err).Msg("summaries are not configured, creating the pull request without a body")
		} else {
			describe(cmd.Context(), d, params)
		}
	}

	return execute(cmd.Context(), env.Client, params, cmd.OutOrStdout())
}

func execute(ctx context.Context, c pullrequest.Creator, params *createCmdParams, out io.Writer) error {
	service := pullrequest.NewCreateService(c)
	pr, err := service.Create(ctx, &client.CreateOptions{
		Title:       params.Title,
		Body:        params.Body,
		Source:      params.Source,
		Destination: params.Destination,
		Draft:       params.Draft,
	}, params.DryRun)
	if err != nil {
		return err
	}

	if params.DryRun {
		fmt.Fprintf(out, "Would create a pull request: %s -> %s\n", pr.Source, pr.Destination)
		fmt.Fprintln(out, "  ", pr.Title)
		return nil
	}

	fmt.Fprintf(
		out,
		"Created a pull request: %s -> %s\n",
		pr.Source,
		pr.Destination,
	)
	fmt.Fprintln(out, "  ", pr.URL)

	return nil
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "create",
		Aliases: []string{"cr"},
		Short:   "Create pull request",
		Long:    `Creates a pull request on the web service hosting your origin repository`,
		Args:    cobra.NoArgs,
		RunE:    utils.RunCommandWrapper(runCmd),
	}

	setUpFlags(cmd)

	return cmd
}
