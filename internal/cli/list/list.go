package list

import (
	"context"
	"fmt"
	"io"

	"prflow/internal/cli/paramutils"
	"prflow/internal/cli/utils"
	"prflow/internal/domain/pullrequest"
	"prflow/internal/pkg/client"

	"github.com/spf13/cobra"
)

var loadEnvironment = paramutils.LoadEnvironment

func runCmd(cmd *cobra.Command, args []string) error {
	flags := &paramutils.PFlagSetWrapper{Flags: cmd.Flags()}

	params := &listCmdParams{State: "open", Limit: client.DefaultListLimit}
	fillFlagListCmdParams(flags, params)
	o, err := listOptions(params)
	if err != nil {
		return err
	}

	env, err := loadEnvironment(flags)
	if err != nil {
		return err
	}

	return execute(cmd.Context(), env.Client, o, cmd.OutOrStdout())
}

func execute(ctx context.Context, c pullrequest.Lister, o *client.ListOptions, out io.Writer) error {
	prs, err := c.List(ctx, o)
	if err != nil {
		return err
	}

	if len(prs) == 0 {
		fmt.Fprintln(out, "No pull requests")
		return nil
	}

	fmt.Fprintln(out, utils.PullRequestTable(prs).String())

	return nil
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List pull requests",
		Long:    `Lists pull requests on the web service hosting your origin repository`,
		Args:    cobra.NoArgs,
		RunE:    utils.RunCommandWrapper(runCmd),
	}

	cmd.Flags().String("state", "open", "pull request state - (open, closed, merged, all)")
	cmd.Flags().IntP("limit", "l", client.DefaultListLimit, "maximum number of pull requests")

	return cmd
}
