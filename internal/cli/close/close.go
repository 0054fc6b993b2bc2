package close

import (
	"context"
	"fmt"
	"io"

	"prflow/internal/cli/paramutils"
	"prflow/internal/cli/utils"
	"prflow/internal/domain/pullrequest"

	"github.com/spf13/cobra"
)

var loadEnvironment = paramutils.LoadEnvironment

func runCmd(cmd *cobra.Command, args []string) error {
	flags := &paramutils.PFlagSetWrapper{Flags: cmd.Flags()}
	env, err := loadEnvironment(flags)
	if err != nil {
		return err
	}

	cmdArgs := parseArgs(args)
	params := &cmdParams{}
	fillFlagCloseCmdParams(flags, params)

	id, err := utils.ResolvePullRequestID(cmd.Context(), env.Client, cmdArgs.ID, env.Context.Branch, "Close pull request")
	if err != nil {
		return err
	}

	return execute(cmd.Context(), env.Client, id, params, cmd.OutOrStdout())
}

func execute(ctx context.Context, c pullrequest.Closer, id string, params *cmdParams, out io.Writer) error {
	service := pullrequest.NewCloseService(c)
	pr, err := service.Close(ctx, &pullrequest.CloseOptions{
		ID:           id,
		DeleteBranch: params.DeleteBranch,
		DryRun:       params.DryRun,
	})
	if err != nil {
		return err
	}

	if params.DryRun {
		fmt.Fprintf(out, "Would close pull request #%s: %s\n", pr.ID, pr.Title)
		return nil
	}

	fmt.Fprintf(out, "Closed pull request #%s\n", pr.ID)

	return nil
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "close [ID]",
		Aliases: []string{"decline"},
		Short:   "Close pull request",
		Long:    `Closes a pull request on the web service hosting your origin repository`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    utils.RunCommandWrapper(runCmd),
	}

	cmd.Flags().Bool("delete-branch", false, "delete the source branch after closing")
	cmd.Flags().Bool("dry-run", false, "show the pull request without closing it")

	return cmd
}
