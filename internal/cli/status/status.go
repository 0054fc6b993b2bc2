package status

import (
	"context"
	"fmt"
	"io"
	"strings"

	"prflow/internal/cli/paramutils"
	"prflow/internal/cli/utils"
	"prflow/internal/domain/pullrequest"
	"prflow/internal/pkg/client"

	"github.com/spf13/cobra"
)

var loadEnvironment = paramutils.LoadEnvironment

func runCmd(cmd *cobra.Command, args []string) error {
	flags := &paramutils.PFlagSetWrapper{Flags: cmd.Flags()}
	env, err := loadEnvironment(flags)
	if err != nil {
		return err
	}

	id, err := utils.ResolvePullRequestID(
		cmd.Context(),
		env.Client,
		paramutils.ParseIDArg(args),
		env.Context.Branch,
		"Show pull request",
	)
	if err != nil {
		return err
	}

	return execute(cmd.Context(), env.Client, id, cmd.OutOrStdout())
}

func render(pr *client.PullRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", utils.TitleStyle.Render("#"+pr.ID), utils.TitleStyle.Render(pr.Title))
	fmt.Fprintf(
		&b,
		"%s  %s  %s -> %s\n",
		utils.StateStyle(pr.State).Render(string(pr.State)),
		utils.MergeabilityStyle(pr.Mergeable).Render(string(pr.Mergeable)),
		pr.Source,
		pr.Destination,
	)
	if !pr.Updated.IsZero() {
		fmt.Fprintf(&b, "updated %s\n", pr.Updated.Format("2006-01-02 15:04"))
	}
	if pr.URL != "" {
		fmt.Fprintln(&b, pr.URL)
	}
	if body := strings.TrimSpace(pr.Body); body != "" {
		fmt.Fprintf(&b, "\n%s\n", body)
	}

	return b.String()
}

func execute(ctx context.Context, c pullrequest.Getter, id string, out io.Writer) error {
	pr, err := c.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprint(out, render(pr))

	return nil
}

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status [ID]",
		Aliases: []string{"st", "show"},
		Short:   "Show pull request",
		Long:    `Shows the state and mergeability of a pull request, by default the one of the checked out branch`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    utils.RunCommandWrapper(runCmd),
	}

	return cmd
}
