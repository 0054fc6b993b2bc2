package utils

import (
	"context"
	"fmt"
	"io"
	"os"

	"prflow/internal/domain/pullrequest"
	"prflow/internal/pkg/client"
	"prflow/internal/systemcodes"

	"github.com/AlecAivazis/survey/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/gosuri/uitable"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// IsInteractive tells whether prompts can be shown.
var IsInteractive = func() bool {
	in, out := os.Stdin.Fd(), os.Stdout.Fd()
	return (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in)) &&
		(isatty.IsTerminal(out) || isatty.IsCygwinTerminal(out))
}

var askOne = survey.AskOne

// Confirm asks a yes/no question. It returns def without asking when there
// is no terminal.
func Confirm(message string, def bool) (bool, error) {
	if !IsInteractive() {
		return def, nil
	}

	answer := def
	err := askOne(&survey.Confirm{Message: message, Default: def}, &answer)
	if err != nil {
		return false, err
	}

	return answer, nil
}

type PromptPullRequest struct {
	ID    string
	Title string
}

func maxPRDescriptionLength(prs []*client.PullRequest, limit int) int {
	maxLen := 0
	for _, pr := range prs {
		l := len(pr.Source) + len(pr.Destination) + 4
		if l > maxLen {
			maxLen = l
		}
	}

	if limit > 0 && maxLen > limit {
		return limit
	}

	return maxLen
}

func getPromptPullRequestSlice(prs []*client.PullRequest) []*PromptPullRequest {
	maxLen := maxPRDescriptionLength(prs, 30)
	prFormat := fmt.Sprintf("#%%s: %%-%ds %%s %%s", maxLen)
	options := make([]*PromptPullRequest, 0, len(prs))
	for _, pr := range prs {
		prDesc := fmt.Sprintf(
			prFormat,
			pr.ID,
			fmt.Sprintf("[%s->%s]", pr.Source, pr.Destination),
			pr.Updated.Format("(2006-01-02 15:04)"),
			pr.Title,
		)
		options = append(options, &PromptPullRequest{
			ID:    pr.ID,
			Title: prDesc,
		})
	}

	return options
}

func PromptPullRequestSelect(prList []*client.PullRequest, message string) (*PromptPullRequest, error) {
	prs := getPromptPullRequestSlice(prList)

	var answer string
	options := make([]string, 0, len(prs))
	for _, v := range prs {
		options = append(options, v.Title)
	}
	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		PageSize: 10,
	}
	err := askOne(prompt, &answer)
	if err != nil {
		return nil, err
	}

	for _, v := range prs {
		if v.Title == answer {
			return v, nil
		}
	}

	return nil, nil
}

// ResolvePullRequestID returns the pull request a command works on: the
// given id, the open pull request of branch or, on a terminal, one picked
// from the open pull requests.
func ResolvePullRequestID(
	ctx context.Context,
	l pullrequest.Lister,
	id, branch, message string,
) (string, error) {
	resolved, err := pullrequest.ResolveID(ctx, l, id, branch)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, pullrequest.ErrNoActivePullRequest) || !IsInteractive() {
		return "", err
	}

	prs, lerr := l.List(ctx, &client.ListOptions{State: client.PullRequestState_OPEN})
	if lerr != nil || len(prs) == 0 {
		return "", err
	}

	selected, serr := PromptPullRequestSelect(prs, message)
	if serr != nil {
		return "", serr
	}
	if selected == nil {
		return "", err
	}

	return selected.ID, nil
}

var (
	openStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	mergedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	closedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	TitleStyle  = lipgloss.NewStyle().Bold(true)
)

func StateStyle(s client.PullRequestState) lipgloss.Style {
	switch s {
	case client.PullRequestState_OPEN:
		return openStyle
	case client.PullRequestState_MERGED:
		return mergedStyle
	case client.PullRequestState_CLOSED:
		return closedStyle
	}

	return mutedStyle
}

func MergeabilityStyle(m client.Mergeability) lipgloss.Style {
	switch m {
	case client.Mergeability_MERGEABLE:
		return openStyle
	case client.Mergeability_CONFLICTED:
		return closedStyle
	}

	return mutedStyle
}

// PullRequestTable renders pull requests one per row.
func PullRequestTable(prs []*client.PullRequest) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("#", "TITLE", "SRC/DEST", "STATE", "URL")
	table.AddRow("-", "-----", "--------", "-----", "---")

	for _, v := range prs {
		table.AddRow(
			v.ID,
			v.Title,
			fmt.Sprintf("%s -> %s", v.Source, v.Destination),
			string(v.State),
			v.URL,
		)
	}

	return table
}

type runCommandError func(*cobra.Command, []string) error

// RunCommandWrapper returns the error of fn to the root command, which
// reports it after the command has cleaned up.
func RunCommandWrapper(fn runCommandError) runCommandError {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err != nil {
			log.Debug().Err(err).Str("command", cmd.CommandPath()).Msg("command failed")
		}

		return err
	}
}

// ReportError prints err and returns the exit code of its class.
func ReportError(w io.Writer, err error) int {
	if err == nil {
		return 0
	}

	fmt.Fprintln(w, "Error:", err)
	return systemcodes.ExitCode(err)
}
