package cmdcreate

import (
	"fmt"
	"strings"

	"prflow/internal/cli/paramutils"
	"prflow/internal/errcodes"
	"prflow/internal/gitutils"

	"github.com/AlecAivazis/survey/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var ErrSameSourceAndTarget = errors.New("source and target branch are the same")

type createCmdParams struct {
	Source      string `survey:"source"`
	Destination string `survey:"destination"`
	Title       string `survey:"title"`
	Body        string `survey:"body"`
	Draft       bool
	AIBody      bool
	Interactive bool
	DryRun      bool
}

func (params *createCmdParams) Validate() error {
	if params.Source == "" {
		return errcodes.ErrMissingSource
	}
	if params.Destination == "" {
		return errcodes.ErrMissingDestination
	}
	if params.Title == "" {
		return errcodes.ErrMissingTitle
	}
	if params.Source == params.Destination {
		return errors.Wrapf(ErrSameSourceAndTarget, "%s", params.Source)
	}

	return nil
}

func fillFlagParams(flags paramutils.FlagRepo, params *createCmdParams) {
	params.Source = flags.GetStringOrDefault("source", params.Source)
	params.Destination = flags.GetStringOrDefault("target", params.Destination)
	params.Title = flags.GetStringOrDefault("title", params.Title)
	params.Body = flags.GetStringOrDefault("body", params.Body)
	params.Draft = flags.GetBoolOrDefault("draft", params.Draft)
	params.AIBody = flags.GetBoolOrDefault("ai-body", params.AIBody)
	params.Interactive = flags.GetBoolOrDefault("interactive", params.Interactive)
	params.DryRun = flags.GetBoolOrDefault("dry-run", params.DryRun)
}

type localRepo interface {
	GetClosestBranch(branches []string) (string, error)
	GetCurrentCommitMessage() (string, error)
}

var getLocalRepo = func(path string) (localRepo, error) {
	return gitutils.GetRepo(path)
}

// withTicket prefixes title with the ticket of the branch unless it already
// mentions it.
func withTicket(title, ticket string) string {
	if ticket == "" || title == "" || strings.Contains(title, ticket) {
		return title
	}

	return fmt.Sprintf("%s: %s", ticket, title)
}

func fillDefaultParams(rc *gitutils.RepositoryContext, targets []string, p *createCmdParams) {
	p.Source = rc.Branch

	repo, err := getLocalRepo(rc.Path)
	if err != nil {
		log.Debug().Err(err).Msg("no local repository for defaults")
		return
	}

	candidates := make([]string, 0, len(targets))
	for _, t := range targets {
		if t != p.Source {
			candidates = append(candidates, t)
		}
	}

	destination, err := repo.GetClosestBranch(candidates)
	if err == nil {
		p.Destination = destination
	} else {
		log.Debug().Err(err).Strs("targets", candidates).Msg("no default target branch")
	}

	title, err := repo.GetCurrentCommitMessage()
	if err == nil {
		p.Title = withTicket(title, rc.TicketID)
	}
}

var ask = survey.Ask

func fillInteractiveParams(params *createCmdParams) error {
	var qs = []*survey.Question{
		{
			Name: "source",
			Prompt: &survey.Input{
				Message: "Source branch",
				Default: params.Source,
			},
			Validate: survey.Required,
		},
		{
			Name: "destination",
			Prompt: &survey.Input{
				Message: "Target branch",
				Default: params.Destination,
			},
			Validate: survey.Required,
		},
		{
			Name: "title",
			Prompt: &survey.Input{
				Message: "Title",
				Default: params.Title,
			},
			Validate: survey.Required,
		},
		{
			Name: "body",
			Prompt: &survey.Multiline{
				Message: "Body",
				Default: params.Body,
			},
		},
	}

	return ask(qs, params)
}
