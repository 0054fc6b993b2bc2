package summary

import (
	"context"
	"strings"

	"prflow/internal/domain/pullrequest"
	"prflow/internal/errcodes"
	"prflow/internal/pkg/client"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasttemplate"
)

// MaxDiffLength bounds the diff sent to the model.
const MaxDiffLength = 15000

const DefaultTemplate = `Summarize the following pull request for its reviewers.

Title: {{title}}

Description:
{{body}}

Changed files:
{{files}}

Diff:
{{diff}}
`

var ErrEmptyDiff = errors.New("nothing to summarize, the diff is empty")

type LLM interface {
	Summarize(ctx context.Context, prompt string) (string, error)
	Reword(ctx context.Context, prompt string) (string, error)
}

type DiffSource interface {
	Fetch(ctx context.Context, branch string) error
	Diff(ctx context.Context, base, head string) (string, error)
}

type Summary struct {
	PullRequest *client.PullRequest
	Files       []*FileStat
	Truncated   bool
	Text        string
}

type Requester struct {
	getter   pullrequest.Getter
	git      DiffSource
	llm      LLM
	template string
}

func NewRequester(g pullrequest.Getter, d DiffSource, l LLM) *Requester {
	return &Requester{
		getter:   g,
		git:      d,
		llm:      l,
		template: DefaultTemplate,
	}
}

// WithTemplate replaces the prompt template. It understands {{title}},
// {{body}}, {{files}} and {{diff}}.
func (r *Requester) WithTemplate(t string) *Requester {
	if t != "" {
		r.template = t
	}

	return r
}

// Prompt renders the prompt for a change.
func (r *Requester) Prompt(title, body, rawDiff string) (string, []*FileStat, bool) {
	stats, err := ParseStats([]byte(rawDiff))
	if err != nil {
		log.Warn().Err(err).Msg("could not parse diff, sending it without stats")
		stats = nil
	}
	d, truncated := Truncate(rawDiff, MaxDiffLength)

	if strings.TrimSpace(body) == "" {
		body = "(none)"
	}

	prompt := fasttemplate.New(r.template, "{{", "}}").ExecuteString(map[string]interface{}{
		"title": title,
		"body":  body,
		"files": formatStats(stats),
		"diff":  d,
	})

	return prompt, stats, truncated
}

func (r *Requester) summarize(ctx context.Context, title, body, rawDiff string) (*Summary, error) {
	if strings.TrimSpace(rawDiff) == "" {
		return nil, ErrEmptyDiff
	}

	prompt, stats, truncated := r.Prompt(title, body, rawDiff)
	log.Debug().Int("files", len(stats)).Bool("truncated", truncated).Msg("requesting summary")

	text, err := r.llm.Summarize(ctx, prompt)
	if err != nil {
		if !errors.Is(err, errcodes.ErrUnavailable) {
			err = errors.Wrapf(errcodes.ErrUnavailable, "summary failed: %v", err)
		}
		return nil, err
	}

	return &Summary{
		Files:     stats,
		Truncated: truncated,
		Text:      text,
	}, nil
}

// remoteDiff returns the changes pr merges, read from freshly fetched
// remote branches.
func (r *Requester) remoteDiff(ctx context.Context, pr *client.PullRequest) (string, error) {
	for _, b := range []string{pr.Destination, pr.Source} {
		if err := r.git.Fetch(ctx, b); err != nil {
			log.Warn().Err(err).Str("branch", b).Msg("fetch failed, using local refs")
		}
	}

	return r.git.Diff(ctx, "origin/"+pr.Destination, "origin/"+pr.Source)
}

// Summarize summarizes the pull request id from the remote branches it
// merges.
func (r *Requester) Summarize(ctx context.Context, id string) (*Summary, error) {
	pr, err := r.getter.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rawDiff, err := r.remoteDiff(ctx, pr)
	if err != nil {
		return nil, err
	}

	s, err := r.summarize(ctx, pr.Title, pr.Body, rawDiff)
	if err != nil {
		return nil, err
	}
	s.PullRequest = pr

	return s, nil
}

// Describe writes a pull request body for the local changes of head since
// base.
func (r *Requester) Describe(ctx context.Context, title, base, head string) (string, error) {
	rawDiff, err := r.git.Diff(ctx, base, head)
	if err != nil {
		return "", err
	}

	s, err := r.summarize(ctx, title, "", rawDiff)
	if err != nil {
		return "", err
	}

	return s.Text, nil
}
