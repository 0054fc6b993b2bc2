package summary

import (
	"context"
	"fmt"
	"strings"

	"prflow/internal/errcodes"
	"prflow/internal/pkg/client"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// MaxRewordDiffLength bounds the diff sent when naming a pull request.
const MaxRewordDiffLength = 12000

var ErrInvalidRewording = errors.New("the model did not answer with a title")

// Rewording is a generated title and description for a pull request.
type Rewording struct {
	PullRequest *client.PullRequest
	Title       string
	Description string
	Truncated   bool
}

func rewordPrompt(currentTitle, rawDiff string) (string, bool) {
	d, truncated := Truncate(rawDiff, MaxRewordDiffLength)

	var b strings.Builder
	if currentTitle != "" {
		fmt.Fprintf(&b, "Current PR title: %s\n\n", currentTitle)
	}
	fmt.Fprintf(&b, "Git diff:\n%s\n", d)

	return b.String(), truncated
}

// parseRewording reads the JSON answer of the model. Answers wrapped in a
// Markdown code block are accepted.
func parseRewording(answer string) (string, string, error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start < 0 || end < start || !gjson.Valid(answer[start:end+1]) {
		return "", "", errors.Wrapf(errcodes.ErrUnavailable, "%v: %q", ErrInvalidRewording, answer)
	}

	parsed := gjson.Parse(answer[start : end+1])
	title := strings.TrimSpace(parsed.Get("pr_title").String())
	if title == "" {
		return "", "", errors.Wrap(errcodes.ErrUnavailable, ErrInvalidRewording.Error())
	}

	return title, strings.TrimSpace(parsed.Get("description").String()), nil
}

// Reword generates a new title and description for the pull request id from
// the changes it merges.
func (r *Requester) Reword(ctx context.Context, id string) (*Rewording, error) {
	pr, err := r.getter.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rawDiff, err := r.remoteDiff(ctx, pr)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rawDiff) == "" {
		return nil, ErrEmptyDiff
	}

	prompt, truncated := rewordPrompt(pr.Title, rawDiff)
	log.Debug().Int("length", len(prompt)).Bool("truncated", truncated).Msg("requesting rewording")

	answer, err := r.llm.Reword(ctx, prompt)
	if err != nil {
		if !errors.Is(err, errcodes.ErrUnavailable) {
			err = errors.Wrapf(errcodes.ErrUnavailable, "rewording failed: %v", err)
		}
		return nil, err
	}

	title, description, err := parseRewording(answer)
	if err != nil {
		return nil, err
	}

	return &Rewording{
		PullRequest: pr,
		Title:       title,
		Description: description,
		Truncated:   truncated,
	}, nil
}
