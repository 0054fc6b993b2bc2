package pullrequest

import (
	"context"
	"regexp"
	"strings"

	"prflow/internal/pkg/client"

	"github.com/pkg/errors"
)

// activeSearchLimit bounds the open pull requests scanned for the current
// branch.
const activeSearchLimit = 100

var (
	ErrNoActivePullRequest = errors.New("no open pull request for branch")

	pullRequestIDRegexp  = regexp.MustCompile(`^#?(\d+)$`)
	pullRequestURLRegexp = regexp.MustCompile(`/(?:pull|pulls|code_reviews|merge_requests)/(\d+)`)
)

// FindActive returns the open pull request whose source is branch.
func FindActive(ctx context.Context, l Lister, branch string) (*client.PullRequest, error) {
	prs, err := l.List(ctx, &client.ListOptions{
		State: client.PullRequestState_OPEN,
		Limit: activeSearchLimit,
	})
	if err != nil {
		return nil, err
	}

	for _, pr := range prs {
		if pr.Source == branch {
			return pr, nil
		}
	}

	return nil, errors.Wrapf(ErrNoActivePullRequest, "%s", branch)
}

// NormalizeID accepts a number, "#number" or a pull request URL.
func NormalizeID(s string) string {
	s = strings.TrimSpace(s)
	if m := pullRequestIDRegexp.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := pullRequestURLRegexp.FindStringSubmatch(s); m != nil {
		return m[1]
	}

	return s
}

// ResolveID returns the given id, or the id of the active pull request of
// branch when none is given.
func ResolveID(ctx context.Context, l Lister, id, branch string) (string, error) {
	if id != "" {
		return NormalizeID(id), nil
	}

	pr, err := FindActive(ctx, l, branch)
	if err != nil {
		return "", err
	}

	return pr.ID, nil
}
