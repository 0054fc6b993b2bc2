package branch

import (
	"context"
	"fmt"
	"strings"

	"prflow/internal/errcodes"
	"prflow/internal/gitutils"
	"prflow/internal/pkg/client"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type PickRequest struct {
	From      string
	To        string
	DryRun    bool
	AutoStash bool
}

type PickResult struct {
	Commits []gitutils.Commit
	Branch  string
	Base    string
	// BaseBranch is the branch from was cut from, when one was detected.
	BaseBranch  string
	PullRequest *client.PullRequest
}

// PickBranchName is the branch a pick from one branch to another is built on.
func PickBranchName(from, to string) string {
	return pickBranchPrefix + strings.ReplaceAll(from, "/", "-") + "-to-" + strings.ReplaceAll(to, "/", "-")
}

// Pick copies the commits of from that to does not have onto a new branch
// and opens a pull request for it.
func (e *Engine) Pick(ctx context.Context, r *PickRequest) (*PickResult, error) {
	if r.From == "" || r.To == "" {
		return nil, errcodes.ErrMissingBranch
	}
	if r.From == r.To {
		return nil, errors.Wrapf(ErrSameBranch, "%s", r.From)
	}

	fromRef, err := e.resolveRef(ctx, r.From)
	if err != nil {
		return nil, err
	}
	toRef, err := e.resolveRef(ctx, r.To)
	if err != nil {
		return nil, err
	}

	baseRef := toRef
	baseBranch := e.detectBase(ctx, r.From, r.To, fromRef, toRef)
	if baseBranch != "" {
		baseRef = baseBranch
	}

	base, err := e.git.MergeBase(ctx, baseRef, fromRef)
	if err != nil {
		return nil, err
	}
	commits, err := e.git.CommitRange(ctx, base, fromRef)
	if err != nil {
		return nil, err
	}

	res := &PickResult{
		Commits:    commits,
		Branch:     PickBranchName(r.From, r.To),
		Base:       base,
		BaseBranch: baseBranch,
	}

	logger := log.With().
		Str("from", fromRef).
		Str("to", toRef).
		Str("branch", res.Branch).
		Int("commits", len(commits)).
		Logger()

	if len(commits) == 0 {
		logger.Info().Msg("nothing to pick")
		return res, nil
	}

	if r.DryRun {
		for _, c := range commits {
			logger.Info().Msgf("would pick %s", c)
		}
		return res, nil
	}

	exists, err := e.git.BranchExists(ctx, res.Branch)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Wrapf(ErrBranchExists, "%s, delete it or finish the previous pick", res.Branch)
	}

	stashed, err := e.prepareTree(ctx, r.AutoStash, false)
	if err != nil {
		return nil, err
	}

	original, err := e.git.CurrentBranch(ctx)
	if err != nil {
		logger.Debug().Err(err).Msg("not on a branch, will not switch back")
		original = ""
	}

	if err := e.git.CreateBranch(ctx, res.Branch, toRef); err != nil {
		e.restoreStash(ctx, stashed, err)
		return nil, err
	}

	if err := e.pickAll(ctx, res.Branch, commits); err != nil {
		e.restoreStash(ctx, stashed, err)
		return nil, err
	}

	var pr *client.PullRequest
	err = e.git.Push(ctx, res.Branch, &gitutils.PushOptions{SetUpstream: true})
	if err != nil {
		err = errors.Wrapf(err, "push %s", res.Branch)
	} else {
		pr, err = e.creator.Create(ctx, &client.CreateOptions{
			Title:       pickTitle(r.From, r.To, commits),
			Body:        pickBody(r.From, commits),
			Source:      res.Branch,
			Destination: r.To,
		})
	}

	switchedBack := false
	if original != "" {
		if cerr := e.git.Checkout(ctx, original); cerr != nil {
			logger.Warn().Err(cerr).Str("original", original).Msg("could not switch back")
		} else {
			switchedBack = true
		}
	}
	if switchedBack {
		e.restoreStash(ctx, stashed, nil)
	} else if stashed {
		logger.Warn().Msg("local changes are still stashed, run git stash pop")
	}

	if err != nil {
		return nil, err
	}
	res.PullRequest = pr

	return res, nil
}

// pickAll cherry-picks commits in order onto branch. Any failure stops the
// pick and names the commits that were not applied.
func (e *Engine) pickAll(ctx context.Context, branch string, commits []gitutils.Commit) error {
	for i, c := range commits {
		log.Debug().Msgf("picking %s", c)
		err := e.git.CherryPick(ctx, c.Hash)
		if err == nil {
			continue
		}

		var cerr *gitutils.ConflictError
		if !errors.As(err, &cerr) {
			cerr = &gitutils.ConflictError{Operation: "cherry-pick", Reason: err.Error()}
		}
		cerr.Branch = branch
		cerr.Commit = c.String()
		cerr.Remaining = commitNames(commits[i+1:])
		return cerr
	}

	return nil
}

func commitNames(commits []gitutils.Commit) []string {
	names := make([]string, 0, len(commits))
	for _, c := range commits {
		names = append(names, c.String())
	}

	return names
}

func pickTitle(from, to string, commits []gitutils.Commit) string {
	title := fmt.Sprintf("Pick %s into %s", from, to)
	if len(commits) == 1 && commits[0].Subject != "" {
		title = commits[0].Subject
	}

	ticket := gitutils.ParseTicketID(from)
	if ticket != "" && !strings.Contains(title, ticket) {
		title = fmt.Sprintf("%s: %s", ticket, title)
	}

	return title
}

func pickBody(from string, commits []gitutils.Commit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#### Picked from\n\nBranch: `%s`\n\n", from)
	for _, c := range commits {
		fmt.Fprintf(&b, "- %s\n", c)
	}

	return b.String()
}
