package branch

import (
	"context"
	"sort"
	"strings"

	"prflow/internal/errcodes"
	"prflow/internal/gitutils"
	"prflow/internal/pkg/client"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	pickBranchPrefix = "pick/"
	stashMessage     = "Stashed by pr"
)

// integrationBranches are checked first when looking for the branch a
// feature was cut from.
var integrationBranches = []string{"develop", "dev", "staging", "test"}

var (
	ErrDirtyWorkingTree = errors.New("working tree has uncommitted changes, commit or stash them first")
	ErrBranchExists     = errors.New("branch already exists")
	ErrSameBranch       = errors.New("source and target are the same branch")
)

// Creator opens the pull request of a pick.
type Creator interface {
	Create(ctx context.Context, o *client.CreateOptions) (*client.PullRequest, error)
}

// Engine runs the branch workflows on top of local git.
type Engine struct {
	git     gitutils.Git
	creator Creator
}

// NewEngine returns an engine. creator may be nil when only Sync is used.
func NewEngine(g gitutils.Git, c Creator) *Engine {
	return &Engine{git: g, creator: c}
}

// prepareTree stashes local changes when allowed and reports whether it did.
// A dry run only checks the tree.
func (e *Engine) prepareTree(ctx context.Context, autoStash, dryRun bool) (bool, error) {
	clean, err := e.git.IsClean(ctx)
	if err != nil {
		return false, err
	}
	if clean {
		return false, nil
	}
	if !autoStash {
		return false, ErrDirtyWorkingTree
	}
	if dryRun {
		log.Info().Msg("would stash local changes")
		return false, nil
	}

	if err := e.git.Stash(ctx, stashMessage); err != nil {
		return false, errors.Wrap(err, "stash local changes")
	}
	log.Info().Msg("stashed local changes")

	return true, nil
}

// restoreStash pops the stash taken by prepareTree. After a conflict the
// stash is kept since the tree still has to be resolved.
func (e *Engine) restoreStash(ctx context.Context, stashed bool, cause error) {
	if !stashed {
		return
	}
	if errors.Is(cause, errcodes.ErrLocalGitConflict) {
		log.Warn().Msg("local changes are still stashed, run git stash pop once the conflict is resolved")
		return
	}

	if err := e.git.StashPop(ctx); err != nil {
		log.Warn().Err(err).Msg("could not restore local changes, run git stash pop")
		return
	}
	log.Info().Msg("restored stashed changes")
}

// resolveRef prefers the local branch and falls back to the remote tracking
// one.
func (e *Engine) resolveRef(ctx context.Context, name string) (string, error) {
	ok, err := e.git.BranchExists(ctx, name)
	if err != nil {
		return "", err
	}
	if ok {
		return name, nil
	}

	ok, err = e.git.RemoteBranchExists(ctx, name)
	if err != nil {
		return "", err
	}
	if ok {
		return "origin/" + name, nil
	}

	return "", errors.Wrapf(gitutils.ErrBranchNotFound, "%s", name)
}

func (e *Engine) fetch(ctx context.Context, name string) {
	if err := e.git.Fetch(ctx, name); err != nil {
		log.Warn().Err(err).Str("branch", name).Msg("fetch failed, using local refs")
	}
}

func integrationRank(name string) int {
	for i, b := range integrationBranches {
		if name == b || strings.HasSuffix(name, "/"+b) {
			return i
		}
	}

	return len(integrationBranches)
}

// detectBase looks for a local branch that from was cut from and that
// target does not contain yet. Commits of that branch belong to it, not to
// from. An empty result means no such branch exists.
func (e *Engine) detectBase(ctx context.Context, from, target, fromRef, targetRef string) string {
	branches, err := e.git.Branches(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not list branches, skipping base detection")
		return ""
	}

	candidates := []string{}
	for _, b := range branches {
		if b != from && b != target && !strings.HasPrefix(b, pickBranchPrefix) {
			candidates = append(candidates, b)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return integrationRank(candidates[i]) < integrationRank(candidates[j])
	})

	for _, c := range candidates {
		if e.isBase(ctx, c, fromRef, targetRef) {
			log.Info().Str("branch", from).Str("base", c).Msg("detected base branch")
			return c
		}
	}

	return ""
}

func (e *Engine) isBase(ctx context.Context, candidate, fromRef, targetRef string) bool {
	checks := []struct {
		ancestor, descendant string
		want                 bool
	}{
		{candidate, fromRef, true},
		{fromRef, candidate, false},
		{candidate, targetRef, false},
	}

	for _, c := range checks {
		ok, err := e.git.IsAncestor(ctx, c.ancestor, c.descendant)
		if err != nil {
			log.Warn().Err(err).Str("candidate", candidate).Msg("could not compare branches")
			return false
		}
		if ok != c.want {
			return false
		}
	}

	return true
}
