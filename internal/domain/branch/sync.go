package branch

import (
	"context"
	"fmt"

	"prflow/internal/errcodes"
	"prflow/internal/gitutils"
	"prflow/internal/pkg/client"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type SyncRequest struct {
	Target    string
	Strategy  client.MergeStrategy
	NoPush    bool
	DryRun    bool
	AutoStash bool
}

type SyncResult struct {
	Branch   string
	Ref      string
	Strategy client.MergeStrategy
	Pushed   bool
	DryRun   bool
	UpToDate bool
	Stashed  bool
}

// Sync brings the target branch into the current branch and pushes the
// result.
func (e *Engine) Sync(ctx context.Context, r *SyncRequest) (res *SyncResult, err error) {
	if r.Target == "" {
		return nil, errcodes.ErrMissingBranch
	}
	strategy := r.Strategy
	if strategy == "" {
		strategy = client.MergeStrategy_MERGE
	}

	branch, err := e.git.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	if branch == r.Target {
		return nil, errors.Wrapf(ErrSameBranch, "%s", branch)
	}

	stashed, err := e.prepareTree(ctx, r.AutoStash, r.DryRun)
	if err != nil {
		return nil, err
	}
	defer func() {
		e.restoreStash(ctx, stashed, err)
	}()

	if !r.DryRun {
		e.fetch(ctx, r.Target)
	}

	ref, err := e.resolveRef(ctx, r.Target)
	if err != nil {
		return nil, err
	}

	res = &SyncResult{
		Branch:   branch,
		Ref:      ref,
		Strategy: strategy,
		DryRun:   r.DryRun,
		Stashed:  stashed,
	}

	if strategy == client.MergeStrategy_FF_ONLY {
		upToDate, err := e.checkFastForward(ctx, branch, ref)
		if err != nil {
			return nil, err
		}
		if upToDate {
			log.Info().Str("branch", branch).Str("target", ref).Msg("already up to date")
			res.UpToDate = true
			return res, nil
		}
	}

	logger := log.With().
		Str("branch", branch).
		Str("target", ref).
		Str("strategy", string(strategy)).
		Bool("dry_run", r.DryRun).
		Logger()

	if r.DryRun {
		logger.Info().Msgf("would %s %s into %s", strategy, ref, branch)
		if !r.NoPush {
			logger.Info().Msgf("would push %s", branch)
		}
		return res, nil
	}

	logger.Info().Msg("syncing branch")
	if err := e.apply(ctx, strategy, branch, ref); err != nil {
		var cerr *gitutils.ConflictError
		if errors.As(err, &cerr) {
			cerr.Branch = branch
			return nil, cerr
		}
		return nil, err
	}

	if r.NoPush {
		return res, nil
	}

	err = e.git.Push(ctx, branch, &gitutils.PushOptions{
		ForceWithLease: strategy == client.MergeStrategy_REBASE,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "push %s", branch)
	}
	res.Pushed = true

	return res, nil
}

// checkFastForward fails when branch cannot be fast-forwarded to ref. It
// reports true when branch already contains ref.
func (e *Engine) checkFastForward(ctx context.Context, branch, ref string) (bool, error) {
	ok, err := e.git.IsAncestor(ctx, "HEAD", ref)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}

	contained, err := e.git.IsAncestor(ctx, ref, "HEAD")
	if err != nil {
		return false, err
	}
	if contained {
		return true, nil
	}

	return false, &gitutils.ConflictError{
		Operation: "fast-forward",
		Branch:    branch,
		Ref:       ref,
		Reason:    "histories have diverged",
	}
}

func (e *Engine) apply(ctx context.Context, strategy client.MergeStrategy, branch, ref string) error {
	switch strategy {
	case client.MergeStrategy_MERGE:
		return e.git.Merge(ctx, ref)
	case client.MergeStrategy_SQUASH:
		return e.git.MergeSquash(ctx, ref, fmt.Sprintf("Squash %s into %s", ref, branch))
	case client.MergeStrategy_REBASE:
		return e.git.Rebase(ctx, ref)
	case client.MergeStrategy_FF_ONLY:
		return e.git.MergeFastForward(ctx, ref)
	}

	return errcodes.ErrUnknownMergeStrategy
}

// Rebase replays the current branch on top of the target branch.
func (e *Engine) Rebase(ctx context.Context, r *SyncRequest) (*SyncResult, error) {
	rebase := *r
	rebase.Strategy = client.MergeStrategy_REBASE
	return e.Sync(ctx, &rebase)
}
