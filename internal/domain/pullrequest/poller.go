package pullrequest

import (
	"context"
	"time"

	"prflow/internal/errcodes"
	"prflow/internal/pkg/client"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultTimeout  = 5 * time.Minute
)

type State string

const (
	StatePending     State = "pending"
	StateChecking    State = "checking"
	StateMergeable   State = "mergeable"
	StateConflicted  State = "conflicted"
	StateMerging     State = "merging"
	StateMerged      State = "merged"
	StateMergeFailed State = "merge-failed"
	StateTimedOut    State = "timed-out"
	StateError       State = "error"
)

func (s State) Terminal() bool {
	switch s {
	case StateMerged, StateTimedOut, StateConflicted, StateError:
		return true
	}

	return false
}

type Outcome string

const (
	OutcomeMerged     Outcome = "merged"
	OutcomeTimedOut   Outcome = "timed-out"
	OutcomeConflicted Outcome = "conflicted"
	OutcomeError      Outcome = "error"
	// OutcomeDryRun is returned by a dry run once the pull request was
	// checked.
	OutcomeDryRun Outcome = "dry-run"
)

// MergePlan describes one merge request. Force and Push are honoured by the
// caller before polling starts.
type MergePlan struct {
	ID           string
	Strategy     client.MergeStrategy
	Force        bool
	Push         bool
	DeleteBranch bool
	DryRun       bool
}

type PollResult struct {
	Outcome       Outcome
	PullRequest   *client.PullRequest
	Checks        int
	MergeAttempts int
	BranchDeleted bool
	Cause         error
	Elapsed       time.Duration
}

// AlreadyMerged tells whether the pull request was merged by someone else.
func (r *PollResult) AlreadyMerged() bool {
	return r.Outcome == OutcomeMerged && r.MergeAttempts == 0
}

// Err returns nil for merged and dry-run outcomes and a classified error
// otherwise.
func (r *PollResult) Err() error {
	id := ""
	if r.PullRequest != nil {
		id = r.PullRequest.ID
	}

	switch r.Outcome {
	case OutcomeMerged, OutcomeDryRun:
		return nil
	case OutcomeTimedOut:
		return errors.Wrapf(
			errcodes.ErrTimeout,
			"pull request %s did not become mergeable after %s (%d checks)",
			id, r.Elapsed, r.Checks,
		)
	case OutcomeConflicted:
		if r.Cause != nil {
			return r.Cause
		}
		return errors.Wrapf(errcodes.ErrConflict, "pull request %s has conflicts, resolve them and retry", id)
	}

	return r.Cause
}

// Transition is one step of the poller's state machine.
type Transition struct {
	From        State
	To          State
	Check       int
	PullRequest *client.PullRequest
	Err         error
}

type Observer interface {
	Notify(*Transition)
}

type ObserverFunc func(*Transition)

func (f ObserverFunc) Notify(t *Transition) {
	f(t)
}

type MergeClient interface {
	Getter
	BranchDeleter
	Merge(ctx context.Context, o *client.MergeOptions) error
}

type PollerOptions struct {
	Interval time.Duration
	Timeout  time.Duration
	Clock    Clock
	Observer Observer
}

// Poller waits for a pull request to become mergeable and merges it.
type Poller struct {
	client   MergeClient
	clock    Clock
	interval time.Duration
	timeout  time.Duration
	observer Observer
	state    State
}

func NewPoller(c MergeClient, o *PollerOptions) *Poller {
	if o == nil {
		o = &PollerOptions{}
	}

	p := &Poller{
		client:   c,
		clock:    o.Clock,
		interval: o.Interval,
		timeout:  o.Timeout,
		observer: o.Observer,
		state:    StatePending,
	}
	if p.clock == nil {
		p.clock = realClock{}
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}

	return p
}

func (p *Poller) State() State {
	return p.state
}

func (p *Poller) transition(to State, res *PollResult, err error) {
	t := &Transition{
		From:        p.state,
		To:          to,
		Check:       res.Checks,
		PullRequest: res.PullRequest,
		Err:         err,
	}
	p.state = to

	log.Debug().
		Str("from", string(t.From)).
		Str("to", string(t.To)).
		Int("check", t.Check).
		AnErr("cause", err).
		Msg("merge state changed")

	if p.observer != nil {
		p.observer.Notify(t)
	}
}

func (p *Poller) finish(res *PollResult, o Outcome, s State, err error, started time.Time) *PollResult {
	res.Outcome = o
	res.Cause = err
	res.Elapsed = p.clock.Now().Sub(started)
	p.transition(s, res, err)

	return res
}

func (p *Poller) check(ctx context.Context, id string, res *PollResult) (*client.PullRequest, error) {
	res.Checks++
	pr, err := p.client.Get(ctx, id)
	if err == nil {
		res.PullRequest = pr
	}

	return pr, err
}

// Run drives plan until the pull request is merged, conflicted, failing or
// out of time. Mergeability is only trusted for the check that observed it.
func (p *Poller) Run(ctx context.Context, plan *MergePlan) *PollResult {
	res := &PollResult{}
	started := p.clock.Now()
	deadline := started.Add(p.timeout)

	strategy := plan.Strategy
	if strategy == "" {
		strategy = client.MergeStrategy_MERGE
	}

	p.transition(StateChecking, res, nil)
	pr, err := p.check(ctx, plan.ID, res)

	for {
		switch {
		case err != nil && errors.Is(err, errcodes.ErrNetwork) && ctx.Err() == nil:
			log.Warn().Err(err).Msg("could not check pull request, retrying")

		case err != nil:
			return p.finish(res, OutcomeError, StateError, err, started)

		case pr.State == client.PullRequestState_MERGED:
			res = p.finish(res, OutcomeMerged, StateMerged, nil, started)
			if res.MergeAttempts > 0 && plan.DeleteBranch {
				p.deleteBranch(ctx, res)
			}
			return res

		case pr.State == client.PullRequestState_CLOSED:
			return p.finish(res, OutcomeError, StateError, errors.Wrapf(
				errcodes.ErrNotMergeable, "pull request %s is closed", pr.ID,
			), started)

		case plan.DryRun:
			log.Info().
				Str("id", pr.ID).
				Str("mergeable", string(pr.Mergeable)).
				Str("strategy", string(strategy)).
				Msgf("would merge %s into %s", pr.Source, pr.Destination)
			res.Outcome = OutcomeDryRun
			return res

		case pr.Mergeable == client.Mergeability_CONFLICTED:
			return p.finish(res, OutcomeConflicted, StateConflicted, nil, started)

		case pr.Mergeable == client.Mergeability_MERGEABLE:
			p.transition(StateMergeable, res, nil)
			p.transition(StateMerging, res, nil)

			res.MergeAttempts++
			merr := p.client.Merge(ctx, &client.MergeOptions{ID: pr.ID, Strategy: strategy})
			switch {
			case merr == nil:
				merged := *pr
				merged.State = client.PullRequestState_MERGED
				res.PullRequest = &merged
				res = p.finish(res, OutcomeMerged, StateMerged, nil, started)
				if plan.DeleteBranch {
					p.deleteBranch(ctx, res)
				}
				return res
			case errors.Is(merr, errcodes.ErrConflict):
				return p.finish(res, OutcomeConflicted, StateConflicted, merr, started)
			case errors.Is(merr, errcodes.ErrNotMergeable), errors.Is(merr, errcodes.ErrNetwork):
				p.transition(StateMergeFailed, res, merr)
			default:
				return p.finish(res, OutcomeError, StateError, merr, started)
			}
		}

		if !p.clock.Now().Before(deadline) {
			return p.finish(res, OutcomeTimedOut, StateTimedOut, nil, started)
		}

		if err := p.clock.Sleep(ctx, p.interval); err != nil {
			return p.finish(res, OutcomeError, StateError, err, started)
		}

		p.transition(StateChecking, res, nil)
		pr, err = p.check(ctx, plan.ID, res)
	}
}

func (p *Poller) deleteBranch(ctx context.Context, res *PollResult) {
	branch := res.PullRequest.Source
	if branch == "" {
		return
	}

	if err := p.client.DeleteBranch(ctx, branch); err != nil {
		log.Warn().Err(err).Str("branch", branch).Msg("could not delete source branch")
		return
	}
	res.BranchDeleted = true
}
