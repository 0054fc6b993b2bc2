package gitutils

import (
	"context"
	"fmt"
	"strings"

	"prflow/internal/errcodes"

	"github.com/pkg/errors"
)

const shortHashLength = 8

var ErrBranchNotFound = errors.New("branch not found")

// Git is the set of local git operations the workflows rely on.
type Git interface {
	CurrentBranch(ctx context.Context) (string, error)
	IsClean(ctx context.Context) (bool, error)
	BranchExists(ctx context.Context, name string) (bool, error)
	RemoteBranchExists(ctx context.Context, name string) (bool, error)
	Branches(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, branch string) error
	MergeBase(ctx context.Context, a, b string) (string, error)
	IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error)
	CommitRange(ctx context.Context, base, head string) ([]Commit, error)
	Checkout(ctx context.Context, branch string) error
	CreateBranch(ctx context.Context, name, from string) error
	CherryPick(ctx context.Context, hash string) error
	Merge(ctx context.Context, ref string) error
	MergeSquash(ctx context.Context, ref, message string) error
	MergeFastForward(ctx context.Context, ref string) error
	Rebase(ctx context.Context, onto string) error
	Push(ctx context.Context, branch string, o *PushOptions) error
	Diff(ctx context.Context, base, head string) (string, error)
	UnmergedFiles(ctx context.Context) ([]string, error)
	Stash(ctx context.Context, message string) error
	StashPop(ctx context.Context) error
}

type Commit struct {
	Hash    string
	Subject string
}

func (c Commit) ShortHash() string {
	if len(c.Hash) > shortHashLength {
		return c.Hash[:shortHashLength]
	}

	return c.Hash
}

func (c Commit) String() string {
	return fmt.Sprintf("%s %s", c.ShortHash(), c.Subject)
}

type PushOptions struct {
	SetUpstream    bool
	ForceWithLease bool
}

// ConflictError is a local git operation stopped by conflicts. The working
// tree is left as git left it.
type ConflictError struct {
	Operation string
	Branch    string
	Ref       string
	Commit    string
	Remaining []string
	Paths     []string
	Reason    string
}

func (e *ConflictError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", e.Operation)
	if e.Ref != "" {
		fmt.Fprintf(&b, " of %s", e.Ref)
	}
	if e.Branch != "" {
		fmt.Fprintf(&b, " onto %s", e.Branch)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, " failed: %s", e.Reason)
	} else {
		b.WriteString(" stopped on conflicts")
	}
	if e.Commit != "" {
		fmt.Fprintf(&b, "\n  failed commit: %s", e.Commit)
	}
	if len(e.Remaining) > 0 {
		fmt.Fprintf(&b, "\n  not applied: %s", strings.Join(e.Remaining, ", "))
	}
	for _, p := range e.Paths {
		fmt.Fprintf(&b, "\n  conflict: %s", p)
	}

	return b.String()
}

func (e *ConflictError) Is(target error) bool {
	return target == errcodes.ErrLocalGitConflict
}

// CommandGit implements Git with the git executable.
type CommandGit struct {
	runner *CommandRunner
	remote string
}

func NewCommandGit(dir string) *CommandGit {
	return &CommandGit{
		runner: NewCommandRunner(dir),
		remote: defaultRemoteName,
	}
}

func (g *CommandGit) run(ctx context.Context, args ...string) (string, error) {
	return g.runner.Run(ctx, args...)
}

// exists runs a query that exits with 1 when the answer is no.
func (g *CommandGit) exists(ctx context.Context, args ...string) (bool, error) {
	_, err := g.run(ctx, args...)
	if err == nil {
		return true, nil
	}

	var gerr *GitCommandError
	if errors.As(err, &gerr) && gerr.ExitCode() == 1 {
		return false, nil
	}

	return false, err
}

func (g *CommandGit) CurrentBranch(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		return "", errcodes.ErrDetachedHead
	}

	return out, nil
}

func (g *CommandGit) IsClean(ctx context.Context) (bool, error) {
	out, err := g.run(ctx, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return false, err
	}

	return out == "", nil
}

func (g *CommandGit) BranchExists(ctx context.Context, name string) (bool, error) {
	return g.exists(ctx, "show-ref", "--verify", "--quiet", "refs/heads/"+name)
}

func (g *CommandGit) RemoteBranchExists(ctx context.Context, name string) (bool, error) {
	return g.exists(ctx, "show-ref", "--verify", "--quiet", fmt.Sprintf("refs/remotes/%s/%s", g.remote, name))
}

// Branches lists the local branch names.
func (g *CommandGit) Branches(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "for-each-ref", "--format=%(refname:short)", "refs/heads")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	return strings.Split(out, "\n"), nil
}

func (g *CommandGit) Fetch(ctx context.Context, branch string) error {
	_, err := g.run(ctx, "fetch", g.remote, branch)
	return err
}

func (g *CommandGit) MergeBase(ctx context.Context, a, b string) (string, error) {
	return g.run(ctx, "merge-base", a, b)
}

func (g *CommandGit) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	return g.exists(ctx, "merge-base", "--is-ancestor", ancestor, descendant)
}

// CommitRange lists the non-merge commits reachable from head and not from
// base, oldest first.
func (g *CommandGit) CommitRange(ctx context.Context, base, head string) ([]Commit, error) {
	out, err := g.run(ctx, "log", "--reverse", "--no-merges", "--format=%H%x1f%s", fmt.Sprintf("%s..%s", base, head))
	if err != nil {
		return nil, err
	}

	commits := []Commit{}
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\x1f", 2)
		c := Commit{Hash: parts[0]}
		if len(parts) == 2 {
			c.Subject = parts[1]
		}
		commits = append(commits, c)
	}

	return commits, nil
}

func (g *CommandGit) Checkout(ctx context.Context, branch string) error {
	_, err := g.run(ctx, "checkout", branch)
	return err
}

func (g *CommandGit) CreateBranch(ctx context.Context, name, from string) error {
	_, err := g.run(ctx, "checkout", "-b", name, from)
	return err
}

// conflictOr turns err into a ConflictError when git left unmerged paths.
func (g *CommandGit) conflictOr(ctx context.Context, err error, c *ConflictError) error {
	paths, uerr := g.UnmergedFiles(ctx)
	if uerr != nil || len(paths) == 0 {
		return err
	}

	c.Paths = paths
	return c
}

func (g *CommandGit) CherryPick(ctx context.Context, hash string) error {
	_, err := g.run(ctx, "cherry-pick", hash)
	if err != nil {
		return g.conflictOr(ctx, err, &ConflictError{Operation: "cherry-pick", Commit: hash})
	}

	return nil
}

func (g *CommandGit) Merge(ctx context.Context, ref string) error {
	_, err := g.run(ctx, "merge", "--no-edit", ref)
	if err != nil {
		return g.conflictOr(ctx, err, &ConflictError{Operation: "merge", Ref: ref})
	}

	return nil
}

func (g *CommandGit) MergeSquash(ctx context.Context, ref, message string) error {
	_, err := g.run(ctx, "merge", "--squash", ref)
	if err != nil {
		return g.conflictOr(ctx, err, &ConflictError{Operation: "squash merge", Ref: ref})
	}

	// diff --quiet exits with 1 when something is staged
	nothingStaged, err := g.exists(ctx, "diff", "--cached", "--quiet")
	if err != nil {
		return err
	}
	if nothingStaged {
		return nil
	}

	_, err = g.run(ctx, "commit", "--no-edit", "-m", message)
	return err
}

func (g *CommandGit) MergeFastForward(ctx context.Context, ref string) error {
	_, err := g.run(ctx, "merge", "--ff-only", ref)
	var gerr *GitCommandError
	if errors.As(err, &gerr) && strings.Contains(strings.ToLower(gerr.Stderr), "fast-forward") {
		return &ConflictError{Operation: "fast-forward", Ref: ref, Reason: "cannot fast-forward, histories have diverged"}
	}
	if err != nil {
		return err
	}

	return nil
}

func (g *CommandGit) Rebase(ctx context.Context, onto string) error {
	_, err := g.run(ctx, "rebase", onto)
	if err != nil {
		return g.conflictOr(ctx, err, &ConflictError{Operation: "rebase", Ref: onto})
	}

	return nil
}

func (g *CommandGit) Push(ctx context.Context, branch string, o *PushOptions) error {
	args := []string{"push"}
	if o != nil && o.SetUpstream {
		args = append(args, "--set-upstream")
	}
	if o != nil && o.ForceWithLease {
		args = append(args, "--force-with-lease")
	}
	args = append(args, g.remote, branch)

	_, err := g.run(ctx, args...)
	return err
}

// Diff returns the changes of head since it diverged from base.
func (g *CommandGit) Diff(ctx context.Context, base, head string) (string, error) {
	return g.runner.RunRaw(ctx, "diff", fmt.Sprintf("%s...%s", base, head))
}

func (g *CommandGit) UnmergedFiles(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	return strings.Split(out, "\n"), nil
}

// Stash saves tracked local changes.
func (g *CommandGit) Stash(ctx context.Context, message string) error {
	_, err := g.run(ctx, "stash", "push", "--message", message)
	return err
}

func (g *CommandGit) StashPop(ctx context.Context) error {
	_, err := g.run(ctx, "stash", "pop")
	return err
}
