package gitutils

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"golang.org/x/exp/slices"
)

type MockGoGitRepository struct {
	HeadValue      *plumbing.Reference
	ReferenceValue *plumbing.Reference
	Err            error
	RemotesValue   []*git.Remote
}

func (r MockGoGitRepository) Head() (*plumbing.Reference, error) {
	return r.HeadValue, r.Err
}

func (r MockGoGitRepository) Remotes() ([]*git.Remote, error) {
	return r.RemotesValue, r.Err
}

func (r MockGoGitRepository) Reference(
	plumbing.ReferenceName,
	bool,
) (*plumbing.Reference, error) {
	return r.ReferenceValue, r.Err
}

func (r MockGoGitRepository) CommitObject(
	plumbing.Hash,
) (*object.Commit, error) {
	return nil, r.Err
}

type MockGitRepository struct {
	ErrorValue         error
	CurrentBranchValue string
	RemoteURLsValue    []string
	BranchCommitValue  *object.Commit
	Commit             *object.Commit
	Root               string
}

func (r *MockGitRepository) GetCheckedOutBranchShortName() (string, error) {
	return r.CurrentBranchValue, r.ErrorValue
}

func (r *MockGitRepository) BranchCommit(string) (*object.Commit, error) {
	return r.BranchCommitValue, r.ErrorValue
}

func (r *MockGitRepository) CurrentCommit() (*object.Commit, error) {
	return r.Commit, r.ErrorValue
}

func (r *MockGitRepository) GetRemoteURLs() ([]string, error) {
	return r.RemoteURLsValue, r.ErrorValue
}

func (r *MockGitRepository) RootDir() string {
	return r.Root
}

// MockGit is an in-memory Git. Calls records every call, Mutations only the
// ones that change the repository or the remote.
type MockGit struct {
	CurrentBranchValue string
	Dirty              bool
	LocalBranches      []string
	RemoteBranches     []string
	MergeBaseValue     string
	NotAncestor        bool
	Ancestors          map[string]bool
	CommitRangeValue   []Commit
	DiffValue          string
	UnmergedValue      []string
	ErrorValue         error
	CherryPickErrors   map[string]error
	MergeError         error
	RebaseError        error
	PushError          error
	CheckoutError      error
	FetchError         error
	StashError         error
	StashPopError      error

	Calls       []string
	Mutations   []string
	PushOptions []*PushOptions
}

func (g *MockGit) record(call string, mutation bool) {
	g.Calls = append(g.Calls, call)
	if mutation {
		g.Mutations = append(g.Mutations, call)
	}
}

func (g *MockGit) CurrentBranch(context.Context) (string, error) {
	g.record("current-branch", false)
	return g.CurrentBranchValue, g.ErrorValue
}

func (g *MockGit) IsClean(context.Context) (bool, error) {
	g.record("is-clean", false)
	return !g.Dirty, g.ErrorValue
}

func (g *MockGit) BranchExists(_ context.Context, name string) (bool, error) {
	g.record("branch-exists:"+name, false)
	return slices.Contains(g.LocalBranches, name), g.ErrorValue
}

func (g *MockGit) RemoteBranchExists(_ context.Context, name string) (bool, error) {
	g.record("remote-branch-exists:"+name, false)
	return slices.Contains(g.RemoteBranches, name), g.ErrorValue
}

func (g *MockGit) Branches(context.Context) ([]string, error) {
	g.record("branches", false)
	return g.LocalBranches, g.ErrorValue
}

func (g *MockGit) Fetch(_ context.Context, branch string) error {
	g.record("fetch:"+branch, false)
	return g.FetchError
}

func (g *MockGit) MergeBase(_ context.Context, a, b string) (string, error) {
	g.record(fmt.Sprintf("merge-base:%s:%s", a, b), false)
	return g.MergeBaseValue, g.ErrorValue
}

func (g *MockGit) IsAncestor(_ context.Context, ancestor, descendant string) (bool, error) {
	g.record(fmt.Sprintf("is-ancestor:%s:%s", ancestor, descendant), false)
	if ok, found := g.Ancestors[ancestor+":"+descendant]; found {
		return ok, g.ErrorValue
	}

	return !g.NotAncestor, g.ErrorValue
}

func (g *MockGit) CommitRange(_ context.Context, base, head string) ([]Commit, error) {
	g.record(fmt.Sprintf("commit-range:%s..%s", base, head), false)
	return g.CommitRangeValue, g.ErrorValue
}

func (g *MockGit) Checkout(_ context.Context, branch string) error {
	g.record("checkout:"+branch, true)
	return g.CheckoutError
}

func (g *MockGit) CreateBranch(_ context.Context, name, from string) error {
	g.record(fmt.Sprintf("create-branch:%s:%s", name, from), true)
	g.LocalBranches = append(g.LocalBranches, name)
	return nil
}

func (g *MockGit) CherryPick(_ context.Context, hash string) error {
	g.record("cherry-pick:"+hash, true)
	return g.CherryPickErrors[hash]
}

func (g *MockGit) Merge(_ context.Context, ref string) error {
	g.record("merge:"+ref, true)
	return g.MergeError
}

func (g *MockGit) MergeSquash(_ context.Context, ref, _ string) error {
	g.record("merge-squash:"+ref, true)
	return g.MergeError
}

func (g *MockGit) MergeFastForward(_ context.Context, ref string) error {
	g.record("merge-ff:"+ref, true)
	return g.MergeError
}

func (g *MockGit) Rebase(_ context.Context, onto string) error {
	g.record("rebase:"+onto, true)
	return g.RebaseError
}

func (g *MockGit) Push(_ context.Context, branch string, o *PushOptions) error {
	g.record("push:"+branch, true)
	g.PushOptions = append(g.PushOptions, o)
	return g.PushError
}

func (g *MockGit) Diff(_ context.Context, base, head string) (string, error) {
	g.record(fmt.Sprintf("diff:%s...%s", base, head), false)
	return g.DiffValue, g.ErrorValue
}

func (g *MockGit) UnmergedFiles(context.Context) ([]string, error) {
	g.record("unmerged-files", false)
	return g.UnmergedValue, g.ErrorValue
}

func (g *MockGit) Stash(context.Context, string) error {
	g.record("stash", true)
	if g.StashError == nil {
		g.Dirty = false
	}
	return g.StashError
}

func (g *MockGit) StashPop(context.Context) error {
	g.record("stash-pop", true)
	return g.StashPopError
}
