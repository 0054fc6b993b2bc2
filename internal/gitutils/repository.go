package gitutils

import (
	"sort"

	"prflow/internal/errcodes"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"
)

const defaultRemoteName = "origin"

type goGitRepository interface {
	Head() (*plumbing.Reference, error)
	Remotes() ([]*git.Remote, error)
	Reference(plumbing.ReferenceName, bool) (*plumbing.Reference, error)
	CommitObject(plumbing.Hash) (*object.Commit, error)
}

type gitRepository interface {
	GetRemoteURLs() ([]string, error)
	GetCheckedOutBranchShortName() (string, error)
	CurrentCommit() (*object.Commit, error)
	BranchCommit(string) (*object.Commit, error)
	RootDir() string
}

type repository struct {
	r    goGitRepository
	root string
}

var openRepo = func(path string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, errors.Wrapf(errcodes.ErrNotAGitRepository, "%s", path)
	}

	return repo, err
}

func rootDir(repo *git.Repository, fallback string) string {
	wt, err := repo.Worktree()
	if err != nil {
		return fallback
	}

	return wt.Filesystem.Root()
}

// GetRemoteURLs lists the URLs of every remote, origin first and the others
// sorted by name.
func (r *repository) GetRemoteURLs() ([]string, error) {
	remotes, err := r.r.Remotes()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(remotes, func(i, j int) bool {
		a, b := remotes[i].Config().Name, remotes[j].Config().Name
		if a == defaultRemoteName || b == defaultRemoteName {
			return a == defaultRemoteName && b != defaultRemoteName
		}
		return a < b
	})

	var repoURLs []string
	for _, re := range remotes {
		repoURLs = append(repoURLs, re.Config().URLs...)
	}

	return repoURLs, nil
}

// GetCheckedOutBranchShortName reads HEAD without resolving it, so a branch
// without commits still has a name.
func (r *repository) GetCheckedOutBranchShortName() (string, error) {
	headRef, err := r.r.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", err
	}

	if headRef.Type() != plumbing.SymbolicReference || !headRef.Target().IsBranch() {
		return "", errcodes.ErrDetachedHead
	}

	return headRef.Target().Short(), nil
}

func (r *repository) CurrentCommit() (*object.Commit, error) {
	head, err := r.r.Head()
	if err != nil {
		return nil, err
	}

	return r.r.CommitObject(head.Hash())
}

func (r *repository) BranchCommit(b string) (*object.Commit, error) {
	bRef, err := r.r.Reference(plumbing.NewBranchReferenceName(b), true)
	if err != nil {
		return nil, err
	}

	return r.r.CommitObject(bRef.Hash())
}

func (r *repository) RootDir() string {
	return r.root
}
