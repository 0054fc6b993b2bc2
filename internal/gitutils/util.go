package gitutils

import (
	"strings"

	"prflow/internal/pkg/client"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"
)

var (
	ErrAncestorCommitNotFound       = errors.New("ancestor commit not found")
	ErrCannotFindAnyBranchReference = errors.New("cannot find any branch reference")
)

const historyDepth = 10

type GoGit struct {
	Git gitRepository
}

// GetRepo opens the repository containing path.
func GetRepo(path string) (*GoGit, error) {
	r, err := openRepo(path)
	if err != nil {
		return nil, err
	}

	return &GoGit{
		Git: &repository{r: r, root: rootDir(r, path)},
	}, nil
}

func (g *GoGit) RootDir() string {
	return g.Git.RootDir()
}

func (g *GoGit) GetCurrentBranch() (string, error) {
	return g.Git.GetCheckedOutBranchShortName()
}

// GetCurrentCommitMessage returns the subject line of the HEAD commit.
func (g *GoGit) GetCurrentCommitMessage() (string, error) {
	c, err := g.Git.CurrentCommit()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(strings.SplitN(c.Message, "\n", 2)[0]), nil
}

// ResolveContext builds the repository context from HEAD and the preferred
// remote.
func (g *GoGit) ResolveContext(aliases map[client.RepositoryProvider][]string) (*RepositoryContext, error) {
	return resolveContext(g.Git, aliases)
}

type branchCommitMap map[string]*object.Commit

var getBranchCommits = func(r gitRepository, branches []string) (branchCommitMap, error) {
	cSlice := make(branchCommitMap)
	for _, v := range branches {
		bCommit, err := r.BranchCommit(v)
		if err != nil {
			continue
		}

		cSlice[v] = bCommit
	}

	if len(cSlice) == 0 {
		return nil, ErrCannotFindAnyBranchReference
	}

	return cSlice, nil
}

// walkHistory follows first parents from c and returns the first branch whose
// tip is met.
func walkHistory(c *object.Commit, goalMap branchCommitMap, depth int) (string, error) {
	p := c
	for i := 0; i < depth; i++ {
		parent, err := p.Parent(0)
		if err != nil {
			return "", ErrAncestorCommitNotFound
		}
		p = parent

		for b, v := range goalMap {
			if v.Hash == p.Hash {
				return b, nil
			}
		}
	}

	return "", ErrAncestorCommitNotFound
}

// GetClosestBranch returns the candidate branch whose tip is the nearest
// first-parent ancestor of HEAD.
func (g *GoGit) GetClosestBranch(branches []string) (string, error) {
	c, err := g.Git.CurrentCommit()
	if err != nil {
		return "", err
	}

	cSlice, err := getBranchCommits(g.Git, branches)
	if err != nil {
		return "", err
	}

	return walkHistory(c, cSlice, historyDepth)
}
