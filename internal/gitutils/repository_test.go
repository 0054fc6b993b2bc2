package gitutils

import (
	"testing"

	"prflow/internal/errcodes"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func Test_repository_GetCheckedOutBranchShortName(t *testing.T) {
	t.Run("fails when HEAD cannot be read", func(t *testing.T) {
		vErr := errors.New("branch err")
		r := &repository{
			r: &MockGoGitRepository{
				Err: vErr,
			},
		}

		_, err := r.GetCheckedOutBranchShortName()
		assert.EqualError(t, err, vErr.Error())
	})

	t.Run("returns the branch HEAD points to", func(t *testing.T) {
		r := &repository{
			r: &MockGoGitRepository{
				ReferenceValue: plumbing.NewSymbolicReference(
					plumbing.HEAD,
					plumbing.NewBranchReferenceName("feature/login"),
				),
			},
		}

		b, err := r.GetCheckedOutBranchShortName()
		assert.NoError(t, err)
		assert.Equal(t, "feature/login", b)
	})

	t.Run("fails on a detached HEAD", func(t *testing.T) {
		r := &repository{
			r: &MockGoGitRepository{
				ReferenceValue: plumbing.NewHashReference(
					plumbing.HEAD,
					plumbing.NewHash("0123456789abcdef0123456789abcdef01234567"),
				),
			},
		}

		_, err := r.GetCheckedOutBranchShortName()
		assert.Equal(t, errcodes.ErrDetachedHead, err)
	})
}

func Test_repository_GetRemoteURLs(t *testing.T) {
	t.Run("fails when cannot get remotes", func(t *testing.T) {
		vErr := errors.New("remotes err")
		r := &repository{
			r: &MockGoGitRepository{
				Err: vErr,
			},
		}

		_, err := r.GetRemoteURLs()
		assert.EqualError(t, err, vErr.Error())
	})

	t.Run("lists origin first", func(t *testing.T) {
		r := &repository{
			r: &MockGoGitRepository{
				RemotesValue: []*git.Remote{
					git.NewRemote(nil, &config.RemoteConfig{
						Name: "upstream",
						URLs: []string{"upstream-url"},
					}),
					git.NewRemote(nil, &config.RemoteConfig{
						Name: "fork",
						URLs: []string{"fork-url"},
					}),
					git.NewRemote(nil, &config.RemoteConfig{
						Name: "origin",
						URLs: []string{"origin-url"},
					}),
				},
			},
		}

		urls, err := r.GetRemoteURLs()
		assert.NoError(t, err)
		assert.Equal(t, []string{"origin-url", "fork-url", "upstream-url"}, urls)
	})
}

func Test_repository_CurrentCommit(t *testing.T) {
	t.Run("fails when HEAD cannot be resolved", func(t *testing.T) {
		vErr := errors.New("commit err")
		r := &repository{
			r: &MockGoGitRepository{
				Err: vErr,
			},
		}

		_, err := r.CurrentCommit()
		assert.EqualError(t, err, vErr.Error())
	})
}

func Test_repository_BranchCommit(t *testing.T) {
	t.Run("fails when the branch cannot be resolved", func(t *testing.T) {
		vErr := errors.New("branch err")
		r := &repository{
			r: &MockGoGitRepository{
				Err: vErr,
			},
		}

		_, err := r.BranchCommit("")
		assert.EqualError(t, err, vErr.Error())
	})
}
