package pick

import (
	"bytes"
	"context"
	"testing"

	"prflow/internal/domain/branch"
	"prflow/internal/errcodes"
	"prflow/internal/gitutils"
	"prflow/internal/pkg/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseArgs(t *testing.T) {
	t.Run("reads both branches", func(t *testing.T) {
		params := &cmdParams{}
		require.NoError(t, parseArgs([]string{"release/1.2", "main"}, params))
		assert.Equal(t, &cmdParams{From: "release/1.2", To: "main"}, params)
	})

	t.Run("fails without both branches", func(t *testing.T) {
		assert.Equal(t, errcodes.ErrMissingBranch, parseArgs([]string{"main"}, &cmdParams{}))
	})
}

func Test_execute(t *testing.T) {
	ctx := context.Background()
	commits := []gitutils.Commit{
		{Hash: "aaaaaaaaaa", Subject: "Fix crash"},
		{Hash: "bbbbbbbbbb", Subject: "Add test"},
	}

	t.Run("picks and opens a pull request", func(t *testing.T) {
		g := &gitutils.MockGit{
			CurrentBranchValue: "feature",
			LocalBranches:      []string{"hotfix", "main"},
			MergeBaseValue:     "base",
			CommitRangeValue:   commits,
		}
		c := &client.MockClient{CreateValue: &client.PullRequest{
			ID:          "9",
			Source:      "pick/hotfix-to-main",
			Destination: "main",
			URL:         "https://github.com/owner/repo/pull/9",
		}}
		out := &bytes.Buffer{}

		err := execute(ctx, branch.NewEngine(g, c), &cmdParams{From: "hotfix", To: "main"}, out)
		require.NoError(t, err)

		assert.Equal(t, []string{"create:pick/hotfix-to-main->main"}, c.Calls)
		assert.Contains(t, out.String(), "Picked 2 commits onto pick/hotfix-to-main:")
		assert.Contains(t, out.String(), "aaaaaaaa Fix crash")
		assert.Contains(t, out.String(), "https://github.com/owner/repo/pull/9")
	})

	t.Run("dry run lists the commits", func(t *testing.T) {
		g := &gitutils.MockGit{
			LocalBranches:    []string{"hotfix", "main"},
			MergeBaseValue:   "base",
			CommitRangeValue: commits,
		}
		c := &client.MockClient{}
		out := &bytes.Buffer{}

		err := execute(ctx, branch.NewEngine(g, c), &cmdParams{From: "hotfix", To: "main", DryRun: true}, out)
		require.NoError(t, err)

		assert.Empty(t, g.Mutations)
		assert.Empty(t, c.Calls)
		assert.Contains(t, out.String(), "Would pick 2 commits onto pick/hotfix-to-main:")
	})

	t.Run("names the detected base branch", func(t *testing.T) {
		g := &gitutils.MockGit{
			LocalBranches:    []string{"hotfix", "main", "develop"},
			MergeBaseValue:   "base",
			CommitRangeValue: commits,
			Ancestors:        map[string]bool{"hotfix:develop": false, "develop:main": false},
		}
		out := &bytes.Buffer{}

		err := execute(ctx, branch.NewEngine(g, &client.MockClient{}), &cmdParams{From: "hotfix", To: "main", DryRun: true}, out)
		require.NoError(t, err)

		assert.Contains(t, out.String(), "hotfix was cut from develop, leaving its commits out\n")
		assert.Contains(t, g.Calls, "merge-base:develop:hotfix")
	})

	t.Run("says when there is nothing to pick", func(t *testing.T) {
		g := &gitutils.MockGit{
			LocalBranches:    []string{"hotfix", "main"},
			MergeBaseValue:   "base",
			CommitRangeValue: []gitutils.Commit{},
		}
		out := &bytes.Buffer{}

		err := execute(ctx, branch.NewEngine(g, &client.MockClient{}), &cmdParams{From: "hotfix", To: "main"}, out)
		require.NoError(t, err)

		assert.Equal(t, "Nothing to pick, main has every commit of hotfix\n", out.String())
	})

	t.Run("returns conflicts", func(t *testing.T) {
		g := &gitutils.MockGit{
			CurrentBranchValue: "feature",
			LocalBranches:      []string{"hotfix", "main"},
			MergeBaseValue:     "base",
			CommitRangeValue:   commits,
			CherryPickErrors: map[string]error{
				"aaaaaaaaaa": &gitutils.ConflictError{Operation: "cherry-pick", Paths: []string{"main.go"}},
			},
		}

		err := execute(ctx, branch.NewEngine(g, &client.MockClient{}), &cmdParams{From: "hotfix", To: "main"}, &bytes.Buffer{})
		assert.ErrorIs(t, err, errcodes.ErrLocalGitConflict)
		assert.Contains(t, err.Error(), "not applied: bbbbbbbb Add test")
	})
}
