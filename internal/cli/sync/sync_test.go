package sync

import (
	"bytes"
	"context"
	"testing"

	"prflow/internal/cli/paramutils"
	"prflow/internal/domain/branch"
	"prflow/internal/errcodes"
	"prflow/internal/gitutils"
	"prflow/internal/pkg/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_fillFlagParams(t *testing.T) {
	t.Run("merges by default", func(t *testing.T) {
		params := &cmdParams{}
		require.NoError(t, fillFlagParams(&paramutils.MockFlagSet{}, params))
		assert.Equal(t, client.MergeStrategy_MERGE, params.Strategy)
	})

	t.Run("picks the strategy flag", func(t *testing.T) {
		params := &cmdParams{}
		require.NoError(t, fillFlagParams(&paramutils.MockFlagSet{StringMap: map[string]interface{}{
			"squash":  true,
			"no-push": true,
			"dry-run": true,
		}}, params))
		assert.Equal(t, &cmdParams{Strategy: client.MergeStrategy_SQUASH, NoPush: true, DryRun: true}, params)
	})

	t.Run("fails on more than one strategy", func(t *testing.T) {
		err := fillFlagParams(&paramutils.MockFlagSet{StringMap: map[string]interface{}{
			"rebase":  true,
			"ff-only": true,
		}}, &cmdParams{})
		assert.Equal(t, errcodes.ErrConflictingStrategyFlags, err)
	})
}

func Test_execute(t *testing.T) {
	ctx := context.Background()

	t.Run("merges and pushes", func(t *testing.T) {
		g := &gitutils.MockGit{CurrentBranchValue: "feature", LocalBranches: []string{"main"}}
		out := &bytes.Buffer{}

		err := execute(ctx, g, &cmdParams{Target: "main", Strategy: client.MergeStrategy_MERGE}, out)
		require.NoError(t, err)

		assert.Equal(t, []string{"merge:main", "push:feature"}, g.Mutations)
		assert.Equal(t, "Synced feature with main (merge)\nPushed feature\n", out.String())
	})

	t.Run("dry run reports only", func(t *testing.T) {
		g := &gitutils.MockGit{CurrentBranchValue: "feature", RemoteBranches: []string{"main"}}
		out := &bytes.Buffer{}

		err := execute(ctx, g, &cmdParams{Target: "main", Strategy: client.MergeStrategy_REBASE, DryRun: true}, out)
		require.NoError(t, err)

		assert.Empty(t, g.Mutations)
		assert.Equal(t, "Would rebase origin/main into feature\n", out.String())
	})

	t.Run("stashes local changes when asked", func(t *testing.T) {
		g := &gitutils.MockGit{CurrentBranchValue: "feature", LocalBranches: []string{"main"}, Dirty: true}

		err := execute(ctx, g, &cmdParams{Target: "main", Strategy: client.MergeStrategy_MERGE, Stash: true}, &bytes.Buffer{})
		require.NoError(t, err)

		assert.Equal(t, []string{"stash", "merge:main", "push:feature", "stash-pop"}, g.Mutations)
	})

	t.Run("reports a branch that is already ahead", func(t *testing.T) {
		g := &gitutils.MockGit{
			CurrentBranchValue: "feature",
			LocalBranches:      []string{"main"},
			Ancestors:          map[string]bool{"HEAD:main": false},
		}
		out := &bytes.Buffer{}

		err := execute(ctx, g, &cmdParams{Target: "main", Strategy: client.MergeStrategy_FF_ONLY}, out)
		require.NoError(t, err)

		assert.Empty(t, g.Mutations)
		assert.Equal(t, "feature is already up to date with main\n", out.String())
	})

	t.Run("returns conflicts", func(t *testing.T) {
		g := &gitutils.MockGit{
			CurrentBranchValue: "feature",
			LocalBranches:      []string{"main"},
			MergeError:         &gitutils.ConflictError{Operation: "merge", Paths: []string{"a.go"}},
		}

		err := execute(ctx, g, &cmdParams{Target: "main", Strategy: client.MergeStrategy_MERGE}, &bytes.Buffer{})
		assert.ErrorIs(t, err, errcodes.ErrLocalGitConflict)
	})
}

func TestReport(t *testing.T) {
	out := &bytes.Buffer{}
	Report(out, &branch.SyncResult{Branch: "feature", Ref: "main", Strategy: client.MergeStrategy_FF_ONLY})
	assert.Equal(t, "Synced feature with main (ff-only)\n", out.String())
}
