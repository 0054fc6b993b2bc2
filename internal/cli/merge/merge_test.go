package merge

import (
	"bytes"
	"context"
	"testing"
	"time"

	"prflow/internal/cli/paramutils"
	"prflow/internal/errcodes"
	"prflow/internal/gitutils"
	"prflow/internal/pkg/client"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPR(state client.PullRequestState, m client.Mergeability) *client.PullRequest {
	return &client.PullRequest{
		ID:          "7",
		Title:       "Add login",
		Source:      "feature/login",
		Destination: "main",
		State:       state,
		Mergeable:   m,
	}
}

func testParams() *cmdParams {
	return &cmdParams{
		Strategy: client.MergeStrategy_SQUASH,
		Interval: time.Millisecond,
		Timeout:  time.Second,
	}
}

func Test_execute(t *testing.T) {
	ctx := context.Background()

	t.Run("merges a mergeable pull request", func(t *testing.T) {
		c := &client.MockClient{GetValues: []*client.PullRequest{
			testPR(client.PullRequestState_OPEN, client.Mergeability_MERGEABLE),
		}}
		params := testParams()
		params.DeleteBranch = true
		out := &bytes.Buffer{}

		err := execute(ctx, c, "7", params, out)
		require.NoError(t, err)

		assert.Equal(t, []string{"get:7", "merge:7:squash", "delete-branch:feature/login"}, c.Calls)
		assert.Contains(t, out.String(), "#7 merging")
		assert.Contains(t, out.String(), "Merged pull request #7: feature/login -> main")
		assert.Contains(t, out.String(), "Deleted branch feature/login")
	})

	t.Run("reports a pull request merged by someone else", func(t *testing.T) {
		c := &client.MockClient{GetValues: []*client.PullRequest{
			testPR(client.PullRequestState_MERGED, client.Mergeability_UNKNOWN),
		}}
		params := testParams()
		params.DeleteBranch = true
		out := &bytes.Buffer{}

		err := execute(ctx, c, "7", params, out)
		require.NoError(t, err)

		assert.Equal(t, 0, c.MergeCount())
		assert.Contains(t, out.String(), "Pull request #7 was already merged")
		assert.NotContains(t, out.String(), "Deleted branch")
	})

	t.Run("fails with a conflict", func(t *testing.T) {
		c := &client.MockClient{GetValues: []*client.PullRequest{
			testPR(client.PullRequestState_OPEN, client.Mergeability_CONFLICTED),
		}}

		err := execute(ctx, c, "7", testParams(), &bytes.Buffer{})
		assert.ErrorIs(t, err, errcodes.ErrConflict)
		assert.Equal(t, 0, c.MergeCount())
	})

	t.Run("times out while mergeability is unknown", func(t *testing.T) {
		c := &client.MockClient{GetValues: []*client.PullRequest{
			testPR(client.PullRequestState_OPEN, client.Mergeability_UNKNOWN),
		}}
		params := testParams()
		params.Timeout = 5 * time.Millisecond

		err := execute(ctx, c, "7", params, &bytes.Buffer{})
		assert.ErrorIs(t, err, errcodes.ErrTimeout)
	})

	t.Run("dry run only checks", func(t *testing.T) {
		c := &client.MockClient{GetValues: []*client.PullRequest{
			testPR(client.PullRequestState_OPEN, client.Mergeability_MERGEABLE),
		}}
		params := testParams()
		params.DryRun = true
		out := &bytes.Buffer{}

		err := execute(ctx, c, "7", params, out)
		require.NoError(t, err)

		assert.Equal(t, []string{"get:7"}, c.Calls)
		assert.Contains(t, out.String(), "Pull request #7 (feature/login -> main) is MERGEABLE, would merge with squash")
	})
}

type mockPusher struct {
	Branches []string
	Err      error
}

func (m *mockPusher) Push(ctx context.Context, branch string, o *gitutils.PushOptions) error {
	m.Branches = append(m.Branches, branch)
	return m.Err
}

func Test_pushSource(t *testing.T) {
	ctx := context.Background()
	c := &client.MockClient{GetValues: []*client.PullRequest{
		testPR(client.PullRequestState_OPEN, client.Mergeability_UNKNOWN),
	}}

	t.Run("pushes the source branch", func(t *testing.T) {
		p := &mockPusher{}
		require.NoError(t, pushSource(ctx, p, c, "7", "feature/login", false))
		assert.Equal(t, []string{"feature/login"}, p.Branches)
	})

	t.Run("skips other branches", func(t *testing.T) {
		p := &mockPusher{}
		require.NoError(t, pushSource(ctx, p, c, "7", "main", false))
		assert.Empty(t, p.Branches)
	})

	t.Run("skips in a dry run", func(t *testing.T) {
		p := &mockPusher{}
		require.NoError(t, pushSource(ctx, p, c, "7", "feature/login", true))
		assert.Empty(t, p.Branches)
	})

	t.Run("fails when the push fails", func(t *testing.T) {
		p := &mockPusher{Err: errcodes.ErrNetwork}
		assert.ErrorIs(t, pushSource(ctx, p, c, "7", "feature/login", false), errcodes.ErrNetwork)
	})

	t.Run("fails when the pull request cannot be read", func(t *testing.T) {
		p := &mockPusher{}
		err := pushSource(ctx, p, &client.MockClient{ErrorValue: errcodes.ErrNotFound}, "7", "feature/login", false)
		assert.ErrorIs(t, err, errcodes.ErrNotFound)
		assert.Empty(t, p.Branches)
	})
}

func Test_runCmd(t *testing.T) {
	oldLoadEnvironment, oldConfirm := loadEnvironment, confirm
	defer func() { loadEnvironment, confirm = oldLoadEnvironment, oldConfirm }()

	stubEnvironment := func(c *client.MockClient) {
		v := viper.New()
		v.Set("merge.interval", "1ms")
		v.Set("merge.timeout", "1s")
		loadEnvironment = func(flags paramutils.FlagRepo) (*paramutils.Environment, error) {
			return &paramutils.Environment{
				Context: &gitutils.RepositoryContext{Branch: "feature/login"},
				Config:  v,
				Client:  c,
			}, nil
		}
	}
	run := func(args ...string) string {
		out := &bytes.Buffer{}
		cmd := New()
		cmd.SetArgs(append([]string{}, args...))
		cmd.SetOut(out)
		require.NoError(t, cmd.ExecuteContext(context.Background()))
		return out.String()
	}

	t.Run("aborts when the merge is not confirmed", func(t *testing.T) {
		pr := testPR(client.PullRequestState_OPEN, client.Mergeability_MERGEABLE)
		c := &client.MockClient{ListValue: []*client.PullRequest{pr}, GetValues: []*client.PullRequest{pr}}
		stubEnvironment(c)
		confirm = func(message string, def bool) (bool, error) {
			assert.Equal(t, "Merge pull request #7 (merge)?", message)
			return false, nil
		}

		out := run()

		assert.Equal(t, []string{"list:OPEN"}, c.Calls)
		assert.Contains(t, out, "Aborted")
	})

	t.Run("merges the active pull request", func(t *testing.T) {
		pr := testPR(client.PullRequestState_OPEN, client.Mergeability_MERGEABLE)
		c := &client.MockClient{ListValue: []*client.PullRequest{pr}, GetValues: []*client.PullRequest{pr}}
		stubEnvironment(c)
		confirm = func(message string, def bool) (bool, error) { return true, nil }

		out := run("--strategy", "rebase")

		assert.Equal(t, []string{"list:OPEN", "get:7", "merge:7:rebase"}, c.Calls)
		assert.Contains(t, out, "Merged pull request #7")
	})

	t.Run("force skips the confirmation", func(t *testing.T) {
		pr := testPR(client.PullRequestState_OPEN, client.Mergeability_MERGEABLE)
		c := &client.MockClient{GetValues: []*client.PullRequest{pr}}
		stubEnvironment(c)
		confirm = func(message string, def bool) (bool, error) {
			t.Fatal("asked for confirmation")
			return false, nil
		}

		run("#7", "--force")

		assert.Equal(t, []string{"get:7", "merge:7:merge"}, c.Calls)
	})
}
