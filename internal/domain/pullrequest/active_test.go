package pullrequest

import (
	"context"
	"testing"

	"prflow/internal/errcodes"
	"prflow/internal/pkg/client"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindActive(t *testing.T) {
	ctx := context.Background()

	t.Run("finds the pull request of the branch", func(t *testing.T) {
		c := &client.MockClient{ListValue: []*client.PullRequest{
			{ID: "1", Source: "other"},
			{ID: "2", Source: "feature"},
		}}

		pr, err := FindActive(ctx, c, "feature")
		require.NoError(t, err)
		assert.Equal(t, "2", pr.ID)
		assert.Equal(t, client.PullRequestState_OPEN, c.ListOptions[0].State)
		assert.Equal(t, activeSearchLimit, c.ListOptions[0].Limit)
	})

	t.Run("fails when the branch has no pull request", func(t *testing.T) {
		c := &client.MockClient{ListValue: []*client.PullRequest{{ID: "1", Source: "other"}}}

		_, err := FindActive(ctx, c, "feature")
		assert.True(t, errors.Is(err, ErrNoActivePullRequest))
	})

	t.Run("returns list errors", func(t *testing.T) {
		c := &client.MockClient{ErrorValue: errcodes.ErrAuth}

		_, err := FindActive(ctx, c, "feature")
		assert.Equal(t, errcodes.ErrAuth, err)
	})
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "42", NormalizeID("42"))
	assert.Equal(t, "42", NormalizeID(" #42 "))
	assert.Equal(t, "42", NormalizeID("https://github.com/acme/widgets/pull/42"))
	assert.Equal(t, "42", NormalizeID("https://github.com/acme/widgets/pull/42/files"))
	assert.Equal(t, "17", NormalizeID("https://codeup.aliyun.com/corp/widgets/change/17/code_reviews/17"))
	assert.Equal(t, "abc", NormalizeID("abc"))
}

func TestResolveID(t *testing.T) {
	ctx := context.Background()

	t.Run("uses the given id", func(t *testing.T) {
		c := &client.MockClient{}
		id, err := ResolveID(ctx, c, "#9", "feature")
		require.NoError(t, err)
		assert.Equal(t, "9", id)
		assert.Empty(t, c.Calls)
	})

	t.Run("falls back to the active pull request", func(t *testing.T) {
		c := &client.MockClient{ListValue: []*client.PullRequest{{ID: "3", Source: "feature"}}}
		id, err := ResolveID(ctx, c, "", "feature")
		require.NoError(t, err)
		assert.Equal(t, "3", id)
	})
}
