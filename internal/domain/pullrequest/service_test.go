package pullrequest

import (
	"context"
	"testing"

	"prflow/internal/errcodes"
	"prflow/internal/pkg/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CreateService_Create(t *testing.T) {
	ctx := context.Background()
	o := &client.CreateOptions{Title: "Add login", Source: "feature", Destination: "main"}

	t.Run("validates before calling the provider", func(t *testing.T) {
		c := &client.MockClient{}
		_, err := NewCreateService(c).Create(ctx, &client.CreateOptions{Source: "feature"}, false)
		assert.Equal(t, errcodes.ErrMissingDestination, err)
		assert.Empty(t, c.Calls)
	})

	t.Run("creates a pull request", func(t *testing.T) {
		c := &client.MockClient{}
		pr, err := NewCreateService(c).Create(ctx, o, false)
		require.NoError(t, err)
		assert.Equal(t, "Add login", pr.Title)
		assert.Equal(t, []string{"create:feature->main"}, c.Calls)
	})

	t.Run("dry run does not call the provider", func(t *testing.T) {
		c := &client.MockClient{}
		pr, err := NewCreateService(c).Create(ctx, o, true)
		require.NoError(t, err)
		assert.Equal(t, "main", pr.Destination)
		assert.Empty(t, pr.ID)
		assert.Empty(t, c.Calls)
	})

	t.Run("returns provider errors", func(t *testing.T) {
		c := &client.MockClient{ErrorValue: errcodes.ErrConflict}
		_, err := NewCreateService(c).Create(ctx, o, false)
		assert.Equal(t, errcodes.ErrConflict, err)
	})
}

func Test_CloseService_Close(t *testing.T) {
	ctx := context.Background()

	t.Run("closes a pull request", func(t *testing.T) {
		c := &client.MockClient{}
		pr, err := NewCloseService(c).Close(ctx, &CloseOptions{ID: "7"})
		require.NoError(t, err)
		assert.Equal(t, client.PullRequestState_CLOSED, pr.State)
		assert.Equal(t, []string{"close:7"}, c.Calls)
	})

	t.Run("deletes the source branch when asked", func(t *testing.T) {
		c := &client.MockClient{CloseValue: &client.PullRequest{ID: "7", Source: "feature"}}
		_, err := NewCloseService(c).Close(ctx, &CloseOptions{ID: "7", DeleteBranch: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"close:7", "delete-branch:feature"}, c.Calls)
	})

	t.Run("a failed branch deletion is not an error", func(t *testing.T) {
		c := &client.MockClient{
			CloseValue:        &client.PullRequest{ID: "7", Source: "feature"},
			DeleteBranchError: errcodes.ErrNotFound,
		}
		_, err := NewCloseService(c).Close(ctx, &CloseOptions{ID: "7", DeleteBranch: true})
		assert.NoError(t, err)
	})

	t.Run("dry run only reads", func(t *testing.T) {
		c := &client.MockClient{GetValues: []*client.PullRequest{{ID: "7", Title: "Add login"}}}
		pr, err := NewCloseService(c).Close(ctx, &CloseOptions{ID: "7", DryRun: true, DeleteBranch: true})
		require.NoError(t, err)
		assert.Equal(t, "Add login", pr.Title)
		assert.Equal(t, []string{"get:7"}, c.Calls)
	})
}
