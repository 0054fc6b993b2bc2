package reword

import (
	"bytes"
	"context"
	"testing"

	"prflow/internal/cli/paramutils"
	"prflow/internal/domain/summary"
	"prflow/internal/errcodes"
	"prflow/internal/gitutils"
	"prflow/internal/pkg/client"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = "diff --git a/a.go b/a.go\n--- a/a.go\n+++ b/a.go\n@@ -1 +1 @@\n-old\n+new\n"

func newGenerator(c *client.MockClient, answer string) *summary.Requester {
	return summary.NewRequester(c, &gitutils.MockGit{DiffValue: sampleDiff}, &summary.MockLLM{RewordValue: answer})
}

func testPR() *client.PullRequest {
	return &client.PullRequest{
		ID:          "7",
		Title:       "wip",
		Source:      "feature/login",
		Destination: "main",
		URL:         "https://github.com/owner/repo/pull/7",
	}
}

func Test_fillFlagParams(t *testing.T) {
	params := &cmdParams{}
	fillFlagParams(&paramutils.MockFlagSet{StringMap: map[string]interface{}{
		"title":   true,
		"dry-run": true,
	}}, params)

	assert.Equal(t, &cmdParams{Title: true, DryRun: true}, params)
}

func Test_cmdParams_updateOptions(t *testing.T) {
	r := &summary.Rewording{Title: "Add login", Description: "Adds a login page."}
	tests := []struct {
		name   string
		params *cmdParams
		want   *client.UpdateOptions
	}{
		{"both by default", &cmdParams{}, &client.UpdateOptions{Title: "Add login", Body: "Adds a login page."}},
		{"only the title", &cmdParams{Title: true}, &client.UpdateOptions{Title: "Add login"}},
		{"only the description", &cmdParams{Description: true}, &client.UpdateOptions{Body: "Adds a login page."}},
		{"both when both are set", &cmdParams{Title: true, Description: true}, &client.UpdateOptions{Title: "Add login", Body: "Adds a login page."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.params.updateOptions(r))
		})
	}
}

func Test_execute(t *testing.T) {
	ctx := context.Background()
	answer := `{"pr_title": "Add login", "description": "Adds a login page."}`
	oldConfirm := confirm
	defer func() { confirm = oldConfirm }()

	t.Run("updates after confirmation", func(t *testing.T) {
		c := &client.MockClient{GetValues: []*client.PullRequest{testPR()}}
		confirm = func(message string, def bool) (bool, error) {
			assert.Equal(t, "Update pull request #7 with the generated title and description?", message)
			return true, nil
		}
		out := &bytes.Buffer{}

		err := execute(ctx, newGenerator(c, answer), c, "7", &cmdParams{}, out)
		require.NoError(t, err)

		assert.Equal(t, []string{"get:7", "update:7"}, c.Calls)
		assert.Equal(t, &client.UpdateOptions{Title: "Add login", Body: "Adds a login page."}, c.UpdateOptions[0])
		assert.Contains(t, out.String(), "current: wip")
		assert.Contains(t, out.String(), "new:     Add login")
		assert.Contains(t, out.String(), "Updated pull request #7")
		assert.Contains(t, out.String(), "https://github.com/owner/repo/pull/7")
	})

	t.Run("only the title", func(t *testing.T) {
		c := &client.MockClient{GetValues: []*client.PullRequest{testPR()}}
		confirm = func(message string, def bool) (bool, error) {
			assert.Equal(t, `Update the title of pull request #7 to "Add login"?`, message)
			return true, nil
		}

		err := execute(ctx, newGenerator(c, answer), c, "7", &cmdParams{Title: true}, &bytes.Buffer{})
		require.NoError(t, err)

		assert.Equal(t, &client.UpdateOptions{Title: "Add login"}, c.UpdateOptions[0])
	})

	t.Run("aborts when not confirmed", func(t *testing.T) {
		c := &client.MockClient{GetValues: []*client.PullRequest{testPR()}}
		confirm = func(message string, def bool) (bool, error) { return false, nil }
		out := &bytes.Buffer{}

		err := execute(ctx, newGenerator(c, answer), c, "7", &cmdParams{}, out)
		require.NoError(t, err)

		assert.Equal(t, []string{"get:7"}, c.Calls)
		assert.Contains(t, out.String(), "Aborted")
	})

	t.Run("dry run never updates", func(t *testing.T) {
		c := &client.MockClient{GetValues: []*client.PullRequest{testPR()}}
		confirm = func(message string, def bool) (bool, error) {
			t.Fatal("asked for confirmation")
			return false, nil
		}
		out := &bytes.Buffer{}

		err := execute(ctx, newGenerator(c, answer), c, "7", &cmdParams{DryRun: true}, out)
		require.NoError(t, err)

		assert.Equal(t, []string{"get:7"}, c.Calls)
		assert.Contains(t, out.String(), "Dry run, pull request #7 was not updated")
	})

	t.Run("force skips the confirmation", func(t *testing.T) {
		c := &client.MockClient{GetValues: []*client.PullRequest{testPR()}}
		confirm = func(message string, def bool) (bool, error) {
			t.Fatal("asked for confirmation")
			return false, nil
		}

		err := execute(ctx, newGenerator(c, answer), c, "7", &cmdParams{Force: true}, &bytes.Buffer{})
		require.NoError(t, err)

		assert.Equal(t, []string{"get:7", "update:7"}, c.Calls)
	})

	t.Run("returns generation errors", func(t *testing.T) {
		c := &client.MockClient{GetValues: []*client.PullRequest{testPR()}}

		err := execute(ctx, newGenerator(c, "no json here"), c, "7", &cmdParams{Force: true}, &bytes.Buffer{})
		assert.ErrorIs(t, err, errcodes.ErrUnavailable)
		assert.Equal(t, []string{"get:7"}, c.Calls)
	})
}

func Test_runCmd(t *testing.T) {
	t.Run("returns error if the environment cannot be loaded", func(t *testing.T) {
		old := loadEnvironment
		defer func() { loadEnvironment = old }()
		loadEnvironment = func(flags paramutils.FlagRepo) (*paramutils.Environment, error) {
			return nil, errcodes.ErrNoRecognizedRemote
		}

		err := runCmd(New(), []string{})
		assert.Equal(t, errcodes.ErrNoRecognizedRemote, err)
	})
}
