package client

import (
	"context"
	"net/http"
	"prflow/internal/errcodes"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepositoryProvider(t *testing.T) {
	t.Run("parses known hosts and names", func(t *testing.T) {
		for in, want := range map[string]RepositoryProvider{
			"github.com":        RepositoryProviderEnum.GITHUB,
			"github":            RepositoryProviderEnum.GITHUB,
			"GitHub.com":        RepositoryProviderEnum.GITHUB,
			"codeup.aliyun.com": RepositoryProviderEnum.CODEUP,
			"codeup":            RepositoryProviderEnum.CODEUP,
		} {
			p, err := ParseRepositoryProvider(in, nil)
			assert.NoError(t, err)
			assert.Equal(t, want, p, in)
		}
	})

	t.Run("parses aliases", func(t *testing.T) {
		p, err := ParseRepositoryProvider("git.corp.example", map[RepositoryProvider][]string{
			RepositoryProviderEnum.CODEUP: {"git.corp.example"},
		})
		assert.NoError(t, err)
		assert.Equal(t, RepositoryProviderEnum.CODEUP, p)
	})

	t.Run("fails for unknown hosts", func(t *testing.T) {
		_, err := ParseRepositoryProvider("gitlab.com", nil)
		assert.Equal(t, errcodes.ErrorRepositoryProviderUnknown, err)
	})
}

func TestRepositoryProvider_IsValid(t *testing.T) {
	assert.True(t, RepositoryProviderEnum.GITHUB.IsValid())
	assert.True(t, RepositoryProviderEnum.CODEUP.IsValid())
	assert.False(t, RepositoryProvider("bitbucket").IsValid())
}

func TestNewRepository(t *testing.T) {
	t.Run("splits owner and name", func(t *testing.T) {
		r, err := NewRepository(RepositoryProviderEnum.GITHUB, "owner/repo")
		require.NoError(t, err)
		assert.Equal(t, "owner", r.Owner)
		assert.Equal(t, "repo", r.Name)
		assert.Equal(t, "owner/repo", r.FullName())
	})

	t.Run("keeps nested groups in the owner", func(t *testing.T) {
		r, err := NewRepository(RepositoryProviderEnum.CODEUP, "org/group/repo")
		require.NoError(t, err)
		assert.Equal(t, "org/group", r.Owner)
		assert.Equal(t, "repo", r.Name)
	})

	t.Run("fails on malformed names", func(t *testing.T) {
		for _, in := range []string{"", "repo", "/repo", "owner/"} {
			_, err := NewRepository(RepositoryProviderEnum.GITHUB, in)
			assert.Equal(t, errcodes.ErrRepositoryMustBeInFormOwnerRepo, err, in)
		}
	})
}

func TestParseMergeStrategy(t *testing.T) {
	s, err := ParseMergeStrategy("")
	assert.NoError(t, err)
	assert.Equal(t, MergeStrategy_MERGE, s)

	s, err = ParseMergeStrategy("Squash")
	assert.NoError(t, err)
	assert.Equal(t, MergeStrategy_SQUASH, s)

	s, err = ParseMergeStrategy("ff")
	assert.NoError(t, err)
	assert.Equal(t, MergeStrategy_FF_ONLY, s)

	_, err = ParseMergeStrategy("octopus")
	assert.Equal(t, errcodes.ErrUnknownMergeStrategy, err)
}

func TestCreateOptions_Validate(t *testing.T) {
	assert.Equal(t, errcodes.ErrMissingSource, (&CreateOptions{}).Validate())
	assert.Equal(t, errcodes.ErrMissingDestination, (&CreateOptions{Source: "a"}).Validate())
	assert.Equal(t, errcodes.ErrMissingTitle, (&CreateOptions{Source: "a", Destination: "b"}).Validate())
	assert.NoError(t, (&CreateOptions{Source: "a", Destination: "b", Title: "t"}).Validate())
}

func TestListOptions_GetLimit(t *testing.T) {
	var o *ListOptions
	assert.Equal(t, DefaultListLimit, o.GetLimit())
	assert.Equal(t, DefaultListLimit, (&ListOptions{}).GetLimit())
	assert.Equal(t, 5, (&ListOptions{Limit: 5}).GetLimit())
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status  int
		message string
		want    error
	}{
		{http.StatusUnauthorized, "", errcodes.ErrAuth},
		{http.StatusForbidden, "", errcodes.ErrPermissionDenied},
		{http.StatusNotFound, "", errcodes.ErrNotFound},
		{http.StatusMethodNotAllowed, "", errcodes.ErrNotMergeable},
		{http.StatusConflict, "", errcodes.ErrConflict},
		{http.StatusUnprocessableEntity, "A pull request already exists for o:b.", errcodes.ErrConflict},
		{http.StatusUnprocessableEntity, "Validation Failed", ErrUnexpectedResponse},
		{http.StatusBadGateway, "", errcodes.ErrNetwork},
		{http.StatusBadRequest, "", ErrUnexpectedResponse},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.status)+" "+tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.status, tt.message))
		})
	}
}

func TestError(t *testing.T) {
	t.Run("matches its kind", func(t *testing.T) {
		err := errors.Wrap(NewStatusError("merge", "pull request 42", 405, "not mergeable"), "merging")
		assert.True(t, errors.Is(err, errcodes.ErrNotMergeable))
		assert.False(t, errors.Is(err, errcodes.ErrConflict))
	})

	t.Run("names the operation and target", func(t *testing.T) {
		err := NewStatusError("get", "pull request 7", 404, "Not Found")
		assert.Equal(t, "get pull request 7: not found (HTTP 404): Not Found", err.Error())
	})

	t.Run("transport errors are network errors", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewTransportError("list", "pull requests", cause)
		assert.True(t, errors.Is(err, errcodes.ErrNetwork))
		assert.True(t, errors.Is(err, cause))
	})
}

func TestIterator(t *testing.T) {
	pages := map[string][]int{"": {1, 2}, "p2": {3, 4}, "p3": {5}}
	next := map[string]string{"": "p2", "p2": "p3", "p3": ""}
	newIterator := func(calls *int) *Iterator[int] {
		return NewIterator(func(ctx context.Context, cursor string) ([]int, string, error) {
			*calls++
			return pages[cursor], next[cursor], nil
		})
	}

	t.Run("drains every page", func(t *testing.T) {
		calls := 0
		all, err := newIterator(&calls).GetAll(context.Background(), 0)
		assert.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, all)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops at the limit", func(t *testing.T) {
		calls := 0
		all, err := newIterator(&calls).GetAll(context.Background(), 3)
		assert.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, all)
		assert.Equal(t, 2, calls)
	})

	t.Run("cannot be restarted", func(t *testing.T) {
		calls := 0
		it := newIterator(&calls)
		_, err := it.GetAll(context.Background(), 0)
		assert.NoError(t, err)
		assert.False(t, it.HasNext())

		again, err := it.GetAll(context.Background(), 0)
		assert.NoError(t, err)
		assert.Empty(t, again)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns fetch errors", func(t *testing.T) {
		vErr := errors.New("page err")
		it := NewIterator(func(ctx context.Context, cursor string) ([]int, string, error) {
			return nil, "", vErr
		})
		_, err := it.GetAll(context.Background(), 0)
		assert.Equal(t, vErr, err)
	})
}
