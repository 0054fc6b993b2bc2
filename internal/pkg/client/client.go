package client

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"prflow/internal/errcodes"

	"golang.org/x/exp/slices"
)

// DefaultListLimit is used when ListOptions.Limit is not set.
const DefaultListLimit = 30

// Client is the capability set every hosting provider offers.
type Client interface {
	Create(ctx context.Context, o *CreateOptions) (*PullRequest, error)
	Get(ctx context.Context, id string) (*PullRequest, error)
	List(ctx context.Context, o *ListOptions) ([]*PullRequest, error)
	Merge(ctx context.Context, o *MergeOptions) error
	Close(ctx context.Context, id string) (*PullRequest, error)
	Update(ctx context.Context, id string, o *UpdateOptions) (*PullRequest, error)
	DeleteBranch(ctx context.Context, name string) error
}

type RepositoryProvider string

func (rp RepositoryProvider) IsValid() bool {
	v := reflect.ValueOf(*RepositoryProviderEnum)

	for i := 0; i < v.NumField(); i++ {
		if rp == v.Field(i).Interface() {
			return true
		}
	}

	return false
}

type list struct {
	GITHUB RepositoryProvider
	CODEUP RepositoryProvider
}

var RepositoryProviderEnum = &list{
	GITHUB: RepositoryProvider("github"),
	CODEUP: RepositoryProvider("codeup"),
}

// Providers lists every supported provider.
func Providers() []RepositoryProvider {
	return []RepositoryProvider{
		RepositoryProviderEnum.GITHUB,
		RepositoryProviderEnum.CODEUP,
	}
}

// ParseRepositoryProvider maps a provider name or remote host to a provider.
// Hosts configured as aliases are matched as well.
func ParseRepositoryProvider(
	s string,
	aliases map[RepositoryProvider][]string,
) (RepositoryProvider, error) {
	switch strings.ToLower(s) {
	case "github.com", "github":
		return RepositoryProviderEnum.GITHUB, nil
	case "codeup.aliyun.com", "codeup":
		return RepositoryProviderEnum.CODEUP, nil
	}

	for _, p := range Providers() {
		if slices.Contains(aliases[p], s) {
			return p, nil
		}
	}

	return "", errcodes.ErrorRepositoryProviderUnknown
}

type Repository struct {
	Provider RepositoryProvider
	Owner    string
	Name     string
}

func (r *Repository) FullName() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// NewRepository parses an owner/repo name. The owner part may contain
// slashes for nested groups.
func NewRepository(provider RepositoryProvider, fullName string) (*Repository, error) {
	i := strings.LastIndex(fullName, "/")
	if i <= 0 || i == len(fullName)-1 {
		return nil, errcodes.ErrRepositoryMustBeInFormOwnerRepo
	}

	return &Repository{
		Provider: provider,
		Owner:    fullName[:i],
		Name:     fullName[i+1:],
	}, nil
}

type PullRequestState string

const (
	PullRequestState_OPEN   PullRequestState = "OPEN"
	PullRequestState_CLOSED PullRequestState = "CLOSED"
	PullRequestState_MERGED PullRequestState = "MERGED"
)

type Mergeability string

const (
	Mergeability_UNKNOWN    Mergeability = "UNKNOWN"
	Mergeability_MERGEABLE  Mergeability = "MERGEABLE"
	Mergeability_CONFLICTED Mergeability = "CONFLICTED"
)

type MergeStrategy string

const (
	MergeStrategy_MERGE   MergeStrategy = "merge"
	MergeStrategy_SQUASH  MergeStrategy = "squash"
	MergeStrategy_REBASE  MergeStrategy = "rebase"
	MergeStrategy_FF_ONLY MergeStrategy = "ff-only"
)

func ParseMergeStrategy(s string) (MergeStrategy, error) {
	switch MergeStrategy(strings.ToLower(s)) {
	case "", MergeStrategy_MERGE:
		return MergeStrategy_MERGE, nil
	case MergeStrategy_SQUASH:
		return MergeStrategy_SQUASH, nil
	case MergeStrategy_REBASE:
		return MergeStrategy_REBASE, nil
	case MergeStrategy_FF_ONLY, "ff", "fast-forward":
		return MergeStrategy_FF_ONLY, nil
	}

	return "", errcodes.ErrUnknownMergeStrategy
}

type PullRequest struct {
	ID          string
	Title       string
	Body        string
	Source      string
	Destination string
	State       PullRequestState
	Mergeable   Mergeability
	URL         string
	Created     time.Time
	Updated     time.Time
}

type CreateOptions struct {
	Title       string
	Body        string
	Source      string
	Destination string
	Draft       bool
}

func (o *CreateOptions) Validate() error {
	if o.Source == "" {
		return errcodes.ErrMissingSource
	}
	if o.Destination == "" {
		return errcodes.ErrMissingDestination
	}
	if o.Title == "" {
		return errcodes.ErrMissingTitle
	}

	return nil
}

// UpdateOptions changes the title and the body of a pull request. Empty
// fields are left as they are.
type UpdateOptions struct {
	Title string
	Body  string
}

func (o *UpdateOptions) Validate() error {
	if o == nil || (o.Title == "" && o.Body == "") {
		return errcodes.ErrNothingToUpdate
	}

	return nil
}

type ListOptions struct {
	// State filters the result, an empty state lists everything.
	State PullRequestState
	Limit int
}

func (o *ListOptions) GetLimit() int {
	if o == nil || o.Limit <= 0 {
		return DefaultListLimit
	}

	return o.Limit
}

type MergeOptions struct {
	ID       string
	Strategy MergeStrategy
}
