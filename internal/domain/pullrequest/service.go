package pullrequest

import (
	"context"

	"prflow/internal/pkg/client"

	"github.com/rs/zerolog/log"
)

type Creator interface {
	Create(ctx context.Context, o *client.CreateOptions) (*client.PullRequest, error)
}

type Getter interface {
	Get(ctx context.Context, id string) (*client.PullRequest, error)
}

type Lister interface {
	List(ctx context.Context, o *client.ListOptions) ([]*client.PullRequest, error)
}

type BranchDeleter interface {
	DeleteBranch(ctx context.Context, name string) error
}

type Closer interface {
	Getter
	BranchDeleter
	Close(ctx context.Context, id string) (*client.PullRequest, error)
}

type CreateService struct {
	creator Creator
}

func NewCreateService(c Creator) *CreateService {
	return &CreateService{c}
}

// Create validates o and opens the pull request. A dry run returns the pull
// request that would have been opened.
func (cs *CreateService) Create(ctx context.Context, o *client.CreateOptions, dryRun bool) (*client.PullRequest, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	if dryRun {
		log.Info().
			Str("source", o.Source).
			Str("destination", o.Destination).
			Bool("draft", o.Draft).
			Msgf("would create %q", o.Title)
		return &client.PullRequest{
			Title:       o.Title,
			Body:        o.Body,
			Source:      o.Source,
			Destination: o.Destination,
			State:       client.PullRequestState_OPEN,
			Mergeable:   client.Mergeability_UNKNOWN,
		}, nil
	}

	return cs.creator.Create(ctx, o)
}

type CloseOptions struct {
	ID           string
	DeleteBranch bool
	DryRun       bool
}

type CloseService struct {
	closer Closer
}

func NewCloseService(c Closer) *CloseService {
	return &CloseService{c}
}

// Close closes the pull request and, when asked, deletes its source branch.
// A failed branch deletion is only logged.
func (cs *CloseService) Close(ctx context.Context, o *CloseOptions) (*client.PullRequest, error) {
	if o.DryRun {
		pr, err := cs.closer.Get(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		log.Info().Str("id", pr.ID).Bool("delete_branch", o.DeleteBranch).Msgf("would close %q", pr.Title)
		return pr, nil
	}

	pr, err := cs.closer.Close(ctx, o.ID)
	if err != nil {
		return nil, err
	}

	if o.DeleteBranch && pr.Source != "" {
		if err := cs.closer.DeleteBranch(ctx, pr.Source); err != nil {
			log.Warn().Err(err).Str("branch", pr.Source).Msg("could not delete source branch")
		}
	}

	return pr, nil
}
