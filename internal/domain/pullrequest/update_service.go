package pullrequest

import (
	"context"

	"prflow/internal/pkg/client"

	"github.com/rs/zerolog/log"
)

type Updater interface {
	Update(ctx context.Context, id string, o *client.UpdateOptions) (*client.PullRequest, error)
}

type UpdateService struct {
	updater Updater
}

func NewUpdateService(u Updater) *UpdateService {
	return &UpdateService{u}
}

// Update changes the title and body of current. A dry run
// returns the pull request as it would look afterwards.
func (us *UpdateService) Update(
	ctx context.Context,
	current *client.PullRequest,
	o *client.UpdateOptions,
	dryRun bool,
) (*client.PullRequest, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	if dryRun {
		log.Info().
			Str("id", current.ID).
			Bool("title", o.Title != "").
			Bool("body", o.Body != "").
			Msg("would update pull request")

		pr := *current
		if o.Title != "" {
			pr.Title = o.Title
		}
		if o.Body != "" {
			pr.Body = o.Body
		}
		return &pr, nil
	}

	return us.updater.Update(ctx, current.ID, o)
}
