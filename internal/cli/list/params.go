package list

import (
	"strings"

	"prflow/internal/cli/paramutils"
	"prflow/internal/pkg/client"

	"github.com/pkg/errors"
)

var ErrUnknownState = errors.New("state is unknown, expected (open, closed, merged, all)")

type listCmdParams struct {
	State string
	Limit int
}

func fillFlagListCmdParams(flags paramutils.FlagRepo, params *listCmdParams) {
	params.State = flags.GetStringOrDefault("state", params.State)
	params.Limit = flags.GetIntOrDefault("limit", params.Limit)
}

// listOptions validates params and turns them into client options.
func listOptions(params *listCmdParams) (*client.ListOptions, error) {
	o := &client.ListOptions{Limit: params.Limit}

	switch strings.ToLower(params.State) {
	case "", "open":
		o.State = client.PullRequestState_OPEN
	case "closed":
		o.State = client.PullRequestState_CLOSED
	case "merged":
		o.State = client.PullRequestState_MERGED
	case "all":
	default:
		return nil, errors.Wrapf(ErrUnknownState, "%s", params.State)
	}

	return o, nil
}
