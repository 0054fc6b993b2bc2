package reword

import (
	"prflow/internal/cli/paramutils"
	"prflow/internal/domain/summary"
	"prflow/internal/pkg/client"
)

type cmdParams struct {
	Title       bool
	Description bool
	DryRun      bool
	Force       bool
}

func fillFlagParams(flags paramutils.FlagRepo, params *cmdParams) {
	params.Title = flags.GetBoolOrDefault("title", params.Title)
	params.Description = flags.GetBoolOrDefault("description", params.Description)
	params.DryRun = flags.GetBoolOrDefault("dry-run", params.DryRun)
	params.Force = flags.GetBoolOrDefault("force", params.Force)
}

// Without --title or --description both fields are rewritten.
func (p *cmdParams) updatesTitle() bool {
	return p.Title || !p.Description
}

func (p *cmdParams) updatesBody() bool {
	return p.Description || !p.Title
}

func (p *cmdParams) updateOptions(r *summary.Rewording) *client.UpdateOptions {
	o := &client.UpdateOptions{}
	if p.updatesTitle() {
		o.Title = r.Title
	}
	if p.updatesBody() {
		o.Body = r.Description
	}

	return o
}
