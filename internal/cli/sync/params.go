package sync

import (
	"prflow/internal/cli/paramutils"
	"prflow/internal/errcodes"
	"prflow/internal/pkg/client"
)

type cmdParams struct {
	Target   string
	Strategy client.MergeStrategy
	NoPush   bool
	DryRun   bool
	Stash    bool
}

var strategyFlags = []struct {
	flag     string
	strategy client.MergeStrategy
}{
	{"rebase", client.MergeStrategy_REBASE},
	{"squash", client.MergeStrategy_SQUASH},
	{"ff-only", client.MergeStrategy_FF_ONLY},
}

func fillFlagParams(flags paramutils.FlagRepo, params *cmdParams) error {
	params.Strategy = client.MergeStrategy_MERGE
	set := 0
	for _, f := range strategyFlags {
		if flags.GetBoolOrDefault(f.flag, false) {
			params.Strategy = f.strategy
			set++
		}
	}
	if set > 1 {
		return errcodes.ErrConflictingStrategyFlags
	}

	params.NoPush = flags.GetBoolOrDefault("no-push", params.NoPush)
	params.DryRun = flags.GetBoolOrDefault("dry-run", params.DryRun)
	params.Stash = flags.GetBoolOrDefault("stash", params.Stash)

	return nil
}
