package close

import (
	"prflow/internal/cli/paramutils"
)

type cmdArgs struct {
	ID string
}

func parseArgs(args []string) *cmdArgs {
	return &cmdArgs{ID: paramutils.ParseIDArg(args)}
}

type cmdParams struct {
	DeleteBranch bool
	DryRun       bool
}

func fillFlagCloseCmdParams(flags paramutils.FlagRepo, params *cmdParams) {
	params.DeleteBranch = flags.GetBoolOrDefault("delete-branch", params.DeleteBranch)
	params.DryRun = flags.GetBoolOrDefault("dry-run", params.DryRun)
}
