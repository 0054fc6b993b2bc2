package merge

import (
	"time"

	"prflow/internal/cli/paramutils"
	"prflow/internal/pkg/client"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var (
	ErrInvalidInterval = errors.New("interval must be positive")
	ErrInvalidTimeout  = errors.New("timeout must be positive")
)

type cmdArgs struct {
	ID string
}

func parseArgs(args []string) *cmdArgs {
	return &cmdArgs{ID: paramutils.ParseIDArg(args)}
}

type cmdParams struct {
	StrategyName string
	Strategy     client.MergeStrategy
	Force        bool
	Push         bool
	DeleteBranch bool
	DryRun       bool
	Interval     time.Duration
	Timeout      time.Duration
}

func fillDefaultParams(cfg *viper.Viper, params *cmdParams) {
	params.StrategyName = cfg.GetString("merge.strategy")
	params.Interval = cfg.GetDuration("merge.interval")
	params.Timeout = cfg.GetDuration("merge.timeout")
	params.DeleteBranch = cfg.GetBool("merge.delete_branch")
}

func fillFlagParams(flags paramutils.FlagRepo, params *cmdParams) {
	params.StrategyName = flags.GetStringOrDefault("strategy", params.StrategyName)
	params.Force = flags.GetBoolOrDefault("force", params.Force)
	params.Push = flags.GetBoolOrDefault("push", params.Push)
	params.DeleteBranch = flags.GetBoolOrDefault("delete-branch", params.DeleteBranch)
	params.DryRun = flags.GetBoolOrDefault("dry-run", params.DryRun)
	params.Interval = flags.GetDurationOrDefault("interval", params.Interval)
	params.Timeout = flags.GetDurationOrDefault("timeout", params.Timeout)
}

var validateParams = func(params *cmdParams) error {
	s, err := client.ParseMergeStrategy(params.StrategyName)
	if err != nil {
		return err
	}
	params.Strategy = s

	if params.Interval <= 0 {
		return ErrInvalidInterval
	}
	if params.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	return nil
}
