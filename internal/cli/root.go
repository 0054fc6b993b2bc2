package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	closecmd "prflow/internal/cli/close"
	createcmd "prflow/internal/cli/create"
	listcmd "prflow/internal/cli/list"
	mergecmd "prflow/internal/cli/merge"
	"prflow/internal/cli/paramutils"
	pickcmd "prflow/internal/cli/pick"
	rebasecmd "prflow/internal/cli/rebase"
	rewordcmd "prflow/internal/cli/reword"
	statuscmd "prflow/internal/cli/status"
	summarizecmd "prflow/internal/cli/summarize"
	synccmd "prflow/internal/cli/sync"
	"prflow/internal/cli/utils"
	"prflow/internal/configutils"
	"prflow/internal/logutils"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var logCloser io.Closer

func closeLog() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
}

// logFile reads log.file from the configuration of the working directory.
// Configuration errors are reported by the command itself.
func logFile(configPath string) string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}

	cfg, err := configutils.LoadConfigForPath(paramutils.GetRepoPath(wd), configPath)
	if err != nil {
		return ""
	}

	return cfg.GetString("log.file")
}

func setUpLogging(cmd *cobra.Command) {
	flags := paramutils.NewFlagRepo(cmd.Flags())

	logCloser = logutils.Setup(&logutils.Options{
		Verbose: flags.GetBoolOrDefault("verbose", false),
		File:    logFile(flags.GetStringOrDefault("config", "")),
	})

	log.Debug().Str("command", cmd.CommandPath()).Str("version", version).Msg("starting")
}

var rootCmd = &cobra.Command{
	Use:     "pr",
	Short:   "pr command-line utility for pull requests",
	Long:    `Command-line utility to create, merge and keep pull request branches in sync.`,
	Version: fmt.Sprintf("%v, commit %v, built at %v", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setUpLogging(cmd)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// run executes cmd and returns the process exit code. The log file is
// closed before the error is printed.
func run(ctx context.Context, cmd *cobra.Command, errOut io.Writer) int {
	err := cmd.ExecuteContext(ctx)
	closeLog()

	return utils.ReportError(errOut, err)
}

func Execute() {
	rootCmd.AddCommand(
		createcmd.New(),
		mergecmd.New(),
		closecmd.New(),
		statuscmd.New(),
		listcmd.New(),
		synccmd.New(),
		rebasecmd.New(),
		pickcmd.New(),
		summarizecmd.New(),
		rewordcmd.New(),
	)

	rootCmd.PersistentFlags().StringP("repository", "r", "", "repository in form of owner/repo")
	rootCmd.PersistentFlags().StringP("provider", "p", "", "repository host, values - (github, codeup)")
	rootCmd.PersistentFlags().String("config", "", "config path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, rootCmd, os.Stderr)
	stop()

	if code != 0 {
		os.Exit(code)
	}
}
