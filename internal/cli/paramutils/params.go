package paramutils

import (
	"os"
	"time"

	"prflow/internal/clientutils"
	"prflow/internal/configutils"
	"prflow/internal/errcodes"
	"prflow/internal/gitutils"
	"prflow/internal/pkg/client"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type RepositoryParams struct {
	Provider client.RepositoryProvider
	Name     string
}

func (p *RepositoryParams) IsExplicit() bool {
	return p.Name != "" && p.Provider != ""
}

type FlagRepo interface {
	GetStringOrDefault(flag, d string) string
	GetBoolOrDefault(flag string, d bool) bool
	GetIntOrDefault(flag string, d int) int
	GetDurationOrDefault(flag string, d time.Duration) time.Duration
}

func NewFlagRepo(flags *pflag.FlagSet) FlagRepo {
	return &PFlagSetWrapper{Flags: flags}
}

type PFlagSetWrapper struct {
	Flags *pflag.FlagSet
}

func (fs *PFlagSetWrapper) GetStringOrDefault(flag, d string) string {
	s, err := fs.Flags.GetString(flag)
	if err != nil || s == "" {
		return d
	}

	return s
}

func (fs *PFlagSetWrapper) GetBoolOrDefault(flag string, d bool) bool {
	s, err := fs.Flags.GetBool(flag)
	if err != nil || !fs.Flags.Changed(flag) {
		return d
	}

	return s
}

func (fs *PFlagSetWrapper) GetIntOrDefault(flag string, d int) int {
	i, err := fs.Flags.GetInt(flag)
	if err != nil || !fs.Flags.Changed(flag) {
		return d
	}

	return i
}

func (fs *PFlagSetWrapper) GetDurationOrDefault(flag string, d time.Duration) time.Duration {
	v, err := fs.Flags.GetDuration(flag)
	if err != nil || !fs.Flags.Changed(flag) {
		return d
	}

	return v
}

func FillFlagRepositoryParams(flags FlagRepo, params *RepositoryParams) {
	var (
		repo     = flags.GetStringOrDefault("repository", params.Name)
		provider = flags.GetStringOrDefault("provider", string(params.Provider))
	)

	params.Name = repo
	params.Provider = client.RepositoryProvider(provider)
}

func ValidateFlagRepositoryParams(params *RepositoryParams) error {
	if (params.Name == "") != (params.Provider == "") {
		return errcodes.ErrSomeRepoParamsMissing
	}

	if params.IsExplicit() {
		_, err := client.NewRepository(params.Provider, params.Name)
		if err != nil {
			return err
		}

		if !params.Provider.IsValid() {
			return errcodes.ErrorRepositoryProviderUnknown
		}
	}

	return nil
}

func ParseIDArg(args []string) string {
	id := ""
	if len(args) > 0 {
		id = args[0]
	}

	return id
}

// Environment is what a command works with once the repository it runs in
// is known.
type Environment struct {
	Context *gitutils.RepositoryContext
	Config  *viper.Viper
	Client  client.Client
	Git     gitutils.Git
	Factory clientutils.ClientFactory
}

var (
	getWorkingDir            = os.Getwd
	loadConfig               = configutils.LoadConfigForPath
	resolveRepositoryContext = gitutils.ResolveRepositoryContext
	newClient                = func(cf clientutils.ClientFactory, r *client.Repository) (client.Client, error) {
		return cf.DefaultClient(r)
	}
)

// GetRepoPath returns the root of the repository containing wd, or wd itself
// outside of a repository.
func GetRepoPath(wd string) string {
	g, err := gitutils.GetRepo(wd)
	if err != nil {
		return wd
	}

	return g.RootDir()
}

// LoadGit returns the git of the repository containing the working
// directory, for commands that do not talk to the provider.
func LoadGit() (gitutils.Git, error) {
	wd, err := getWorkingDir()
	if err != nil {
		return nil, err
	}

	g, err := gitutils.GetRepo(wd)
	if err != nil {
		return nil, err
	}

	return gitutils.NewCommandGit(g.RootDir()), nil
}

// LoadEnvironment resolves the repository context, loads the configuration
// and builds the provider client. --repository and --provider override the
// repository found in the working directory, and make a repository optional.
func LoadEnvironment(flags FlagRepo) (*Environment, error) {
	params := &RepositoryParams{}
	FillFlagRepositoryParams(flags, params)
	err := ValidateFlagRepositoryParams(params)
	if err != nil {
		return nil, err
	}

	wd, err := getWorkingDir()
	if err != nil {
		return nil, err
	}
	path := GetRepoPath(wd)

	cfg, err := loadConfig(path, flags.GetStringOrDefault("config", ""))
	if err != nil {
		return nil, err
	}

	rc, err := resolveRepositoryContext(path, configutils.Aliases(cfg))
	if params.IsExplicit() {
		if err != nil {
			rc = &gitutils.RepositoryContext{Path: path}
		}
		repo, _ := client.NewRepository(params.Provider, params.Name)
		rc.Provider = repo.Provider
		rc.Owner = repo.Owner
		rc.Name = repo.Name
	} else if err != nil {
		return nil, err
	}

	cf := clientutils.ClientFactory{Config: cfg}
	cl, err := newClient(cf, rc.Repository())
	if err != nil {
		return nil, err
	}

	return &Environment{
		Context: rc,
		Config:  cfg,
		Client:  cl,
		Git:     gitutils.NewCommandGit(rc.Path),
		Factory: cf,
	}, nil
}
