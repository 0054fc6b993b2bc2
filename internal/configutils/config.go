package configutils

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"prflow/internal/errcodes"
	"prflow/internal/pkg/client"
	"prflow/internal/pkg/fs"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	globalConfigDir = "~/.config/prflow"
	LocalConfigName = ".prflowcfg"
)

type configMerger interface {
	MergeConfig(io.Reader) error
}

var (
	ErrHomeDirNotFound = errors.New("unable to determine the home directory")
	ErrConfigFileIsDir = errors.New("configuration file is a directory")
)

var filetypes = []string{"yaml", "json", "toml"}

var mergeConfig = func(in io.Reader, cm configMerger) error {
	err := cm.MergeConfig(in)
	if err != nil {
		return err
	}

	return nil
}

var fileExists = func(filename string, fs fs.Filesystem) error {
	info, err := fs.Stat(filename)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return ErrConfigFileIsDir
	}

	return nil
}

var loadFile = func(filename string, fs fs.Filesystem) (io.Reader, error) {
	err := fileExists(filename, fs)
	if err != nil {
		return nil, err
	}

	f, err := fs.Open(filename)
	if err != nil {
		return nil, err
	}

	return f, nil
}

var loadConfig = func(filename string, v *viper.Viper) error {
	f, err := loadFile(filename, fs.OS{})
	if err != nil {
		return err
	}
	if c, ok := f.(io.Closer); ok {
		defer c.Close()
	}

	return mergeConfig(f, v)
}

var getGlobalConfigDir = func() (string, error) {
	return homedir.Expand(globalConfigDir)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default.targets", []string{"develop", "main", "master"})
	v.SetDefault("merge.strategy", string(client.MergeStrategy_MERGE))
	v.SetDefault("merge.interval", "5s")
	v.SetDefault("merge.timeout", "5m")
	_ = v.BindEnv("github.token", "GITHUB_TOKEN")
	_ = v.BindEnv("llm.key", "LLM_API_KEY")
}

// MergeLocalConfig merges the repository-local configuration file found in
// path, if there is one.
func MergeLocalConfig(v *viper.Viper, path string) error {
	f := filepath.Join(path, LocalConfigName)
	if !fs.Exists(fs.OS{}, f) {
		return nil
	}

	// Try for every supported file type
	var err error
	for _, ft := range filetypes {
		v.SetConfigType(ft)
		err = loadConfig(f, v)
		if err == nil {
			return nil
		}
	}

	return errors.Wrapf(errcodes.ErrConfig, "could not load %s: %v", f, err)
}

// MergeConfigFile merges an explicitly requested configuration file.
func MergeConfigFile(v *viper.Viper, filename string) error {
	ft := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ft == "" {
		ft = "toml"
	}
	v.SetConfigType(ft)

	err := loadConfig(filename, v)
	if err != nil {
		return errors.Wrapf(errcodes.ErrConfig, "could not load %s: %v", filename, err)
	}

	return nil
}

// DefaultConfig loads the global configuration. A missing file leaves the
// defaults in place.
func DefaultConfig() (*viper.Viper, error) {
	cfgDir, err := getGlobalConfigDir()
	if err != nil {
		return nil, ErrHomeDirNotFound
	}

	v := viper.New()
	setDefaults(v)
	for _, ft := range filetypes {
		f := filepath.Join(cfgDir, fmt.Sprintf("config.%s", ft))
		v.SetConfigType(ft)
		err = loadConfig(f, v)
		if err == nil {
			return v, nil
		}
		log.Debug().
			Msgf("config loading failed for type %s, skipping to next filetype", ft)
	}

	return v, nil
}

// LoadConfigForPath returns the global configuration merged with the
// repository-local one and, when given, an explicit configuration file.
func LoadConfigForPath(path, explicit string) (*viper.Viper, error) {
	v, err := DefaultConfig()
	if err != nil {
		return nil, err
	}

	if path != "" {
		err = MergeLocalConfig(v, path)
		if err != nil {
			return nil, err
		}
	}

	if explicit != "" {
		err = MergeConfigFile(v, explicit)
		if err != nil {
			return nil, err
		}
	}

	return v, nil
}

// Aliases returns the host aliases configured for every provider.
func Aliases(v *viper.Viper) map[client.RepositoryProvider][]string {
	aliases := make(map[client.RepositoryProvider][]string)
	for _, p := range client.Providers() {
		aliases[p] = append(aliases[p], v.GetStringSlice(fmt.Sprintf("%s.aliases", p))...)
	}

	return aliases
}

type Credentials struct {
	Token     string
	Cookie    string
	CSRFToken string
	ProjectID string
	APIURL    string
}

func missing(key string) error {
	return errors.Wrapf(errcodes.ErrAuth, "%s is not configured", key)
}

// GetCredentials reads the credentials of a provider. Every provider has
// exactly one credential source.
func GetCredentials(v *viper.Viper, p client.RepositoryProvider) (*Credentials, error) {
	c := &Credentials{APIURL: v.GetString(fmt.Sprintf("%s.api_url", p))}

	switch p {
	case client.RepositoryProviderEnum.GITHUB:
		c.Token = v.GetString("github.token")
		if c.Token == "" {
			return nil, missing("github.token")
		}
	case client.RepositoryProviderEnum.CODEUP:
		c.Cookie = v.GetString("codeup.cookie")
		if c.Cookie == "" {
			return nil, missing("codeup.cookie")
		}
		c.CSRFToken = v.GetString("codeup.csrf_token")
		c.ProjectID = v.GetString("codeup.project_id")
		if c.ProjectID == "" {
			return nil, errors.Wrap(errcodes.ErrConfig, "codeup.project_id is not configured")
		}
	default:
		return nil, errcodes.ErrorRepositoryProviderUnknown
	}

	return c, nil
}
