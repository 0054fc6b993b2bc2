package clientutils

import (
	"prflow/internal/configutils"
	"prflow/internal/errcodes"
	"prflow/internal/pkg/client"
	"prflow/internal/pkg/codeup"
	"prflow/internal/pkg/github"
	"prflow/internal/pkg/llm"

	"github.com/spf13/viper"
)

// ClientFactory builds provider clients from configuration.
type ClientFactory struct {
	Config *viper.Viper
}

// DefaultClient returns the client of the repository's provider. Only the
// known providers are accepted.
func (cf ClientFactory) DefaultClient(repo *client.Repository) (client.Client, error) {
	if !repo.Provider.IsValid() {
		return nil, errcodes.ErrorRepositoryProviderUnknown
	}

	creds, err := configutils.GetCredentials(cf.Config, repo.Provider)
	if err != nil {
		return nil, err
	}

	switch repo.Provider {
	case client.RepositoryProviderEnum.GITHUB:
		return github.New(&github.ClientOptions{
			Repository: repo,
			Token:      creds.Token,
			BaseURL:    creds.APIURL,
		}), nil
	case client.RepositoryProviderEnum.CODEUP:
		return codeup.New(&codeup.ClientOptions{
			Repository: repo,
			ProjectID:  creds.ProjectID,
			Cookie:     creds.Cookie,
			CSRFToken:  creds.CSRFToken,
			BaseURL:    creds.APIURL,
		}), nil
	}

	return nil, errcodes.ErrorRepositoryProviderUnknown
}

// DefaultLLM returns the summary model client configured under llm.
func (cf ClientFactory) DefaultLLM() (*llm.Client, error) {
	return llm.New(&llm.ClientOptions{
		URL:     cf.Config.GetString("llm.url"),
		Key:     cf.Config.GetString("llm.key"),
		Model:   cf.Config.GetString("llm.model"),
		Timeout: cf.Config.GetDuration("llm.timeout"),
	})
}
