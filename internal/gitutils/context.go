package gitutils

import (
	"net/url"
	"regexp"
	"strings"

	"prflow/internal/errcodes"
	"prflow/internal/pkg/client"

	"github.com/pkg/errors"
)

var (
	ErrUnableToParseRemoteRepositoryURI = errors.New("unable to parse remote repository URI")

	scpLikeURLRegexp = regexp.MustCompile(`^(?:[\w.~-]+@)?([\w.-]+):/?(.+)$`)
	ticketIDRegexp   = regexp.MustCompile(`[A-Z][A-Z0-9]+-[0-9]+`)
)

// RepositoryContext is what a command knows about the local repository. It is
// built once per command and not changed afterwards.
type RepositoryContext struct {
	Provider  client.RepositoryProvider
	Owner     string
	Name      string
	Branch    string
	TicketID  string
	Path      string
	RemoteURL string
}

func (rc *RepositoryContext) Repository() *client.Repository {
	return &client.Repository{
		Provider: rc.Provider,
		Owner:    rc.Owner,
		Name:     rc.Name,
	}
}

func (rc *RepositoryContext) FullName() string {
	return rc.Repository().FullName()
}

// ResolveRepositoryContext opens the repository containing path and resolves
// its context.
func ResolveRepositoryContext(
	path string,
	aliases map[client.RepositoryProvider][]string,
) (*RepositoryContext, error) {
	g, err := GetRepo(path)
	if err != nil {
		return nil, err
	}

	return g.ResolveContext(aliases)
}

type remoteInfo struct {
	Host  string
	Owner string
	Name  string
}

// extractRepositoryTokens understands scp-like SSH remotes and ssh, http(s)
// and git URLs.
var extractRepositoryTokens = func(uri string) (*remoteInfo, error) {
	uri = strings.TrimSpace(uri)
	var host, path string

	if strings.Contains(uri, "://") {
		u, err := url.Parse(uri)
		if err != nil || u.Hostname() == "" {
			return nil, ErrUnableToParseRemoteRepositoryURI
		}
		host, path = u.Hostname(), u.Path
	} else {
		m := scpLikeURLRegexp.FindStringSubmatch(uri)
		if len(m) != 3 {
			return nil, ErrUnableToParseRemoteRepositoryURI
		}
		host, path = m[1], m[2]
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return nil, ErrUnableToParseRemoteRepositoryURI
	}

	return &remoteInfo{
		Host:  strings.ToLower(host),
		Owner: path[:i],
		Name:  path[i+1:],
	}, nil
}

// ParseTicketID returns the first issue key found in a branch name.
func ParseTicketID(branch string) string {
	return ticketIDRegexp.FindString(branch)
}

var resolveContext = func(
	r gitRepository,
	aliases map[client.RepositoryProvider][]string,
) (*RepositoryContext, error) {
	branch, err := r.GetCheckedOutBranchShortName()
	if err != nil {
		return nil, err
	}

	urls, err := r.GetRemoteURLs()
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, errors.Wrap(errcodes.ErrNoRecognizedRemote, "repository has no remotes")
	}

	remoteURL := urls[0]
	info, err := extractRepositoryTokens(remoteURL)
	if err != nil {
		return nil, errors.Wrapf(errcodes.ErrNoRecognizedRemote, "cannot parse remote %s", remoteURL)
	}

	provider, err := client.ParseRepositoryProvider(info.Host, aliases)
	if err != nil {
		return nil, errors.Wrapf(
			errcodes.ErrNoRecognizedRemote,
			"host %s is not a known provider, add it to <provider>.aliases",
			info.Host,
		)
	}

	return &RepositoryContext{
		Provider:  provider,
		Owner:     info.Owner,
		Name:      info.Name,
		Branch:    branch,
		TicketID:  ParseTicketID(branch),
		Path:      r.RootDir(),
		RemoteURL: remoteURL,
	}, nil
}
