package errcodes

import "github.com/pkg/errors"

// Parameter errors.
var (
	ErrMissingRepository               = errors.New("repository is missing")
	ErrMissingProvider                 = errors.New("provider is missing")
	ErrMissingSource                   = errors.New("source is missing")
	ErrMissingDestination              = errors.New("destination is missing")
	ErrMissingTitle                    = errors.New("title is missing")
	ErrMissingBranch                   = errors.New("branch is missing")
	ErrSomeRepoParamsMissing           = errors.New("must specify both provider and repository, or none")
	ErrRepositoryMustBeInFormOwnerRepo = errors.New("repository must be in the form of 'owner/repo'")
	ErrorRepositoryProviderUnknown     = errors.New("repository provider is unknown")
	ErrUnknownMergeStrategy            = errors.New("merge strategy is unknown, expected (merge, squash, rebase, ff-only)")
	ErrConflictingStrategyFlags        = errors.New("only one of --rebase, --squash and --ff-only can be set")
	ErrNothingToUpdate                 = errors.New("nothing to update, set a title or a body")
)

// Error classes shared by every operation. Concrete errors wrap or match one of these.
var (
	ErrConfig             = errors.New("configuration error")
	ErrNetwork            = errors.New("network error")
	ErrAuth               = errors.New("authentication failed")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotFound           = errors.New("not found")
	ErrNotMergeable       = errors.New("pull request is not mergeable")
	ErrConflict           = errors.New("conflict")
	ErrLocalGitConflict   = errors.New("local git conflict")
	ErrTimeout            = errors.New("timed out")
	ErrUnsupported        = errors.New("operation not supported by provider")
	ErrUnavailable        = errors.New("service unavailable")
	ErrNotAGitRepository  = errors.New("not a git repository")
	ErrNoRecognizedRemote = errors.New("no recognized remote")
	ErrDetachedHead       = errors.New("HEAD is detached")
)
