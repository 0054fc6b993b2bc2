package systemcodes

import (
	"prflow/internal/errcodes"

	"github.com/pkg/errors"
)

const (
	ErrorCodeGeneric = iota + 1
	ErrorCodeConfig
	ErrorCodeAuth
	ErrorCodeNetwork
	ErrorCodeConflict
	ErrorCodeNotMergeable
	ErrorCodeTimeout
	ErrorCodeUnsupported
)

var codes = []struct {
	err  error
	code int
}{
	{errcodes.ErrAuth, ErrorCodeAuth},
	{errcodes.ErrPermissionDenied, ErrorCodeAuth},
	{errcodes.ErrNetwork, ErrorCodeNetwork},
	{errcodes.ErrUnavailable, ErrorCodeNetwork},
	{errcodes.ErrConflict, ErrorCodeConflict},
	{errcodes.ErrLocalGitConflict, ErrorCodeConflict},
	{errcodes.ErrNotMergeable, ErrorCodeNotMergeable},
	{errcodes.ErrTimeout, ErrorCodeTimeout},
	{errcodes.ErrUnsupported, ErrorCodeUnsupported},
	{errcodes.ErrConfig, ErrorCodeConfig},
	{errcodes.ErrNotAGitRepository, ErrorCodeConfig},
	{errcodes.ErrNoRecognizedRemote, ErrorCodeConfig},
	{errcodes.ErrDetachedHead, ErrorCodeConfig},
}

// ExitCode maps an error to the process exit code of its class.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}

	return ErrorCodeGeneric
}
