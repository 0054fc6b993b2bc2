package client

import (
	"fmt"
	"net/http"
	"strings"

	"prflow/internal/errcodes"

	"github.com/pkg/errors"
)

// ErrUnexpectedResponse is the kind of provider errors that fit no other class.
var ErrUnexpectedResponse = errors.New("unexpected response from provider")

// Error describes a failed provider call. It matches its Kind with errors.Is.
type Error struct {
	Op         string
	Target     string
	StatusCode int
	Message    string
	Kind       error
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyStatus returns the error class of a non-successful HTTP status.
func ClassifyStatus(status int, message string) error {
	switch status {
	case http.StatusUnauthorized:
		return errcodes.ErrAuth
	case http.StatusForbidden:
		return errcodes.ErrPermissionDenied
	case http.StatusNotFound:
		return errcodes.ErrNotFound
	case http.StatusMethodNotAllowed:
		return errcodes.ErrNotMergeable
	case http.StatusConflict:
		return errcodes.ErrConflict
	case http.StatusUnprocessableEntity:
		m := strings.ToLower(message)
		if strings.Contains(m, "already exist") || strings.Contains(m, "conflict") {
			return errcodes.ErrConflict
		}
	}

	if status >= http.StatusInternalServerError {
		return errcodes.ErrNetwork
	}

	return ErrUnexpectedResponse
}

func NewStatusError(op, target string, status int, message string) *Error {
	return &Error{
		Op:         op,
		Target:     target,
		StatusCode: status,
		Message:    message,
		Kind:       ClassifyStatus(status, message),
	}
}

func NewTransportError(op, target string, err error) *Error {
	return &Error{
		Op:     op,
		Target: target,
		Kind:   errcodes.ErrNetwork,
		Err:    err,
	}
}
