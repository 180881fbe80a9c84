package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/saverpwd/internal/common"
)

const (
	ExitCodeSuccess      = 0
	ExitCodeGeneric      = 1
	ExitCodeUsage        = 2
	ExitCodeNotFound     = 3
	ExitCodeForbidden    = 4
	ExitCodeAuthFailed   = 5
	ExitCodeConflict     = 6
	ExitCodeIO           = 7
	ExitCodeInconsistent = 8
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ExitError) ExitCode() int {
	if e == nil {
		return ExitCodeGeneric
	}
	return e.Code
}

// mapError attaches an exit code to err based on the vault error it wraps.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var withExit interface{ ExitCode() int }
	if errors.As(err, &withExit) {
		return err
	}

	code := ExitCodeGeneric
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, common.ErrIncorrectPassword), errors.Is(err, common.ErrDecryption):
		code = ExitCodeAuthFailed
	case errors.Is(err, common.ErrNotFound):
		code = ExitCodeNotFound
	case errors.Is(err, common.ErrAlreadyExists):
		code = ExitCodeConflict
	case errors.Is(err, common.ErrForbiddenOperation):
		code = ExitCodeForbidden
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrMissingCredential):
		code = ExitCodeUsage
	case errors.Is(err, common.ErrInconsistentState), errors.Is(err, common.ErrAmbiguousResult):
		code = ExitCodeInconsistent
	case errors.As(err, &pathErr):
		code = ExitCodeIO
	}
	return &ExitError{Code: code, Err: err}
}

func usageErrorf(format string, args ...any) error {
	return &ExitError{Code: ExitCodeUsage, Err: fmt.Errorf(format, args...)}
}
