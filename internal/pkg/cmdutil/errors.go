package cmdutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/endorses/routefilter/internal/pkg/query"
)

// Exit codes for CLI commands
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitValidationError = 3
	ExitNotFoundError   = 4
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ExitCodeFor maps an error to the process exit code
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var unknownKind *query.UnknownKindError
	if errors.As(err, &unknownKind) {
		return ExitNotFoundError
	}

	var argErr *ArgError
	if errors.As(err, &argErr) || query.IsInvalid(err) {
		return ExitValidationError
	}
	return ExitGeneralError
}

// WriteError writes err as a JSON error response and returns its exit code
func WriteError(w io.Writer, err error) int {
	code := ExitCodeFor(err)
	data, _ := json.Marshal(ErrorResponse{
		Error: err.Error(),
		Code:  codeName(code),
	})
	fmt.Fprintln(w, string(data))
	return code
}

func codeName(code int) string {
	switch code {
	case ExitSuccess:
		return "OK"
	case ExitValidationError:
		return "INVALID_ARGUMENT"
	case ExitNotFoundError:
		return "NOT_FOUND"
	default:
		return "UNKNOWN"
	}
}
