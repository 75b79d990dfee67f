// Package cli provides shared configuration and utilities for the autoload CLI.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/pthm/autoload"
)

// Process exit codes. Scripts can tell a bad load request (ExitQuery) apart
// from a schema file that does not parse (ExitSchemaParse) or a database
// that is unreachable (ExitDBConnect).
const (
	ExitSuccess     = 0
	ExitGeneral     = 1 // doctor errors, encoding failures
	ExitConfig      = 2 // autoload.yaml, database settings, flag values
	ExitSchemaParse = 3 // schema YAML unreadable or inconsistent
	ExitDBConnect   = 4 // open or ping failed
	ExitQuery       = 5 // load request rejected while planning
	ExitFetch       = 6 // a planned statement failed against the database
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Code    int
	Message string
	Hint    string
	Err     error
}

func (e *ExitError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitWithError prints the error and exits with the appropriate code.
func ExitWithError(err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", exitErr.Error())
		os.Exit(exitErr.Code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(ExitGeneral)
}

// ConfigError creates an ExitError with ExitConfig code.
func ConfigError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Err: err}
}

// SchemaParseError creates an ExitError with ExitSchemaParse code.
func SchemaParseError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitSchemaParse, Message: msg, Err: err}
}

// DBConnectError creates an ExitError with ExitDBConnect code.
func DBConnectError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitDBConnect, Message: msg, Err: err}
}

// FetchError creates an ExitError with ExitFetch code.
func FetchError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitFetch, Message: msg, Err: err}
}

// GeneralError creates an ExitError with ExitGeneral code.
func GeneralError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitGeneral, Message: msg, Err: err}
}

// QueryError creates an ExitError with ExitQuery code for a Select that
// could not be planned, with a hint naming the flag or schema field to fix.
func QueryError(msg string, err error) *ExitError {
	return &ExitError{Code: ExitQuery, Message: msg, Hint: queryHint(err), Err: err}
}

func queryHint(err error) string {
	switch {
	case err == nil:
		return ""
	case autoload.IsUnknownRelationshipErr(err):
		return "relationship keys are listed under the entity in the schema file"
	case autoload.IsMissingSelfKeyErr(err):
		return "pass --self-key or set select.self_key"
	case autoload.IsUnknownColumnErr(err):
		return "--order-by and --self-key must name mapped columns of the target entity"
	case autoload.IsAbstractEntityErr(err):
		return "query a concrete subclass instead"
	default:
		return ""
	}
}
