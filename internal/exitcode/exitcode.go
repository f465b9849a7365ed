package exitcode

import (
	"os"
	"strings"

	"github.com/errandmate/errandmate/internal/gateway"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ValidationError indicates the backend rejected the submitted data
	ValidationError = 3

	// Interrupted indicates the run was cancelled by the user
	Interrupted = 4

	// AuthError indicates an authentication or authorization failure
	AuthError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}
	Exit(DetermineExitCode(err))
}

// DetermineExitCode analyzes an error and returns the appropriate exit code.
// Errors carrying a gateway code map directly; anything else falls back to a
// message scan.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if apiErr, ok := gateway.AsAPIError(err); ok {
		switch apiErr.Code {
		case gateway.CodeAuthentication:
			return AuthError
		case gateway.CodeNetwork, gateway.CodeCORS:
			return NetworkError
		case gateway.CodeValidation:
			return ValidationError
		}
		return GeneralError
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "authentication") || strings.Contains(errMsg, "unauthorized") {
		return AuthError
	}
	if strings.Contains(errMsg, "network") || strings.Contains(errMsg, "connection") {
		return NetworkError
	}
	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}
	if strings.Contains(errMsg, "invalid flag") || strings.Contains(errMsg, "unknown command") {
		return UsageError
	}
	if strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "missing argument") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "success"
	case GeneralError:
		return "general error"
	case UsageError:
		return "usage error"
	case ValidationError:
		return "validation error"
	case Interrupted:
		return "interrupted"
	case AuthError:
		return "authentication error"
	case NetworkError:
		return "network error"
	default:
		return "unknown"
	}
}
