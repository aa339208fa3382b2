package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrMissingToken  = fmt.Errorf("missing access token")
	ErrInvalidToken  = fmt.Errorf("invalid access token")

	// Persistence taxonomy. Adapter failures are classified into these
	// before they cross the orchestrator boundary; callers match with
	// errors.Is and never see a raw backend error type.
	ErrUnavailable          = fmt.Errorf("backend unavailable")
	ErrForbidden            = fmt.Errorf("forbidden")
	ErrNotFound             = fmt.Errorf("not found")
	ErrTransitionInProgress = fmt.Errorf("mode transition in progress")
	ErrMigrationPartial     = fmt.Errorf("migration completed with failures")
	ErrMigrationFailed      = fmt.Errorf("migration failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
