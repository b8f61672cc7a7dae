// Package errs defines the sentinel error kinds surfaced by the measurement
// core, and the CLI exit codes they map to.
package errs

import "errors"

// Sentinel error kinds. Use errors.Is against these; wrap with fmt.Errorf("%w: ...")
// for additional context.
var (
	// ErrPromptNotFound is returned when a prompt_version cannot be resolved in the bank.
	ErrPromptNotFound = errors.New("prompt not found")

	// ErrPromptMalformed is returned when a prompt descriptor fails schema validation.
	ErrPromptMalformed = errors.New("prompt malformed")

	// ErrPromptTooLong is returned when composed prompt text exceeds max_prompt_chars.
	ErrPromptTooLong = errors.New("prompt too long")

	// ErrProviderUnavailable is returned when a provider call fails after its retry budget.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderSchemaViolation marks a sample whose JSON failed schema validation
	// after the one allowed retry. It is recorded on the sample row, not surfaced
	// from the run, unless it leaves zero compliant samples.
	ErrProviderSchemaViolation = errors.New("provider schema violation")

	// ErrNoValidSamples is returned when every attempted sample was non-compliant.
	ErrNoValidSamples = errors.New("no valid samples")

	// ErrStorageFailure is returned when a persistence write fails. A successful
	// aggregation result is still returned to the caller alongside this error.
	ErrStorageFailure = errors.New("storage failure")
)

// ExitCode maps a run error to the CLI wrapper's exit code. Zero is returned
// for a nil error (success) or any error not in the enumerated set, which the
// caller should treat as an unexpected internal failure and report via a
// generic non-zero code of its own choosing.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNoValidSamples):
		return 10
	case errors.Is(err, ErrPromptTooLong):
		return 11
	case errors.Is(err, ErrPromptNotFound):
		return 12
	case errors.Is(err, ErrProviderUnavailable):
		return 13
	case errors.Is(err, ErrStorageFailure):
		return 14
	default:
		return 1
	}
}
