package sim

import "errors"

// Sentinel errors returned by the engine and its supporting types. Callers
// should compare with errors.Is; messages may be wrapped with additional
// context via fmt.Errorf("...: %w", err).
var (
	// ErrInvalidConfiguration is returned by EngineConfig.Validate when a
	// parameter is missing, out of range, or internally inconsistent.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrBusyInstance is returned when a warm arrival transition, which
	// requires an idle instance, is attempted on an instance that is
	// currently serving a request.
	ErrBusyInstance = errors.New("instance is busy")

	// ErrAtCapacity is returned when a concurrent instance is asked to accept
	// a request while already serving its configured concurrency limit.
	ErrAtCapacity = errors.New("instance is at capacity")

	// ErrTerminatedInstance is returned when an operation is attempted on an
	// instance that has already transitioned to TERM.
	ErrTerminatedInstance = errors.New("instance is terminated")

	// ErrClockPastDeadline is returned when the next transition, departure,
	// or termination time is queried after the clock has already advanced
	// past it. This indicates a bug in event ordering, not a user error.
	ErrClockPastDeadline = errors.New("clock advanced past instance deadline")
)
