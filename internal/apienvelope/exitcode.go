package apienvelope

import "errors"

// ErrUnknownAsset is returned when a request names an asset the
// orchestrator has no actors for.
var ErrUnknownAsset = errors.New("apienvelope: unknown asset")

// ErrUnknownActor is returned when a request names a supervisor or
// technician id the targeted asset has no actor for.
var ErrUnknownActor = errors.New("apienvelope: unknown actor id")

// ExitCode maps a Handle error to the CLI exit code convention: 0
// success, 2 bad request (unknown asset/id), 3 internal error.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUnknownAsset), errors.Is(err, ErrUnknownActor):
		return 2
	default:
		return 3
	}
}
