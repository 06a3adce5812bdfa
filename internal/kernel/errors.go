package kernel

import "errors"

var (
	// ErrUnimplemented reports that the specialized path cannot serve a
	// descriptor. It is a capability probe outcome, not a failure; callers
	// fall back to the reference implementation.
	ErrUnimplemented = errors.New("unimplemented")

	// ErrNoImplementation reports that no path, specialized or reference,
	// can execute a descriptor.
	ErrNoImplementation = errors.New("no implementation available")
)
