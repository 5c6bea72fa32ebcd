package origin

import "errors"

// Construction errors.
var (
	ErrInvalidHandle   = errors.New("invalid Origin object reference")
	ErrInvalidFunction = errors.New("invalid fitting function")
	ErrInvalidMethod   = errors.New("invalid fitting method")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnsupportedType = errors.New("unsupported numeric element type")
	ErrNotFound        = errors.New("object not found")
)

// Sequence and connection errors.
var (
	ErrAlreadyEnded        = errors.New("fit session already ended")
	ErrConnect             = errors.New("failed to connect to Origin")
	ErrDetached            = errors.New("connection to Origin was already released")
	ErrUnsupportedPlatform = errors.New("Origin automation is only available on Windows")
	ErrHost                = errors.New("Origin reported a failure")
)
