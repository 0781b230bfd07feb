package configsvc

import "errors"

// Typed failures raised by the service. Callers branch with errors.Is; the
// HTTP layer owns the mapping to status codes. Anything not matching one of
// these sentinels is an opaque store failure.
var (
	ErrNotFound           = errors.New("configuration not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrVersionConflict    = errors.New("configuration has been modified, refresh and try again")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrInvalidFormat      = errors.New("invalid file content")
	ErrEmptyConfiguration = errors.New("configuration file contains no properties")
)
