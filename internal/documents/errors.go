package documents

import "errors"

// ErrValidation marks a record or request the client refuses to accept.
// The API client and the version store both wrap it.
var ErrValidation = errors.New("validation failed")
