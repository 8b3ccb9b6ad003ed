package mutation

import "errors"

// ErrValidation is returned when a request fails local validation before
// any gateway call is made.
var ErrValidation = errors.New("validation failed")
