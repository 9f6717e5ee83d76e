package health

import "errors"

// ErrCheckerNotFound is returned when a named check is not registered.
var ErrCheckerNotFound = errors.New("health: checker not found")
