package capture

import "errors"

// ErrNotFound is returned when a session id is not in the history
var ErrNotFound = errors.New("session not found")
