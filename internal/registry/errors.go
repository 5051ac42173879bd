package registry

import "errors"

// ErrShuttingDown is returned when a connect attempt arrives after shutdown
// has begun.
var ErrShuttingDown = errors.New("registry is shutting down")
