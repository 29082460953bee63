package intel

import "errors"

// ErrInvalidInput marks caller mistakes: an empty search term or an unknown
// question identifier. Never retried.
var ErrInvalidInput = errors.New("invalid input")

// ErrStoreUnavailable is returned when every query definition in a search
// failed, meaning the graph store could not be reached at all. A report with
// zero results is only returned when at least one definition executed.
var ErrStoreUnavailable = errors.New("graph store unavailable")
