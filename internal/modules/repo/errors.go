package repo

import "errors"

// ErrStaleState is returned when a conditional write matched no row because
// the row left the expected state in the meantime.
var ErrStaleState = errors.New("row is no longer in the expected state")
