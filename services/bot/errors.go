package bot

import "errors"

// ErrNotFound is returned when a booking does not exist or is not owned by
// the caller. Ownership failures deliberately look identical to missing
// bookings so callers cannot probe other users' booking ids.
var ErrNotFound = errors.New("booking not found")
