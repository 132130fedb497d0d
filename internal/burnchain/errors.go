package burnchain

import "errors"

// ErrDuplicateHeader is returned by Put when header_hash is already present.
var ErrDuplicateHeader = errors.New("burnchain: duplicate header")

// ErrNotConfigured is returned when the first-burn header is queried
// before any header has been ingested.
var ErrNotConfigured = errors.New("burnchain: first burn header not configured")

// ErrHeaderNotFound is returned by Get for an unknown header_hash.
var ErrHeaderNotFound = errors.New("burnchain: header not found")
