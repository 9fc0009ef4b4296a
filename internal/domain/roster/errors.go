package roster

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrNotFound     = errors.New("person not found")
	ErrEmptyName    = errors.New("person name must not be empty")
	ErrNoEmbeddings = errors.New("at least one embedding is required")
)
