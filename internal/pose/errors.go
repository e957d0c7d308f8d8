package pose

import "errors"

var (
	// ErrNotFound indicates the requested preset does not exist.
	ErrNotFound = errors.New("pose: preset not found")

	// ErrExists indicates a preset with the same name already exists.
	ErrExists = errors.New("pose: preset already exists")

	// ErrInvalidName indicates an empty or invalid preset name.
	ErrInvalidName = errors.New("pose: preset name cannot be empty")
)
