package scene

import "errors"

var (
	// ErrSceneNotFound is returned when a scene does not exist.
	ErrSceneNotFound = errors.New("scene: not found")

	// ErrInvalidID is returned when a scene ID is empty or malformed.
	ErrInvalidID = errors.New("scene: invalid id")

	// ErrInvalidScene is returned when a scene fails validation.
	ErrInvalidScene = errors.New("scene: invalid definition")

	// ErrActivationFailed is returned when the activation command
	// could not be delivered to the platform core.
	ErrActivationFailed = errors.New("scene: activation failed")
)
