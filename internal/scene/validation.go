package scene

import (
	"fmt"
	"strings"
)

// Validate checks that a scene definition is structurally sound before
// it is persisted.
//
// Parameters:
//   - s: scene to validate
//
// Returns:
//   - error: ErrInvalidID or ErrInvalidScene (wrapped with detail), nil when valid
func Validate(s *Scene) error {
	if s == nil {
		return fmt.Errorf("%w: nil scene", ErrInvalidScene)
	}
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidID)
	}
	if strings.ContainsAny(s.ID, " \t\n") {
		return fmt.Errorf("%w: id contains whitespace", ErrInvalidID)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidScene)
	}
	for entityID := range s.Entities {
		if strings.TrimSpace(entityID) == "" {
			return fmt.Errorf("%w: empty entity id in member list", ErrInvalidScene)
		}
	}
	return nil
}
