package scene

import (
	"time"

	"github.com/google/uuid"
)

// Scene represents a named target state for a set of entities.
type Scene struct {
	// ID is the platform identifier, e.g. "scene.movie_night".
	ID string `json:"id"`

	// Name is the human-readable scene name.
	Name string `json:"name"`

	// Entities maps each member entity to the state value the scene
	// puts it in. An empty value means the scene does not declare a
	// target for that entity (treated as "off" by the match check).
	Entities map[string]string `json:"entities"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DeepCopy creates an independent copy of the Scene so cached values
// cannot be mutated through returned references.
func (s *Scene) DeepCopy() *Scene {
	if s == nil {
		return nil
	}
	cpy := *s
	if s.Entities != nil {
		cpy.Entities = make(map[string]string, len(s.Entities))
		for k, v := range s.Entities {
			cpy.Entities[k] = v
		}
	}
	return &cpy
}

// GenerateID creates a platform-style identifier for a new scene.
func GenerateID() string {
	return "scene." + uuid.New().String()
}
