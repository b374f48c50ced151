package entity

import "time"

// Entity represents one stateful object exposed by the host platform.
type Entity struct {
	// ID is the platform identifier, e.g. "light.living_main".
	ID string `json:"id"`

	// Value is the current state string, e.g. "on", "off", "dim".
	Value string `json:"value"`

	// Attributes holds arbitrary per-entity metadata. The sequencer's
	// store entity keeps its JSON blob here under the "data" key.
	Attributes map[string]any `json:"attributes,omitempty"`

	// UpdatedAt is when the state was last written (UTC).
	UpdatedAt time.Time `json:"updated_at"`
}

// DeepCopy creates an independent copy of the Entity so cached values
// cannot be mutated through returned references.
func (e *Entity) DeepCopy() *Entity {
	if e == nil {
		return nil
	}
	cpy := *e
	cpy.Attributes = deepCopyMap(e.Attributes)
	return &cpy
}

// deepCopyMap creates a deep copy of a map[string]any.
// Nested maps and slices are recursively copied.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a value, handling nested maps and slices.
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		// Primitives are immutable
		return v
	}
}
