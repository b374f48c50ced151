package sequencer

import "encoding/json"

// CycleRequest is one invocation of the cycle operation.
type CycleRequest struct {
	// Scenes is the ordered, non-empty list of scene identifiers to
	// cycle through. An empty list makes the call a silent no-op.
	Scenes []string

	// GoToLastTimeout is the inactivity window in seconds after which
	// the next call diverts from round-robin. Zero disables the timeout.
	GoToLastTimeout float64
}

// rawCycleRequest mirrors the wire shape of a cycle invocation.
// Scenes is deferred because it may be a bare array or an entity
// selector object.
type rawCycleRequest struct {
	Scenes          json.RawMessage `json:"scenes"`
	GoToLastTimeout float64         `json:"go_to_last_timeout"`
}

// entitySelector is the wrapped form produced by entity selectors:
// {"entity_id": ["scene.a", "scene.b"]}.
type entitySelector struct {
	EntityID []string `json:"entity_id"`
}

// DecodeCycleRequest parses a cycle invocation payload.
//
// The scenes field is accepted either as a bare array of identifiers or
// wrapped under an entity_id key. Any other shape, and any JSON that
// fails to parse, yields an empty scene list — which the handler treats
// as a no-op. Decoding never fails.
func DecodeCycleRequest(payload []byte) CycleRequest {
	var raw rawCycleRequest
	if err := json.Unmarshal(payload, &raw); err != nil {
		return CycleRequest{}
	}

	return CycleRequest{
		Scenes:          decodeScenes(raw.Scenes),
		GoToLastTimeout: raw.GoToLastTimeout,
	}
}

// decodeScenes extracts the scene list from either accepted shape.
func decodeScenes(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var selector entitySelector
	if err := json.Unmarshal(raw, &selector); err == nil {
		return selector.EntityID
	}

	return nil
}
