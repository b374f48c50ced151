package sequencer

import "context"

// defaultExpectedState is assumed for scene members whose target state is
// not declared in the scene metadata.
const defaultExpectedState = "off"

// sceneMatchesState reports whether every entity referenced by the scene
// currently holds the state the scene defines for it.
//
// The check fails safe: an unresolvable scene, a scene with no members,
// a missing live state, or any single mismatch all report non-match,
// which steers the timeout branch to jump-to-last rather than skip-ahead.
func (h *Handler) sceneMatchesState(ctx context.Context, sceneID string) bool {
	entities, err := h.scenes.SceneEntities(ctx, sceneID)
	if err != nil {
		h.logger.Warn("scene lookup failed during state match", "scene_id", sceneID, "error", err)
		return false
	}
	if len(entities) == 0 {
		h.logger.Warn("scene declares no entities, treating as non-match", "scene_id", sceneID)
		return false
	}

	for entityID, expected := range entities {
		if expected == "" {
			expected = defaultExpectedState
		}

		live, ok := h.states.GetState(ctx, entityID)
		if !ok {
			h.logger.Warn("entity has no live state during state match",
				"scene_id", sceneID,
				"entity_id", entityID,
			)
			return false
		}
		if live.Value != expected {
			return false
		}
	}

	return true
}
