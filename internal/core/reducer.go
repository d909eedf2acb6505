package core

import "github.com/sketchwire/sketchwire/internal/domain"

// ShapeState is a room's derived shape set in creation order. It is
// never persisted: it is always a pure fold of an event prefix, so a
// replica built from full replay and one built from live broadcasts of
// the same prefix are identical.
type ShapeState []domain.Shape

// Apply folds one event into the state and returns the next state. The
// input slice is not mutated. Events whose payload does not decode are
// ignored: a malformed row must not poison replay.
func Apply(state ShapeState, ev domain.ShapeEvent) ShapeState {
	shape, err := ev.DecodeShape()
	if err != nil {
		return state
	}
	switch ev.Kind {
	case domain.EventCreate:
		next := make(ShapeState, len(state), len(state)+1)
		copy(next, state)
		// A create carrying an id already in the state is an upsert:
		// moved shapes are re-sent as creates with the same id, and a
		// broadcast echo after an optimistic local apply must not
		// duplicate. Id-less legacy shapes always append.
		if shape.ID != "" {
			for i, s := range next {
				if s.ID == shape.ID {
					next[i] = shape
					return next
				}
			}
		}
		return append(next, shape)
	case domain.EventDelete:
		next := make(ShapeState, 0, len(state))
		for _, s := range state {
			if !matchesDelete(s, shape) {
				next = append(next, s)
			}
		}
		return next
	}
	return state
}

// matchesDelete keys on the stable id when the deleted payload carries
// one, and falls back to structural equality for legacy producers.
// Structural matching can remove several shapes at once when geometry
// collides; that is the legacy protocol's behavior, reproduced on
// purpose.
func matchesDelete(s, deleted domain.Shape) bool {
	if deleted.ID != "" {
		return s.ID == deleted.ID
	}
	return s.StructuralEqual(deleted)
}

// Reduce folds a whole event sequence from the empty state.
func Reduce(events []domain.ShapeEvent) ShapeState {
	var state ShapeState
	for _, ev := range events {
		state = Apply(state, ev)
	}
	return state
}

// Contains reports whether the state holds a shape structurally equal
// to the given one.
func (s ShapeState) Contains(shape domain.Shape) bool {
	for _, have := range s {
		if have.StructuralEqual(shape) {
			return true
		}
	}
	return false
}
