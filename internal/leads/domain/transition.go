package domain

import "errors"

// ErrNotReactivatable is returned when a lead has no stashed previous stage
// to restore, or is not currently in the terminal stage.
var ErrNotReactivatable = errors.New("lead has no previous stage to restore")

// NextPreviousStage applies the previous-stage rule for a transition from
// oldKey to newKey. Entering the terminal no-response stage stashes the stage
// the lead came from; leaving it clears the stash; every other transition
// leaves the pointer untouched. The second return reports whether the column
// must be written.
func NextPreviousStage(current *string, oldKey, newKey, noResponseKey string) (*string, bool) {
	switch {
	case newKey == noResponseKey && oldKey != noResponseKey:
		stashed := oldKey
		return &stashed, true
	case oldKey == noResponseKey && newKey != noResponseKey:
		return nil, true
	default:
		return current, false
	}
}

// ReactivationTarget returns the stage key a no-response lead should be
// restored to. It fails when the lead is not in the given terminal stage or
// has no stashed previous stage, in which case reactivation must be blocked.
func ReactivationTarget(stageKey string, previous *string, noResponseKey string) (string, error) {
	if stageKey != noResponseKey || previous == nil || *previous == "" {
		return "", ErrNotReactivatable
	}
	return *previous, nil
}
