package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrTeamNotFound is returned by roster providers for names outside their listing.
var ErrTeamNotFound = errors.New("team not found")

// ErrInvariantViolation signals a wiring or logic defect, never a user condition.
var ErrInvariantViolation = errors.New("invariant violation")

// ErrUnmappedOutcome is returned when a step reports an outcome its node has no edge for.
var ErrUnmappedOutcome = errors.New("unmapped outcome")

// ErrInvalidDefinition is returned when a workflow graph fails validation at build time.
var ErrInvalidDefinition = errors.New("invalid workflow definition")

// ErrCollaborator marks failures raised by the inference service or the roster provider.
// The step is not committed and the same message can be retried.
var ErrCollaborator = errors.New("collaborator failure")
