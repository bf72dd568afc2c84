package relationship

import "errors"

// Sentinel errors returned by the relationship core. Callers match with
// errors.Is; the HTTP layer maps each to a distinct status code and never
// collapses them into a generic failure.
var (
	// ErrNotFound: the target user, edge, or friendship does not exist.
	ErrNotFound = errors.New("relationship: not found")

	// ErrInvalidOperation: the request is malformed at the domain level,
	// e.g. sending a friend request to yourself.
	ErrInvalidOperation = errors.New("relationship: invalid operation")

	// ErrForbidden: the caller is not allowed to act on this edge, e.g.
	// responding to a request they are not the recipient of.
	ErrForbidden = errors.New("relationship: forbidden")

	// ErrConflict: the operation lost against current state, e.g. responding
	// to an already-resolved request, accepting an already-accepted pair, or
	// exhausting transaction retries against a concurrent caller.
	ErrConflict = errors.New("relationship: conflict")
)
