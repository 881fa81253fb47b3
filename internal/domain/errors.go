package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrLockHeld = errors.New("lock already held")

	// Data integrity.
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidStake     = errors.New("invalid stake")
	ErrInvalidDraw      = errors.New("invalid draw")
	ErrIncompleteDraw   = errors.New("draw payload incomplete")

	// Domain constraints.
	ErrCandidateCount     = errors.New("candidate count out of range")
	ErrDuplicateCandidate = errors.New("duplicate candidate")
	ErrCandidateDomain    = errors.New("candidate outside number domain")
	ErrUnsupportedVariant = errors.New("unsupported for game variant")

	// Numerical degeneracy.
	ErrDegenerateImpact = errors.New("degenerate impact vector")
)
