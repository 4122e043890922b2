package rnacad

import (
	"github.com/pkg/errors"
)

// Input validation errors
var (
	ErrUnknownOrigin         = errors.New("unknown origin vertex")
	ErrUnknownDestination    = errors.New("unknown destination vertex")
	ErrOriginAtCapacity      = errors.New("origin vertex has no free connections")
	ErrDestinationAtCapacity = errors.New("destination vertex has no free connections")
	ErrSelfLoop              = errors.New("edge connects a vertex to itself")
	ErrBadExpr               = errors.New("bad structure expression")
)

// Precondition errors
var (
	ErrEmptyEdgeList = errors.New("empty edge list")
	ErrUnknownRoot   = errors.New("root does not appear in the edge list")
	ErrDisconnected  = errors.New("structure is not connected to the root")
)

// Geometric degeneracy
var (
	ErrDegenerateOrdering = errors.New("no valid reference direction for branch ordering")
)

// Configuration errors
var (
	ErrMissingMotif  = errors.New("missing motif template")
	ErrBadConfig     = errors.New("bad configuration")
	ErrBadCatalogOpt = errors.New("bad catalog param")
	ErrNotFound      = errors.New("record not found")
	ErrReadOnly      = errors.New("catalog is read-only")
)

// Validation errors (external predictor loop)
var (
	ErrPredictorFailed = errors.New("structure predictor failed")
	ErrNoViableDesign  = errors.New("no design reached the similarity threshold")
)

// ErrInternal marks a broken algorithm invariant; it never results from malformed input.
var ErrInternal = errors.New("internal invariant violated")

func isAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsInputError reports whether err was caused by malformed structure input.
func IsInputError(err error) bool {
	return isAny(err, ErrUnknownOrigin, ErrUnknownDestination, ErrOriginAtCapacity, ErrDestinationAtCapacity, ErrSelfLoop, ErrBadExpr)
}

func IsPreconditionError(err error) bool {
	return isAny(err, ErrEmptyEdgeList, ErrUnknownRoot, ErrDisconnected)
}

func IsDegenerateOrdering(err error) bool {
	return errors.Is(err, ErrDegenerateOrdering)
}

func IsConfigError(err error) bool {
	return isAny(err, ErrMissingMotif, ErrBadConfig, ErrBadCatalogOpt)
}

func IsValidationError(err error) bool {
	return isAny(err, ErrPredictorFailed, ErrNoViableDesign)
}

func IsInternalError(err error) bool {
	return errors.Is(err, ErrInternal)
}
