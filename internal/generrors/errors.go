// Package generrors defines the engine's error taxonomy as package-level
// sentinel values, checked with errors.Is at call sites and wrapped with
// fmt.Errorf("...: %w", ...) to attach context.
package generrors

import "errors"

var (
	// ErrInvalidArgument marks a caller-supplied argument that is
	// structurally invalid regardless of engine state: non-positive k,
	// h < k, a non-positive thread count, a sub-1 PAA block size.
	ErrInvalidArgument = errors.New("genex: invalid argument")

	// ErrOutOfRange marks an index, start, or end outside a row's or
	// view's bounds.
	ErrOutOfRange = errors.New("genex: index out of range")

	// ErrLengthMismatch marks a pairwise distance or centroid addition
	// attempted between views of unequal length.
	ErrLengthMismatch = errors.New("genex: sequence length mismatch")

	// ErrNotIndexed marks a query issued against a length that has no
	// built length space.
	ErrNotIndexed = errors.New("genex: length space not indexed")

	// ErrIncompatibleIndex marks a persisted index that does not match
	// the dataset it is being restored against (item count, item length,
	// or format version mismatch).
	ErrIncompatibleIndex = errors.New("genex: incompatible persisted index")

	// ErrUnknownDistance marks a distance name with no registry entry.
	ErrUnknownDistance = errors.New("genex: unknown distance")

	// ErrIoError marks a file open/read/write failure during dataset
	// load or index persistence.
	ErrIoError = errors.New("genex: io error")

	// ErrParseError marks an unparsable or out-of-range numeric literal
	// encountered by the dataset loader.
	ErrParseError = errors.New("genex: parse error")
)
