package diskann

import "errors"

// Error kinds surfaced by Insert and Consolidate (§7 of the design).
// LockFail and InconsistentCount are not returned as errors: they are
// ConsolidationStatus values inside a ConsolidationReport, because the
// streaming controller treats them as structured, retriable outcomes
// rather than exceptional ones. DuplicateTag and Capacity are returned
// as errors because they fail a single caller-initiated operation.
var (
	// ErrDuplicateTag is returned by InsertPoint when the tag is
	// already mapped to a slot, live or tombstoned but not yet
	// reclaimed by consolidation.
	ErrDuplicateTag = errors.New("diskann: tag already in use")

	// ErrCapacity is returned by InsertPoint when the vector store has
	// no free slots left to reserve.
	ErrCapacity = errors.New("diskann: index at capacity")

	// ErrLabelsUnsupportedForDelete is returned by LazyDelete when the
	// index has labels enabled; deletion of labeled points is
	// unsupported, matching the source this spec is drawn from.
	ErrLabelsUnsupportedForDelete = errors.New("diskann: lazy delete is not supported for labeled data")

	// ErrDimensionMismatch is returned when a caller passes a vector
	// whose length does not match the index's configured dimension.
	ErrDimensionMismatch = errors.New("diskann: vector dimension mismatch")
)
