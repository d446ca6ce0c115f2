package models

import "errors"

// Application-wide standard errors
var (
	// Resource errors
	ErrNotFound        = errors.New("resource not found")
	ErrProfileNotFound = errors.New("child profile not found")
	ErrStoryNotFound   = errors.New("story not found")
	ErrSegmentNotFound = errors.New("story segment not found")
	ErrChoiceNotFound  = errors.New("choice option not found on segment")

	// Generation errors
	ErrGenerationUnavailable = errors.New("all generation backends unavailable")
	ErrParseFailure          = errors.New("model output contained no usable content")
	ErrContentUnsafe         = errors.New("content failed safety validation")

	// Storage errors
	// ErrSegmentExists signals that another writer created the same
	// (parent, choice) branch first. Resolved internally by re-reading;
	// never surfaced to callers.
	ErrSegmentExists = errors.New("segment already exists for this choice")

	// Request errors
	ErrInvalidInput   = errors.New("invalid input data")
	ErrInternalServer = errors.New("internal server error")
)
