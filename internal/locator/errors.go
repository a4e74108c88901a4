package locator

import "errors"

var (
	// ErrStaleElement means the element detached from the document while it was read.
	// Callers must not retry the same handle.
	ErrStaleElement = errors.New("element is no longer attached to the document")

	// ErrNoCandidates means generation produced nothing usable for the element.
	ErrNoCandidates = errors.New("no locator candidates for element")

	// ErrElementNotFound means the primary and every alternate were exhausted.
	ErrElementNotFound = errors.New("element not found by primary or alternate locators")
)
