package caption

import "errors"

// Sentinel errors shared by caption readers. These enable callers to
// programmatically distinguish failure modes using errors.Is.
var (
	// ErrNoCaptions indicates that a syntactically valid input produced
	// zero captions.
	ErrNoCaptions = errors.New("caption: no captions in input")
)
