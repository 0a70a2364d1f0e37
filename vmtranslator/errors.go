package vmtranslator

import (
	"github.com/pkg/errors"
)

// Error kinds reported by the parser and the code writer. They are always wrapped with the
// offending token or value, match them with errors.Is.
var (
	ErrUnrecognizedCommand  = errors.New("unrecognized command")
	ErrInvalidSegment       = errors.New("invalid segment")
	ErrInvalidPointerIndex  = errors.New("invalid pointer index")
	ErrInvalidTempIndex     = errors.New("invalid temp index")
	ErrInvalidOffset        = errors.New("invalid offset")
	ErrMalformedInstruction = errors.New("malformed instruction")
)
