package funcmap

import (
	"errors"

	"github.com/yousuf/funcmap/internal/vlq"
)

// Errors returned by the codec. All of them are permanent for the input that
// produced them; callers match with errors.Is.
var (
	// ErrShape reports missing, mistyped or mismatched source map fields.
	ErrShape = errors.New("malformed enriched source map")
	// ErrCodec reports a token that is not valid base64 VLQ.
	ErrCodec = vlq.ErrCodec
	// ErrArity reports a function record that does not hold exactly five values.
	ErrArity = errors.New("function mapping must have 5 elements")
	// ErrRange reports a name index outside the name table.
	ErrRange = errors.New("name index out of range")
	// ErrOrdering reports function mappings that are not sorted by start position.
	ErrOrdering = errors.New("function mappings are not ordered")
	// ErrNesting reports two functions that overlap without one containing the other.
	ErrNesting = errors.New("invalid nesting in function mappings")
	// ErrPosition reports negative coordinates or a start after the end.
	ErrPosition = errors.New("invalid function position")
	// ErrUnknownSource reports a lookup for a source that is not in the map.
	ErrUnknownSource = errors.New("source not found in source map")
	// ErrSelfCheck reports encoder output that its own decoder rejects.
	ErrSelfCheck = errors.New("encoder self-check failed")
)
