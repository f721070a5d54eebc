package metamodel

import "errors"

// ErrValidation marks a node/edge rejection against the schema: missing
// required attribute, wrong kind, out-of-range length, unknown type. Callers
// treat this as recoverable — the caller may retry with corrected input.
var ErrValidation = errors.New("validation failed")

// ErrSchema marks a problem with the schema document itself: an unknown
// override target, a cycle in `extends`, or a malformed document. Callers
// treat this as fatal for the load — the registry cannot be constructed.
var ErrSchema = errors.New("schema error")
