package contract

import "errors"

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrPromptMissing   = errors.New("required prompt is missing")
	ErrValidation      = errors.New("validation failed")
	ErrIterationLimit  = errors.New("agent iteration limit reached")

	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUpstream        = errors.New("upstream service failed")
	// ErrCorruptData marks persisted state that cannot be trusted. It is the
	// only tool failure that aborts a turn.
	ErrCorruptData = errors.New("corrupt persisted data")
)
