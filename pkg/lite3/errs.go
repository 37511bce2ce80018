package lite3

import "errors"

// Sentinel errors for the Lite³ error taxonomy. Call sites wrap these with
// fmt.Errorf("...: %w", err) so errors.Is keeps working across the wrap.
var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrOutOfSpace          = errors.New("out of space")
	ErrMessageTooLarge     = errors.New("message too large")
	ErrCorruptBuffer       = errors.New("corrupt buffer")
	ErrIO                  = errors.New("i/o error")
	ErrOverflow            = errors.New("overflow")
	ErrIteratorInvalidated = errors.New("iterator invalidated")
)

func isNotFound(err error) bool { return err != nil && errors.Is(err, ErrNotFound) }
