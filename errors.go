package xslt

import (
	"errors"
	"fmt"
)

// Evaluation errors are classified by a small set of sentinel kinds.
// Callers test the kind with errors.Is and read the wrapped message for
// detail. The evaluator never panics on well-formed input; every failure
// surfaces as one of these kinds.
var (
	// ErrType reports a value or sequence of the wrong type or cardinality.
	ErrType = errors.New("type error")

	// ErrDynamicAbsent reports a missing part of the dynamic context,
	// such as an absent context item or an unset variable.
	ErrDynamicAbsent = errors.New("dynamic context absent")

	// ErrContextNotNode reports a context item that must be a node but is not.
	ErrContextNotNode = errors.New("context item is not a node")

	// ErrNotImplemented reports a constructor or function that is not implemented.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnknown is the catch-all for internal mis-invariants,
	// such as a missing result tree.
	ErrUnknown = errors.New("unknown error")
)

func errType(msg string) error {
	return fmt.Errorf("%w: %s", ErrType, msg)
}

func errTypef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrType, fmt.Sprintf(format, args...))
}

func errDynamicAbsent(msg string) error {
	return fmt.Errorf("%w: %s", ErrDynamicAbsent, msg)
}

func errContextNotNode(msg string) error {
	return fmt.Errorf("%w: %s", ErrContextNotNode, msg)
}

func errNotImplemented(msg string) error {
	return fmt.Errorf("%w: %s", ErrNotImplemented, msg)
}

func errNotImplementedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotImplemented, fmt.Sprintf(format, args...))
}

func errUnknown(msg string) error {
	return fmt.Errorf("%w: %s", ErrUnknown, msg)
}

func errUnknownf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnknown, fmt.Sprintf(format, args...))
}
