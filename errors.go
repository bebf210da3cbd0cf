package vkres

import "errors"

// Sentinel errors returned by vkres. Native failures are returned wrapped
// with the failing operation and can be inspected with errors.Is/As.
var (
	// ErrIntegerOverflow is returned when a size, pitch or offset
	// computation overflows.
	ErrIntegerOverflow = errors.New("vkres: integer overflow")

	// ErrTooManyObjects is returned when the descriptor pool ceiling is
	// reached. It signals a leak rather than a recoverable condition.
	ErrTooManyObjects = errors.New("vkres: too many objects")

	// ErrInvalidArgument is returned for requests that can never be
	// satisfied, such as updates addressed outside an image.
	ErrInvalidArgument = errors.New("vkres: invalid argument")

	// ErrNotHostVisible is returned when host access is required for a
	// buffer whose memory cannot be mapped.
	ErrNotHostVisible = errors.New("vkres: memory is not host visible")

	// ErrUnsupported is returned when a format or conversion is not
	// supported.
	ErrUnsupported = errors.New("vkres: unsupported")
)
