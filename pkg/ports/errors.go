package ports

import "errors"

var (
	// ErrEndOfStream is returned when a source has no more frames. It marks a
	// clean termination, not a failure.
	ErrEndOfStream = errors.New("termvis: end of stream")

	// ErrDecode covers malformed, unsupported, or backend-internal failures.
	ErrDecode = errors.New("termvis: decode error")

	// ErrOutOfMemory is returned when a buffer allocation fails.
	ErrOutOfMemory = errors.New("termvis: out of memory")

	// ErrUnimplemented is returned when the selected backend lacks support.
	ErrUnimplemented = errors.New("termvis: unimplemented")

	// ErrInvalidArgument is returned for bad strides, bounds, or placement.
	ErrInvalidArgument = errors.New("termvis: invalid argument")

	// ErrNotFound is returned by a backend when the source does not exist.
	ErrNotFound = errors.New("termvis: source not found")

	// ErrUnsupportedFormat is returned by a backend that cannot identify a
	// usable visual stream in the source.
	ErrUnsupportedFormat = errors.New("termvis: unsupported format")

	// ErrWouldBlock is a transient backend condition: the decoder wants more
	// input before it can produce a frame, or must be drained first.
	ErrWouldBlock = errors.New("termvis: would block")
)

// Status is the public result kind of a visual operation.
type Status int

const (
	StatusSuccess Status = iota
	StatusEndOfStream
	StatusDecodeError
	StatusOutOfMemory
	StatusUnimplemented
	StatusInvalidArgument
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusEndOfStream:
		return "end of stream"
	case StatusDecodeError:
		return "decode error"
	case StatusOutOfMemory:
		return "out of memory"
	case StatusUnimplemented:
		return "unimplemented"
	case StatusInvalidArgument:
		return "invalid argument"
	default:
		return "unknown"
	}
}

// StatusOf folds an error into one of the public status kinds.
// Backend-level errors that have no public kind of their own map to
// StatusDecodeError.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, ErrEndOfStream):
		return StatusEndOfStream
	case errors.Is(err, ErrOutOfMemory):
		return StatusOutOfMemory
	case errors.Is(err, ErrUnimplemented):
		return StatusUnimplemented
	case errors.Is(err, ErrInvalidArgument):
		return StatusInvalidArgument
	default:
		return StatusDecodeError
	}
}
