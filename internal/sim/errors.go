package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates run settings that cannot drive a world.
	ErrInvalidConfig = errors.New("sim: invalid run config")

	// ErrEmptyWorld indicates a world without any cars to follow.
	ErrEmptyWorld = errors.New("sim: world has no cars")

	// ErrNonFinite indicates a car pose became NaN or Inf.
	ErrNonFinite = errors.New("sim: car pose is not finite")
)

// FrameError wraps an error with the frame it occurred on.
type FrameError struct {
	Frame   int
	Wrapped error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d: %v", e.Frame, e.Wrapped)
}

func (e *FrameError) Unwrap() error {
	return e.Wrapped
}
