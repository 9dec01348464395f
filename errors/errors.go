package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrNotFound           = fmt.Errorf("record not found")
	ErrUnsupportedCommand = fmt.Errorf("unsupported command")
	ErrBusClosed          = fmt.Errorf("output bus closed")
	ErrMalformedFrame     = fmt.Errorf("malformed frame")
	ErrUnknownFrameType   = fmt.Errorf("unknown frame type")
	ErrEmptyWords         = fmt.Errorf("no censored words loaded")
)

// LaggedError is returned to a bus subscriber that fell behind the bus capacity.
// The subscription resumes at the oldest envelope still retained.
type LaggedError struct {
	Skipped uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("subscriber lagged, %d envelopes skipped", e.Skipped)
}
