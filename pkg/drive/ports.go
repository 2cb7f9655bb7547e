package drive

import "context"

// Pilot maps a camera frame to a proposed angle and throttle. The frame
// carries both the decoded image and the uploaded JPEG bytes; pilots must
// not modify it.
type Pilot interface {
	Name() string
	Decide(ctx context.Context, frame *Frame) (angle, throttle float64, err error)
}

// SessionRecorder opens recording sessions.
type SessionRecorder interface {
	Open(ctx context.Context) (Session, error)
}

// Session is an open recording. Stopping a recording drops the handle and
// nothing is called on it afterwards.
type Session interface {
	ID() string
	Append(ctx context.Context, frame *Frame, angle, throttle float64, milliseconds int64) error
}
