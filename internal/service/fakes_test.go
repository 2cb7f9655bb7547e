package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"donkey-remote-be/internal/pkg/logger"
	"donkey-remote-be/internal/repository/memory"
	"donkey-remote-be/pkg/drive"
	"donkey-remote-be/pkg/events"
)

func newRegistry() *memory.VehicleRepository {
	return memory.NewVehicleRepository(0, logger.NewNopLogger())
}

func jpegFrame(shade uint8) []byte {
	img := image.NewGray(image.Rect(0, 0, 8, 6))
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	img.SetGray(0, 0, color.Gray{Y: shade / 2})
	data, err := drive.EncodeJPEG(img, 90)
	if err != nil {
		panic(err)
	}
	return data
}

type stubPilot struct {
	name     string
	angle    float64
	throttle float64
	err      error
	panics   bool
	delay    time.Duration

	mu    sync.Mutex
	calls int
}

func (p *stubPilot) Name() string { return p.name }

func (p *stubPilot) Decide(ctx context.Context, _ *drive.Frame) (float64, float64, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.panics {
		panic("model exploded")
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		}
	}
	return p.angle, p.throttle, p.err
}

func (p *stubPilot) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// stuckPilot ignores its context and only returns once release is closed,
// like a model call that cannot be interrupted.
type stuckPilot struct {
	release chan struct{}
	calls   atomic.Int32
}

func (p *stuckPilot) Name() string { return "stuck" }

func (p *stuckPilot) Decide(context.Context, *drive.Frame) (float64, float64, error) {
	p.calls.Add(1)
	<-p.release
	return 0.3, 0.5, nil
}

// overlapPilot records the highest number of Decide calls running at once.
type overlapPilot struct {
	hold time.Duration

	mu      sync.Mutex
	running int
	peak    int
}

func (p *overlapPilot) Name() string { return "overlap" }

func (p *overlapPilot) Decide(context.Context, *drive.Frame) (float64, float64, error) {
	p.mu.Lock()
	p.running++
	if p.running > p.peak {
		p.peak = p.running
	}
	p.mu.Unlock()

	time.Sleep(p.hold)

	p.mu.Lock()
	p.running--
	p.mu.Unlock()
	return 0.1, 0.2, nil
}

func (p *overlapPilot) Peak() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}

type appended struct {
	jpeg         []byte
	angle        float64
	throttle     float64
	milliseconds int64
}

type stubSession struct {
	id        string
	appendErr error

	mu     sync.Mutex
	frames []appended
}

func (s *stubSession) ID() string { return s.id }

func (s *stubSession) Append(_ context.Context, frame *drive.Frame, angle, throttle float64, ms int64) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, appended{jpeg: frame.JPEG, angle: angle, throttle: throttle, milliseconds: ms})
	return nil
}

func (s *stubSession) Frames() []appended {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]appended, len(s.frames))
	copy(out, s.frames)
	return out
}

type stubRecorder struct {
	openErr   error
	appendErr error

	mu       sync.Mutex
	sessions []*stubSession
}

func (r *stubRecorder) Open(context.Context) (drive.Session, error) {
	if r.openErr != nil {
		return nil, r.openErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &stubSession{id: fmt.Sprintf("session-%d", len(r.sessions)+1), appendErr: r.appendErr}
	r.sessions = append(r.sessions, s)
	return s, nil
}

func (r *stubRecorder) Opened() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

func (p *capturePublisher) Last() events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

// bufferWriter is a FrameWriter over a locked buffer. Once failAfter
// flushes have happened every write fails, like a dropped connection.
type bufferWriter struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	flushes   int
	failAfter int
}

var errViewerGone = errors.New("viewer gone")

func (w *bufferWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failAfter > 0 && w.flushes >= w.failAfter {
		return 0, errViewerGone
	}
	return w.buf.Write(p)
}

func (w *bufferWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushes++
	return nil
}

func (w *bufferWriter) Flushes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushes
}

func (w *bufferWriter) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]byte(nil), w.buf.Bytes()...)
}
