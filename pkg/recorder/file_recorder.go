package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"donkey-remote-be/pkg/drive"

	"github.com/google/uuid"
)

// sessionTimeLayout matches the folder names of existing recordings,
// e.g. 2017_01_14__09_41_07_PM.
const sessionTimeLayout = "2006_01_02__03_04_05_PM"

// FileRecorder writes each session into its own folder under root.
type FileRecorder struct {
	root string
	now  func() time.Time
}

var _ drive.SessionRecorder = &FileRecorder{}

func NewFileRecorder(root string) *FileRecorder {
	return &FileRecorder{root: root, now: time.Now}
}

func (r *FileRecorder) Open(ctx context.Context) (drive.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := fmt.Sprintf("%s_%s", r.now().Format(sessionTimeLayout), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	dir := filepath.Join(r.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir %s: %w", dir, err)
	}
	return &FileSession{id: id, dir: dir}, nil
}

// FileSession is one recording folder. Frames are written one file per
// call and nothing stays open between calls, so a session that is dropped
// needs no teardown.
type FileSession struct {
	id  string
	dir string

	mu      sync.Mutex
	counter int
}

func (s *FileSession) ID() string  { return s.id }
func (s *FileSession) Dir() string { return s.dir }

// Append stores the frame as frame_<n>_ttl_<throttle>_agl_<angle>_mil_<ms>.jpg.
func (s *FileSession) Append(ctx context.Context, frame *drive.Frame, angle, throttle float64, milliseconds int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if frame == nil || len(frame.JPEG) == 0 {
		return fmt.Errorf("session %s: empty frame", s.id)
	}

	s.mu.Lock()
	s.counter++
	n := s.counter
	s.mu.Unlock()

	name := FrameFileName(n, angle, throttle, milliseconds)
	if err := os.WriteFile(filepath.Join(s.dir, name), frame.JPEG, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func FrameFileName(counter int, angle, throttle float64, milliseconds int64) string {
	return fmt.Sprintf("frame_%05d_ttl_%s_agl_%s_mil_%d.jpg",
		counter, drive.FormatDecimal(throttle), drive.FormatDecimal(angle), milliseconds)
}
