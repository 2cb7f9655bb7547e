package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"donkey-remote-be/internal/pkg/logger"
	"donkey-remote-be/internal/repository/contract"
)

const (
	VideoBoundary    = "--boundarydonotcross"
	VideoContentType = "multipart/x-mixed-replace;boundary=" + VideoBoundary
)

// videoIdle is written on intervals without a frame. Multipart readers skip
// anything ahead of the first boundary, and the flush that carries it is
// how a viewer that went away is noticed.
var videoIdle = []byte("\r\n")

// FrameWriter is the per-viewer sink. *bufio.Writer satisfies it.
type FrameWriter interface {
	io.Writer
	Flush() error
}

type IVideoService interface {
	// Stream writes the newest frame of vehicleID to w once per interval
	// until ctx ends or a write or flush fails. Viewers of a vehicle that
	// has not ticked yet get a bare CRLF per interval until its first frame.
	Stream(ctx context.Context, vehicleID string, w FrameWriter) error
}

type videoService struct {
	vehicles contract.VehicleRepository
	interval time.Duration
	logger   logger.ILogger
}

func NewVideoService(vehicles contract.VehicleRepository, interval time.Duration, log logger.ILogger) IVideoService {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &videoService{
		vehicles: vehicles,
		interval: interval,
		logger:   log,
	}
}

func (s *videoService) Stream(ctx context.Context, vehicleID string, w FrameWriter) error {
	s.logger.Info("VideoService", "Viewer connected", map[string]interface{}{"vehicle_id": vehicleID})

	var sent int
	startedAt := time.Now()
	err := s.loop(ctx, vehicleID, w, &sent)

	s.logger.Info("VideoService", "Viewer disconnected", map[string]interface{}{
		"vehicle_id": vehicleID,
		"frames":     sent,
		"duration":   time.Since(startedAt).String(),
		"reason":     fmt.Sprint(err),
	})
	return err
}

func (s *videoService) loop(ctx context.Context, vehicleID string, w FrameWriter, sent *int) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		began := time.Now()
		if jpeg := s.latest(vehicleID); jpeg != nil {
			if err := WriteVideoPart(w, jpeg); err != nil {
				return err
			}
			*sent++
		} else if _, err := w.Write(videoIdle); err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return err
		}

		wait := s.interval - time.Since(began)
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)
	}
}

func (s *videoService) latest(vehicleID string) []byte {
	vehicle, ok := s.vehicles.Lookup(vehicleID)
	if !ok {
		return nil
	}
	if frame := vehicle.LatestFrame(); frame != nil {
		return frame.JPEG
	}
	return nil
}

// WriteVideoPart writes one multipart part in the layout existing viewers
// parse: boundary, then headers, then the JPEG bytes.
func WriteVideoPart(w io.Writer, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "%sContent-type: image/jpeg\r\nContent-length: %d\r\n\r\n", VideoBoundary, len(jpeg)); err != nil {
		return err
	}
	_, err := w.Write(jpeg)
	return err
}
