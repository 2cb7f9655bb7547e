package service

import (
	"context"
	"fmt"
	"strings"

	"donkey-remote-be/internal/dto"
	"donkey-remote-be/internal/entity"
	"donkey-remote-be/internal/mapper"
	"donkey-remote-be/internal/pkg/logger"
	"donkey-remote-be/internal/repository/contract"
	"donkey-remote-be/pkg/drive"
	"donkey-remote-be/pkg/events"
)

type ITeleopService interface {
	// Update applies an operator command. It creates the vehicle entry when
	// it does not exist yet.
	Update(ctx context.Context, vehicleID string, req *dto.TeleopRequest) (*dto.VehicleStatusResponse, error)
}

type teleopService struct {
	vehicles         contract.VehicleRepository
	recorder         drive.SessionRecorder
	publisherService IPublisherService
	mapper           *mapper.VehicleMapper
	logger           logger.ILogger
}

func NewTeleopService(
	vehicles contract.VehicleRepository,
	recorder drive.SessionRecorder,
	publisherService IPublisherService,
	log logger.ILogger,
) ITeleopService {
	return &teleopService{
		vehicles:         vehicles,
		recorder:         recorder,
		publisherService: publisherService,
		mapper:           mapper.NewVehicleMapper(),
		logger:           log,
	}
}

func (s *teleopService) Update(ctx context.Context, vehicleID string, req *dto.TeleopRequest) (*dto.VehicleStatusResponse, error) {
	angle, err := req.Angle.Float()
	if err != nil {
		return nil, fmt.Errorf("%w: angle %q", ErrInvalidTeleop, req.Angle.Raw)
	}
	throttle, err := req.Throttle.Float()
	if err != nil {
		return nil, fmt.Errorf("%w: throttle %q", ErrInvalidTeleop, req.Throttle.Raw)
	}

	mode := drive.ModeUser
	if raw := strings.TrimSpace(req.DriveMode); raw != "" {
		parsed, known := drive.ParseMode(raw)
		if !known {
			s.logger.Warn("TeleopService", "Unknown drive mode, treating as user", map[string]interface{}{
				"vehicle_id": vehicleID,
				"drive_mode": raw,
			})
		}
		mode = parsed
	}
	wantRecording := req.Recording != nil && *req.Recording

	vehicle := s.vehicles.GetOrCreate(vehicleID)

	var (
		openErr error
		started drive.Session
		stopped drive.Session
	)
	state := vehicle.Mutate(func(st *entity.VehicleState) {
		st.UserAngle = angle
		st.UserThrottle = throttle
		st.DriveMode = mode

		switch {
		case wantRecording && st.Session == nil:
			session, err := s.recorder.Open(ctx)
			if err != nil {
				openErr = err
				return
			}
			st.Session = session
			started = session
		case !wantRecording && st.Session != nil:
			stopped = st.Session
			st.Session = nil
		}
	})

	if openErr != nil {
		s.logger.Error("TeleopService", "Failed to open recording session", map[string]interface{}{
			"vehicle_id": vehicleID,
			"error":      fmt.Errorf("%w: %v", ErrRecorder, openErr).Error(),
		})
	}
	if started != nil {
		s.logger.Info("TeleopService", "Recording started", map[string]interface{}{
			"vehicle_id": vehicleID,
			"session_id": started.ID(),
		})
		s.publisherService.Publish(ctx, events.NewVehicleEvent(events.TypeRecordingStarted, vehicleID, map[string]interface{}{
			"session_id": started.ID(),
		}))
	}
	if stopped != nil {
		s.stopRecording(vehicleID, stopped)
		s.publisherService.Publish(ctx, events.NewVehicleEvent(events.TypeRecordingStopped, vehicleID, map[string]interface{}{
			"session_id": stopped.ID(),
		}))
	}

	s.publisherService.Publish(ctx, events.NewVehicleEvent(events.TypeVehicleTeleop, vehicleID, map[string]interface{}{
		"user_angle":    state.UserAngle,
		"user_throttle": state.UserThrottle,
		"drive_mode":    string(state.DriveMode),
		"recording":     state.Recording(),
	}))

	return s.mapper.ToStatus(vehicle, state), nil
}

// stopRecording only drops the handle. Flushing and closing belong to the
// recorder; a tick that already captured the handle may append one more frame.
func (s *teleopService) stopRecording(vehicleID string, session drive.Session) {
	s.logger.Info("TeleopService", "Recording stopped", map[string]interface{}{
		"vehicle_id": vehicleID,
		"session_id": session.ID(),
	})
}
