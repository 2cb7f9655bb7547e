package service

import (
	"context"
	"fmt"
	"time"

	"donkey-remote-be/internal/dto"
	"donkey-remote-be/internal/entity"
	"donkey-remote-be/internal/mapper"
	"donkey-remote-be/internal/pkg/logger"
	"donkey-remote-be/internal/repository/contract"
	"donkey-remote-be/pkg/drive"
	"donkey-remote-be/pkg/events"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type IControlService interface {
	// Tick runs one control cycle for a vehicle: decode the frame, ask the
	// pilot, arbitrate, publish the frame and record it.
	Tick(ctx context.Context, vehicleID string, img []byte) (*dto.DriveCommandResponse, error)
}

type ControlOptions struct {
	PilotTimeout time.Duration
	JPEGQuality  int
}

type controlService struct {
	vehicles         contract.VehicleRepository
	publisherService IPublisherService
	mapper           *mapper.VehicleMapper
	logger           logger.ILogger
	tracer           trace.Tracer
	opts             ControlOptions
	now              func() time.Time
}

func NewControlService(
	vehicles contract.VehicleRepository,
	publisherService IPublisherService,
	log logger.ILogger,
	opts ControlOptions,
) IControlService {
	if opts.PilotTimeout <= 0 {
		opts.PilotTimeout = time.Second
	}
	return &controlService{
		vehicles:         vehicles,
		publisherService: publisherService,
		mapper:           mapper.NewVehicleMapper(),
		logger:           log,
		tracer:           otel.Tracer("donkey-remote/control"),
		opts:             opts,
		now:              time.Now,
	}
}

func (s *controlService) Tick(ctx context.Context, vehicleID string, img []byte) (*dto.DriveCommandResponse, error) {
	ctx, span := s.tracer.Start(ctx, "control.tick", trace.WithAttributes(
		attribute.String("vehicle.id", vehicleID),
		attribute.Int("frame.bytes", len(img)),
	))
	defer span.End()

	frame, err := drive.DecodeFrame(img, s.opts.JPEGQuality)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode")
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	frame.CapturedAt = s.now()

	vehicle := s.vehicles.GetOrCreate(vehicleID)
	release := vehicle.BeginTick()
	defer release()

	pilot := vehicle.Snapshot().Pilot
	pilotAngle, pilotThrottle := s.infer(ctx, vehicle, pilot, frame)

	vehicle.PublishFrame(frame)

	// Pilot outputs and arbitration share one critical section so the
	// command always reflects a single consistent state. A teleop update
	// may still land while inference is running.
	var angle, throttle float64
	state := vehicle.Mutate(func(st *entity.VehicleState) {
		st.PilotAngle = pilotAngle
		st.PilotThrottle = pilotThrottle
		angle, throttle = drive.Arbitrate(st.DriveMode, st.UserAngle, st.UserThrottle, st.PilotAngle, st.PilotThrottle)
	})

	if state.Session != nil {
		milliseconds := frame.CapturedAt.UnixMilli()
		if err := state.Session.Append(ctx, frame, angle, throttle, milliseconds); err != nil {
			span.RecordError(err)
			s.logger.Error("ControlService", "Failed to record frame", map[string]interface{}{
				"vehicle_id": vehicleID,
				"session_id": state.Session.ID(),
				"error":      fmt.Errorf("%w: %v", ErrRecorder, err).Error(),
			})
		}
	}

	span.SetAttributes(
		attribute.String("drive.mode", string(state.DriveMode)),
		attribute.Float64("drive.angle", angle),
		attribute.Float64("drive.throttle", throttle),
	)

	s.publisherService.Publish(ctx, events.NewVehicleEvent(events.TypeVehicleTick, vehicleID, map[string]interface{}{
		"angle":          angle,
		"throttle":       throttle,
		"drive_mode":     string(state.DriveMode),
		"pilot":          state.PilotName(),
		"pilot_angle":    pilotAngle,
		"pilot_throttle": pilotThrottle,
		"recording":      state.Recording(),
		"frame_seq":      frame.Seq,
	}))

	return s.mapper.ToDriveCommand(angle, throttle, state.DriveMode), nil
}

type decision struct {
	angle, throttle float64
	err             error
}

// infer runs the pilot under the configured timeout. Any failure, panic or
// non-finite output yields (0, 0). A call abandoned on timeout keeps the
// vehicle's inference claim until the pilot returns, and ticks in between
// skip the pilot.
func (s *controlService) infer(ctx context.Context, vehicle *entity.Vehicle, pilot drive.Pilot, frame *drive.Frame) (float64, float64) {
	if pilot == nil {
		return 0, 0
	}
	vehicleID := vehicle.Id

	if !vehicle.BeginInference() {
		s.logger.Warn("ControlService", "Previous pilot call still running, using zero outputs", map[string]interface{}{
			"vehicle_id": vehicleID,
			"pilot":      pilot.Name(),
		})
		return 0, 0
	}

	ctx, span := s.tracer.Start(ctx, "pilot.decide", trace.WithAttributes(attribute.String("pilot.name", pilot.Name())))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.opts.PilotTimeout)
	defer cancel()

	done := make(chan decision, 1)
	go func() {
		var d decision
		func() {
			defer func() {
				if r := recover(); r != nil {
					d = decision{err: fmt.Errorf("pilot panicked: %v", r)}
				}
			}()
			d.angle, d.throttle, d.err = pilot.Decide(ctx, frame)
		}()
		// Release before reporting so the next tick finds the pilot free.
		vehicle.EndInference()
		done <- d
	}()

	var d decision
	select {
	case d = <-done:
	case <-ctx.Done():
		d = decision{err: ctx.Err()}
	}

	if d.err == nil && !drive.Finite(d.angle, d.throttle) {
		d.err = fmt.Errorf("non-finite output angle=%v throttle=%v", d.angle, d.throttle)
	}
	if d.err != nil {
		err := fmt.Errorf("%w: %v", ErrInference, d.err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "inference")
		s.logger.Warn("ControlService", "Pilot failed, using zero outputs", map[string]interface{}{
			"vehicle_id": vehicleID,
			"pilot":      pilot.Name(),
			"error":      err.Error(),
		})
		return 0, 0
	}
	return d.angle, d.throttle
}
