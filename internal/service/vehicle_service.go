package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"donkey-remote-be/internal/dto"
	"donkey-remote-be/internal/entity"
	"donkey-remote-be/internal/mapper"
	"donkey-remote-be/internal/pkg/logger"
	"donkey-remote-be/internal/repository/contract"
	"donkey-remote-be/pkg/drive"
	"donkey-remote-be/pkg/events"
	"donkey-remote-be/pkg/pilot"
)

// PilotLoader builds pilots by name. Implemented by pilot.Catalog.
type PilotLoader interface {
	Names() []string
	Load(name string) (drive.Pilot, error)
}

type IVehicleService interface {
	GetAll(ctx context.Context) []*dto.VehicleStatusResponse
	// Show creates the entry on first contact like every other vehicle route.
	Show(ctx context.Context, vehicleID string) (*dto.VehicleStatusResponse, error)
	// SelectPilot installs the named pilot on a vehicle. An empty name
	// unloads the current pilot.
	SelectPilot(ctx context.Context, vehicleID string, req *dto.SelectPilotRequest) (*dto.VehicleStatusResponse, error)
	GetPilots(ctx context.Context) *dto.PilotListResponse
}

type vehicleService struct {
	vehicles         contract.VehicleRepository
	pilots           PilotLoader
	publisherService IPublisherService
	mapper           *mapper.VehicleMapper
	logger           logger.ILogger
}

func NewVehicleService(
	vehicles contract.VehicleRepository,
	pilots PilotLoader,
	publisherService IPublisherService,
	log logger.ILogger,
) IVehicleService {
	return &vehicleService{
		vehicles:         vehicles,
		pilots:           pilots,
		publisherService: publisherService,
		mapper:           mapper.NewVehicleMapper(),
		logger:           log,
	}
}

func (s *vehicleService) GetAll(ctx context.Context) []*dto.VehicleStatusResponse {
	return s.mapper.ToStatuses(s.vehicles.List())
}

func (s *vehicleService) Show(ctx context.Context, vehicleID string) (*dto.VehicleStatusResponse, error) {
	return s.mapper.ToStatusSnapshot(s.vehicles.GetOrCreate(vehicleID)), nil
}

func (s *vehicleService) SelectPilot(ctx context.Context, vehicleID string, req *dto.SelectPilotRequest) (*dto.VehicleStatusResponse, error) {
	name := strings.TrimSpace(req.Pilot)

	var next drive.Pilot
	if name != "" {
		p, err := s.pilots.Load(name)
		if err != nil {
			if errors.Is(err, pilot.ErrUnknownPilot) {
				return nil, fmt.Errorf("%w: %s", ErrPilotNotFound, name)
			}
			return nil, err
		}
		next = p
	}

	vehicle := s.vehicles.GetOrCreate(vehicleID)
	var previous string
	state := vehicle.Mutate(func(st *entity.VehicleState) {
		previous = st.PilotName()
		st.Pilot = next
	})

	s.logger.Info("VehicleService", "Pilot changed", map[string]interface{}{
		"vehicle_id": vehicleID,
		"previous":   previous,
		"pilot":      state.PilotName(),
	})
	s.publisherService.Publish(ctx, events.NewVehicleEvent(events.TypePilotChanged, vehicleID, map[string]interface{}{
		"previous": previous,
		"pilot":    state.PilotName(),
	}))

	return s.mapper.ToStatus(vehicle, state), nil
}

func (s *vehicleService) GetPilots(ctx context.Context) *dto.PilotListResponse {
	return &dto.PilotListResponse{Pilots: s.pilots.Names()}
}
