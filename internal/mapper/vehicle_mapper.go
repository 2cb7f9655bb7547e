package mapper

import (
	"donkey-remote-be/internal/dto"
	"donkey-remote-be/internal/entity"
	"donkey-remote-be/pkg/drive"
)

type VehicleMapper struct{}

func NewVehicleMapper() *VehicleMapper {
	return &VehicleMapper{}
}

func (m *VehicleMapper) ToStatus(v *entity.Vehicle, state entity.VehicleState) *dto.VehicleStatusResponse {
	if v == nil {
		return nil
	}

	res := &dto.VehicleStatusResponse{
		Id:            v.Id,
		UserAngle:     state.UserAngle,
		UserThrottle:  state.UserThrottle,
		DriveMode:     string(state.DriveMode),
		Pilot:         state.PilotName(),
		PilotAngle:    state.PilotAngle,
		PilotThrottle: state.PilotThrottle,
		Recording:     state.Recording(),
		Milliseconds:  state.Milliseconds,
		CreatedAt:     v.CreatedAt,
	}
	if state.Session != nil {
		res.SessionId = state.Session.ID()
	}
	if f := v.LatestFrame(); f != nil {
		at := f.CapturedAt
		res.FrameSeq = f.Seq
		res.LastFrameAt = &at
	}
	return res
}

// ToStatusSnapshot takes a fresh snapshot before mapping.
func (m *VehicleMapper) ToStatusSnapshot(v *entity.Vehicle) *dto.VehicleStatusResponse {
	if v == nil {
		return nil
	}
	return m.ToStatus(v, v.Snapshot())
}

func (m *VehicleMapper) ToStatuses(vehicles []*entity.Vehicle) []*dto.VehicleStatusResponse {
	result := make([]*dto.VehicleStatusResponse, len(vehicles))
	for i, v := range vehicles {
		result[i] = m.ToStatusSnapshot(v)
	}
	return result
}

func (m *VehicleMapper) ToDriveCommand(angle, throttle float64, mode drive.Mode) *dto.DriveCommandResponse {
	return &dto.DriveCommandResponse{
		Angle:     drive.FormatDecimal(angle),
		Throttle:  drive.FormatDecimal(throttle),
		DriveMode: string(mode),
	}
}
