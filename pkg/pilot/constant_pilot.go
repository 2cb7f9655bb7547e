package pilot

import (
	"context"

	"donkey-remote-be/pkg/drive"
)

// ConstantPilot always proposes the same outputs. Used for bench tests and
// throttle calibration.
type ConstantPilot struct {
	name     string
	angle    float64
	throttle float64
}

var _ drive.Pilot = &ConstantPilot{}

func NewConstantPilot(name string, angle, throttle float64) *ConstantPilot {
	return &ConstantPilot{name: name, angle: angle, throttle: throttle}
}

func (p *ConstantPilot) Name() string { return p.name }

func (p *ConstantPilot) Decide(ctx context.Context, _ *drive.Frame) (float64, float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	return p.angle, p.throttle, nil
}
