package pilot

import (
	"fmt"
	"time"

	"donkey-remote-be/pkg/drive"
)

func NewPilot(spec Spec) (drive.Pilot, error) {
	switch spec.Kind {
	case KindHTTP:
		timeout := time.Duration(spec.TimeoutMs) * time.Millisecond
		return NewHTTPPilot(spec.Name, spec.URL, timeout), nil
	case KindConstant:
		return NewConstantPilot(spec.Name, spec.Angle, spec.Throttle), nil
	default:
		return nil, fmt.Errorf("unsupported pilot kind: %s", spec.Kind)
	}
}
