package drive

import "strings"

// Mode selects which angle/throttle pair is authoritative for a vehicle.
type Mode string

const (
	ModeUser      Mode = "user"
	ModeAutoAngle Mode = "auto_angle"
	ModeAuto      Mode = "auto"
)

// ParseMode maps a wire value to a known Mode. Unknown values report false
// and resolve to ModeUser.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.TrimSpace(s)) {
	case ModeUser:
		return ModeUser, true
	case ModeAutoAngle:
		return ModeAutoAngle, true
	case ModeAuto:
		return ModeAuto, true
	default:
		return ModeUser, false
	}
}

// Arbitrate picks the authoritative angle and throttle for mode.
//
//	user       -> user angle,  user throttle
//	auto_angle -> pilot angle, user throttle
//	auto       -> pilot angle, pilot throttle
//
// Anything else behaves like user.
func Arbitrate(mode Mode, userAngle, userThrottle, pilotAngle, pilotThrottle float64) (float64, float64) {
	switch mode {
	case ModeAutoAngle:
		return pilotAngle, userThrottle
	case ModeAuto:
		return pilotAngle, pilotThrottle
	default:
		return userAngle, userThrottle
	}
}
