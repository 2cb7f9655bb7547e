package service

import "errors"

var (
	// ErrDecode means the uploaded frame could not be read as an image.
	ErrDecode = errors.New("frame decode failed")
	// ErrInference wraps pilot failures. Ticks never return it; it only
	// reaches the log.
	ErrInference = errors.New("pilot inference failed")
	// ErrRecorder wraps session open and append failures.
	ErrRecorder      = errors.New("session recorder failed")
	ErrPilotNotFound = errors.New("pilot not found")
	ErrInvalidTeleop = errors.New("invalid teleop command")
	ErrInvalidTag    = errors.New("invalid tag")
)
