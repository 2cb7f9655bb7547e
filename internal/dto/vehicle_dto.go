package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"donkey-remote-be/pkg/drive"
)

// DriveCommandResponse is the control tick answer. Values are decimal
// strings, not JSON numbers; vehicles parse them as text.
type DriveCommandResponse struct {
	Angle     string `json:"angle"`
	Throttle  string `json:"throttle"`
	DriveMode string `json:"drive_mode"`
}

// FlexDecimal accepts a JSON string, number, or null. Blank and null are zero.
type FlexDecimal struct {
	Raw string
}

func (f *FlexDecimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		f.Raw = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f.Raw = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected number or string, got %s", string(data))
	}
	f.Raw = n.String()
	return nil
}

func (f FlexDecimal) Float() (float64, error) {
	return drive.ParseDecimal(f.Raw)
}

type TeleopRequest struct {
	Angle     FlexDecimal `json:"angle"`
	Throttle  FlexDecimal `json:"throttle"`
	DriveMode string      `json:"drive_mode" validate:"max=32"`
	Recording *bool       `json:"recording"`
}

type SelectPilotRequest struct {
	Pilot string `json:"pilot" validate:"max=128"`
}

type VehicleStatusResponse struct {
	Id            string     `json:"id"`
	UserAngle     float64    `json:"user_angle"`
	UserThrottle  float64    `json:"user_throttle"`
	DriveMode     string     `json:"drive_mode"`
	Pilot         string     `json:"pilot"`
	PilotAngle    float64    `json:"pilot_angle"`
	PilotThrottle float64    `json:"pilot_throttle"`
	Recording     bool       `json:"recording"`
	SessionId     string     `json:"session_id,omitempty"`
	Milliseconds  int64      `json:"milliseconds"`
	FrameSeq      uint64     `json:"frame_seq"`
	LastFrameAt   *time.Time `json:"last_frame_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type PilotListResponse struct {
	Pilots []string `json:"pilots"`
}
