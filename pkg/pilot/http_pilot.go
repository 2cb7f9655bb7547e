package pilot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"donkey-remote-be/pkg/drive"
)

// HTTPPilot delegates inference to a model server. The frame is POSTed as
// image/jpeg and the server answers {"angle": f, "throttle": f}.
type HTTPPilot struct {
	name   string
	URL    string
	Client *http.Client
}

var _ drive.Pilot = &HTTPPilot{}

func NewHTTPPilot(name, url string, timeout time.Duration) *HTTPPilot {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HTTPPilot{
		name: name,
		URL:  url,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

type decisionResponse struct {
	Angle    *float64 `json:"angle"`
	Throttle *float64 `json:"throttle"`
}

func (p *HTTPPilot) Name() string { return p.name }

// Decide posts the frame's JPEG bytes as uploaded; nothing is re-encoded.
func (p *HTTPPilot) Decide(ctx context.Context, frame *drive.Frame) (float64, float64, error) {
	if frame == nil || len(frame.JPEG) == 0 {
		return 0, 0, fmt.Errorf("pilot %s: empty frame", p.name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(frame.JPEG))
	if err != nil {
		return 0, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := p.Client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("pilot request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, 0, fmt.Errorf("pilot server returned status %d: %s", resp.StatusCode, string(msg))
	}

	var out decisionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, 0, fmt.Errorf("decode pilot response: %w", err)
	}
	if out.Angle == nil || out.Throttle == nil {
		return 0, 0, fmt.Errorf("pilot response missing angle or throttle")
	}

	return *out.Angle, *out.Throttle, nil
}
