package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"donkey-remote-be/pkg/drive"

	fcolor "github.com/fatih/color"
)

// Simulated vehicle: posts synthetic camera frames to a running server and
// walks through every drive mode while printing the returned commands.

type driveCommand struct {
	Angle     string `json:"angle"`
	Throttle  string `json:"throttle"`
	DriveMode string `json:"drive_mode"`
}

type phase struct {
	mode  drive.Mode
	ticks int
}

func main() {
	baseURL := flag.String("url", "http://localhost:8887/api", "server api base url")
	vehicleID := flag.String("vehicle", "sim1", "vehicle id")
	pilotName := flag.String("pilot", "", "pilot to load before driving (optional)")
	rate := flag.Duration("interval", 100*time.Millisecond, "time between control ticks")
	ticks := flag.Int("ticks", 20, "ticks per drive mode")
	record := flag.Bool("record", false, "record the session while driving")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}

	fcolor.Cyan("🚗 Simulating vehicle %q against %s\n", *vehicleID, *baseURL)

	if *pilotName != "" {
		fcolor.Yellow("Loading pilot %q", *pilotName)
		if err := postJSON(client, fmt.Sprintf("%s/vehicles/%s/pilot", *baseURL, *vehicleID), map[string]string{"pilot": *pilotName}); err != nil {
			fcolor.Red("Failed: %v", err)
			os.Exit(1)
		}
	}

	phases := []phase{
		{mode: drive.ModeUser, ticks: *ticks},
		{mode: drive.ModeAutoAngle, ticks: *ticks},
		{mode: drive.ModeAuto, ticks: *ticks},
	}

	var sent, failed int
	started := time.Now()
	for _, p := range phases {
		fcolor.Yellow("\n[MODE] %s", p.mode)
		for i := 0; i < p.ticks; i++ {
			userAngle := math.Sin(float64(sent) / 10)
			err := postJSON(client, fmt.Sprintf("%s/vehicles/drive/%s", *baseURL, *vehicleID), map[string]interface{}{
				"angle":      drive.FormatDecimal(math.Round(userAngle*100) / 100),
				"throttle":   "0.3",
				"drive_mode": string(p.mode),
				"recording":  *record,
			})
			if err != nil {
				fcolor.Red("teleop failed: %v", err)
				failed++
				continue
			}

			cmd, elapsed, err := tick(client, fmt.Sprintf("%s/vehicles/control/%s", *baseURL, *vehicleID), sent)
			sent++
			if err != nil {
				fcolor.Red("tick %03d failed: %v", sent, err)
				failed++
				continue
			}
			fcolor.Green("tick %03d  angle=%-6s throttle=%-6s mode=%-10s %s",
				sent, cmd.Angle, cmd.Throttle, cmd.DriveMode, elapsed.Round(time.Millisecond))
			time.Sleep(*rate)
		}
	}

	// Leave the vehicle parked and stop recording.
	_ = postJSON(client, fmt.Sprintf("%s/vehicles/drive/%s", *baseURL, *vehicleID), map[string]interface{}{
		"angle": "", "throttle": "", "drive_mode": "user", "recording": false,
	})

	fcolor.Cyan("\nDone: %d ticks, %d failures in %s", sent, failed, time.Since(started).Round(time.Millisecond))
	if failed > 0 {
		os.Exit(1)
	}
}

func tick(client *http.Client, url string, n int) (*driveCommand, time.Duration, error) {
	frame, err := drive.EncodeJPEG(syntheticFrame(n), 80)
	if err != nil {
		return nil, 0, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("img", fmt.Sprintf("frame_%05d.jpg", n))
	if err != nil {
		return nil, 0, err
	}
	if _, err := fw.Write(frame); err != nil {
		return nil, 0, err
	}
	if err := mw.Close(); err != nil {
		return nil, 0, err
	}

	start := time.Now()
	resp, err := client.Post(url, mw.FormDataContentType(), &body)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	elapsed := time.Since(start)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, elapsed, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, elapsed, fmt.Errorf("status %s: %s", resp.Status, raw)
	}

	var cmd driveCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil, elapsed, err
	}
	return &cmd, elapsed, nil
}

// syntheticFrame draws a 160x120 road-like gradient with a lane line that
// drifts with n.
func syntheticFrame(n int) image.Image {
	const w, h = 160, 120
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	lane := w/2 + int(30*math.Sin(float64(n)/8))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			shade := uint8(40 + y)
			c := color.RGBA{R: shade, G: shade, B: shade, A: 255}
			if x >= lane-2 && x <= lane+2 && y > h/3 {
				c = color.RGBA{R: 240, G: 220, B: 40, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func postJSON(client *http.Client, url string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %s: %s", resp.Status, body)
	}
	return nil
}
