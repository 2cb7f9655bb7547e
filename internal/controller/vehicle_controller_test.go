package controller

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"donkey-remote-be/internal/dto"
	"donkey-remote-be/internal/entity"
	"donkey-remote-be/internal/pkg/logger"
	"donkey-remote-be/internal/pkg/serverutils"
	"donkey-remote-be/internal/repository/contract"
	"donkey-remote-be/internal/repository/memory"
	"donkey-remote-be/internal/service"
	"donkey-remote-be/pkg/drive"
	"donkey-remote-be/pkg/events"
	"donkey-remote-be/pkg/pilot"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, events.Event) {}

type nopRecorder struct{}

func (nopRecorder) Open(context.Context) (drive.Session, error) { return nopSession{}, nil }

type nopSession struct{}

func (nopSession) ID() string { return "session" }

func (nopSession) Append(context.Context, *drive.Frame, float64, float64, int64) error { return nil }

// onePartVideo emits a single part and ends the stream so app.Test returns.
type onePartVideo struct{}

func (onePartVideo) Stream(_ context.Context, _ string, w service.FrameWriter) error {
	if err := service.WriteVideoPart(w, []byte{0xff, 0xd8, 0xff, 0xd9}); err != nil {
		return err
	}
	return w.Flush()
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	log := logger.NewNopLogger()
	registry := memory.NewVehicleRepository(0, log)
	catalog, err := pilot.NewCatalog(pilot.Spec{Name: "steady", Kind: pilot.KindConstant, Angle: 0.3, Throttle: 0.5})
	require.NoError(t, err)

	pub := discardPublisher{}
	vc := NewVehicleController(
		context.Background(),
		service.NewControlService(registry, pub, log, service.ControlOptions{PilotTimeout: time.Second, JPEGQuality: 90}),
		service.NewTeleopService(registry, nopRecorder{}, pub, log),
		onePartVideo{},
		service.NewVehicleService(registry, catalog, pub, log),
	)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	vc.RegisterRoutes(app.Group("/api"))
	return app
}

func frameUpload(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, "frame.jpg")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/vehicles/control/car1", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	data, err := drive.EncodeJPEG(image.NewGray(image.Rect(0, 0, 4, 4)), 90)
	require.NoError(t, err)
	return data
}

func jsonRequest(method, target, contentType, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	return req
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestControlTickScenario(t *testing.T) {
	app := newTestApp(t)

	status, _ := do(t, app, jsonRequest(http.MethodPost, "/api/vehicles/car1/pilot", fiber.MIMEApplicationJSON, `{"pilot":"steady"}`))
	require.Equal(t, fiber.StatusOK, status)
	status, _ = do(t, app, jsonRequest(http.MethodPost, "/api/vehicles/drive/car1", fiber.MIMEApplicationJSON, `{"angle":"","throttle":"","drive_mode":"auto"}`))
	require.Equal(t, fiber.StatusOK, status)

	status, body := do(t, app, frameUpload(t, "img", testJPEG(t)))
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"angle":"0.3","throttle":"0.5","drive_mode":"auto"}`, string(body))

	// jQuery style console: JSON body, form content type
	status, _ = do(t, app, jsonRequest(http.MethodPost, "/api/vehicles/drive/car1", fiber.MIMEApplicationForm, `{"angle":"0","throttle":"0.2","drive_mode":"auto_angle"}`))
	require.Equal(t, fiber.StatusOK, status)

	status, body = do(t, app, frameUpload(t, "img", testJPEG(t)))
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"angle":"0.3","throttle":"0.2","drive_mode":"auto_angle"}`, string(body))
}

func TestControlTickBadUploads(t *testing.T) {
	app := newTestApp(t)

	status, _ := do(t, app, frameUpload(t, "image", testJPEG(t)))
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := do(t, app, frameUpload(t, "img", []byte("definitely not a jpeg")))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(body), "frame decode failed")
}

func TestDriveReturnsStatus(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, jsonRequest(http.MethodPost, "/api/vehicles/drive/car7", fiber.MIMEApplicationJSON, `{"angle":0.25,"throttle":"0.4","drive_mode":"user","recording":true}`))
	require.Equal(t, fiber.StatusOK, status)

	var res serverutils.BaseResponse[dto.VehicleStatusResponse]
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, res.Success)
	assert.Equal(t, "car7", res.Data.Id)
	assert.Equal(t, 0.25, res.Data.UserAngle)
	assert.True(t, res.Data.Recording)
	assert.Equal(t, "session", res.Data.SessionId)

	status, _ = do(t, app, jsonRequest(http.MethodPost, "/api/vehicles/drive/car7", fiber.MIMEApplicationJSON, `{"angle":"hard left"}`))
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do(t, app, jsonRequest(http.MethodPost, "/api/vehicles/drive/car7", fiber.MIMEApplicationJSON, `not json`))
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestPilotRoutes(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/pilots", nil))
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `"steady"`)

	status, _ = do(t, app, jsonRequest(http.MethodPost, "/api/vehicles/car1/pilot", fiber.MIMEApplicationJSON, `{"pilot":"ghost"}`))
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = do(t, app, httptest.NewRequest(http.MethodGet, "/api/vehicles", nil))
	require.Equal(t, fiber.StatusOK, status)
	var res serverutils.BaseResponse[[]dto.VehicleStatusResponse]
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Empty(t, res.Data)

	status, body = do(t, app, httptest.NewRequest(http.MethodGet, "/api/vehicles/car3", nil))
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `"drive_mode":"user"`)
}

func TestVideoHeadersAndFraming(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/vehicles/video/car1", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, "multipart/x-mixed-replace;boundary=--boundarydonotcross", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "--boundarydonotcrossContent-type: image/jpeg\r\nContent-length: 4\r\n\r\n\xff\xd8\xff\xd9", string(body))
}

type countingRegistry struct {
	contract.VehicleRepository
	lookups atomic.Int64
}

func (r *countingRegistry) Lookup(id string) (*entity.Vehicle, bool) {
	r.lookups.Add(1)
	return r.VehicleRepository.Lookup(id)
}

// serveVideo runs the video route on a real listener and returns its address.
func serveVideo(t *testing.T, streams context.Context, registry contract.VehicleRepository) string {
	t.Helper()
	vc := NewVehicleController(streams, nil, nil,
		service.NewVideoService(registry, 10*time.Millisecond, logger.NewNopLogger()), nil)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	vc.RegisterRoutes(app.Group("/api"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.ShutdownWithTimeout(time.Second) })
	return ln.Addr().String()
}

// openVideo sends the request and reads up to the end of the response
// headers, which only arrive once the stream flushes.
func openVideo(t *testing.T, addr, vehicleID string) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	_, err = fmt.Fprintf(conn, "GET /api/vehicles/video/%s HTTP/1.1\r\nHost: test\r\n\r\n", vehicleID)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	r := bufio.NewReader(conn)
	status, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, status, "200")
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(strings.ToLower(line), "content-type:") {
			assert.Contains(t, line, service.VideoContentType)
		}
		if line == "\r\n" {
			break
		}
	}
	return conn
}

// settled reports whether no lookups happen over a few poll intervals.
func settled(registry *countingRegistry) func() bool {
	return func() bool {
		before := registry.lookups.Load()
		time.Sleep(60 * time.Millisecond)
		return registry.lookups.Load() == before
	}
}

func TestVideoStreamStopsPollingAfterViewerLeaves(t *testing.T) {
	registry := &countingRegistry{VehicleRepository: memory.NewVehicleRepository(0, logger.NewNopLogger())}
	addr := serveVideo(t, context.Background(), registry)

	conn := openVideo(t, addr, "ghost")
	require.Eventually(t, func() bool { return registry.lookups.Load() > 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, conn.Close())

	require.Eventually(t, settled(registry), 2*time.Second, 10*time.Millisecond)
	after := registry.lookups.Load()
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, after, registry.lookups.Load(), "no polling for a closed connection")

	_, created := registry.Lookup("ghost")
	assert.False(t, created)
}

func TestVideoStreamEndsWithServer(t *testing.T) {
	registry := &countingRegistry{VehicleRepository: memory.NewVehicleRepository(0, logger.NewNopLogger())}
	streams, stop := context.WithCancel(context.Background())
	defer stop()
	addr := serveVideo(t, streams, registry)

	conn := openVideo(t, addr, "car1")
	defer conn.Close()
	require.Eventually(t, func() bool { return registry.lookups.Load() > 3 }, time.Second, 5*time.Millisecond)

	stop()
	require.Eventually(t, settled(registry), 2*time.Second, 10*time.Millisecond)
}
