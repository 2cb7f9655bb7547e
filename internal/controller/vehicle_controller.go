package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"donkey-remote-be/internal/dto"
	"donkey-remote-be/internal/pkg/serverutils"
	"donkey-remote-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type IVehicleController interface {
	RegisterRoutes(r fiber.Router)
	Control(ctx *fiber.Ctx) error
	Drive(ctx *fiber.Ctx) error
	Video(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	SelectPilot(ctx *fiber.Ctx) error
	GetPilots(ctx *fiber.Ctx) error
}

type vehicleController struct {
	// streams bounds every video stream; it ends with the server.
	streams        context.Context
	controlService service.IControlService
	teleopService  service.ITeleopService
	videoService   service.IVideoService
	vehicleService service.IVehicleService
}

func NewVehicleController(
	streams context.Context,
	controlService service.IControlService,
	teleopService service.ITeleopService,
	videoService service.IVideoService,
	vehicleService service.IVehicleService,
) IVehicleController {
	return &vehicleController{
		streams:        streams,
		controlService: controlService,
		teleopService:  teleopService,
		videoService:   videoService,
		vehicleService: vehicleService,
	}
}

func (c *vehicleController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/vehicles")
	h.Get("", c.GetAll)
	h.Post("/control/:vehicle_id", c.Control)
	h.Post("/drive/:vehicle_id", c.Drive)
	h.Get("/video/:vehicle_id", c.Video)
	h.Get("/:vehicle_id", c.Show)
	h.Post("/:vehicle_id/pilot", c.SelectPilot)

	r.Get("/pilots", c.GetPilots)
}

// Control answers the vehicle with the bare command object; vehicles do not
// understand the response envelope.
func (c *vehicleController) Control(ctx *fiber.Ctx) error {
	header, err := ctx.FormFile("img")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart field 'img' is required")
	}

	file, err := header.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	defer file.Close()

	img, err := io.ReadAll(file)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := c.controlService.Tick(ctx.UserContext(), ctx.Params("vehicle_id"), img)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

// Drive reads the body as JSON whatever the Content-Type; browser consoles
// post JSON as form-urlencoded.
func (c *vehicleController) Drive(ctx *fiber.Ctx) error {
	var req dto.TeleopRequest
	if err := json.Unmarshal(ctx.Body(), &req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.teleopService.Update(ctx.UserContext(), ctx.Params("vehicle_id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update vehicle", res))
}

// Video holds the connection open and streams frames until the viewer
// goes away or the server shuts down. The stream outlives the handler, so
// nothing borrowed from ctx may be used inside it.
func (c *vehicleController) Video(ctx *fiber.Ctx) error {
	vehicleID := utils.CopyString(ctx.Params("vehicle_id"))
	streamCtx := c.streams

	ctx.Set(fiber.HeaderContentType, service.VideoContentType)
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		_ = c.videoService.Stream(streamCtx, vehicleID, w)
	})
	return nil
}

func (c *vehicleController) GetAll(ctx *fiber.Ctx) error {
	res := c.vehicleService.GetAll(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse("Success get all vehicles", res))
}

func (c *vehicleController) Show(ctx *fiber.Ctx) error {
	res, err := c.vehicleService.Show(ctx.UserContext(), ctx.Params("vehicle_id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show vehicle", res))
}

func (c *vehicleController) SelectPilot(ctx *fiber.Ctx) error {
	var req dto.SelectPilotRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.vehicleService.SelectPilot(ctx.UserContext(), ctx.Params("vehicle_id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select pilot", res))
}

func (c *vehicleController) GetPilots(ctx *fiber.Ctx) error {
	res := c.vehicleService.GetPilots(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse("Success get all pilots", res))
}
