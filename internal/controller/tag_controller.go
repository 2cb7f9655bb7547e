package controller

import (
	"donkey-remote-be/internal/dto"
	"donkey-remote-be/internal/pkg/serverutils"
	"donkey-remote-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ITagController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	Tag(ctx *fiber.Ctx) error
	Untag(ctx *fiber.Ctx) error
}

type tagController struct {
	service service.ITagService
}

func NewTagController(service service.ITagService) ITagController {
	return &tagController{service: service}
}

func (c *tagController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/tags")
	h.Get("", c.GetAll)
	h.Put("/:tag", c.Tag)
	h.Delete("/:session_id/:tag", c.Untag)
}

func (c *tagController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.service.GetAll(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all tags", res))
}

func (c *tagController) Tag(ctx *fiber.Ctx) error {
	var req dto.UpdateTagRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Tag(ctx.UserContext(), ctx.Params("tag"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success tag targets", res))
}

func (c *tagController) Untag(ctx *fiber.Ctx) error {
	res, err := c.service.Untag(ctx.UserContext(), ctx.Params("session_id"), ctx.Params("tag"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success untag session", res))
}
