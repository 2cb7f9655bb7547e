package serverutils

import (
	"encoding/json"
	"errors"

	"donkey-remote-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into a
// BaseResponse with a matching status code.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := StatusFor(err)
		return ctx.Status(code).JSON(ErrorResponse(code, err.Error()))
	}
}

func StatusFor(err error) int {
	var fiberErr *fiber.Error
	var validationErr *ValidationError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &validationErr),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr),
		errors.Is(err, service.ErrDecode),
		errors.Is(err, service.ErrInvalidTeleop),
		errors.Is(err, service.ErrInvalidTag):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrPilotNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
