package handlers

import (
	"errors"
	"net/http"

	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/api/middleware"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/internal/models"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/apperrors"
	"github.com/Samsung-SCSA-25th-Team2/tennis-web-app-be-sub000/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the Fiber error handler for the API
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{
			Error:   http.StatusText(fe.Code),
			Message: fe.Message,
		})
	}
	return writeError(c, err)
}

func writeError(c *fiber.Ctx, err error) error {
	appErr := apperrors.From(err)
	status := appErr.Status
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	message := appErr.Message
	if status >= fiber.StatusInternalServerError {
		logger.Error("Request failed",
			"request_id", middleware.RequestID(c),
			"path", c.Path(),
			"error", err,
		)
		message = "internal server error"
	}

	return c.Status(status).JSON(models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    appErr.Code,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error:   "Invalid request body",
		Message: message,
		Code:    apperrors.CodeValidation,
	})
}

// parseBody decodes and validates a JSON body, writing the 400 response on failure
func parseBody(c *fiber.Ctx, v *validator.Validate, out interface{}) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, badRequest(c, err.Error())
	}
	if err := v.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return false, c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
				Error:   "Validation failed",
				Message: verrs.Error(),
				Code:    apperrors.CodeValidation,
			})
		}
		return false, badRequest(c, err.Error())
	}
	return true, nil
}

func pathID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("invalid " + name)
	}
	return uint(id), nil
}
