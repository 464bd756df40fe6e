package server

import (
	stderrors "errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// newErrorHandler maps categorized errors onto the HTTP surface:
// validation failures become 422 with per-field detail, missing or bad
// credentials become 401 logged at info level since they are expected
// traffic, unknown records become 404, and everything else is a 500
// logged with the full request context.
func newErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if stderrors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"msg": fiberErr.Message})
		}

		var richErr *errors.Error
		if !errors.As(err, &richErr) {
			wrapped := errors.Wrap(err, errors.CategoryInternal, "unexpected server error")
			stderrors.As(wrapped, &richErr)
		}

		switch richErr.Category {
		case errors.CategoryValidation, errors.CategoryConflict:
			if fields, ok := richErr.Metadata["fields"].(map[string]string); ok {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"detail": fields,
				})
			}
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"detail": richErr.Message,
			})

		case errors.CategoryAuth:
			logger.Info("unauthenticated request",
				"path", c.OriginalURL(),
				"error", richErr.Message,
				"text_code", richErr.TextCode,
			)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"msg": richErr.Message,
			})

		case errors.CategoryAuthz:
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"msg": richErr.Message,
			})

		case errors.CategoryNotFound:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"msg": "not found",
			})

		case errors.CategoryBadInput:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"msg": richErr.Message,
			})

		default:
			logger.Error("request failed",
				"url", c.OriginalURL(),
				"query", string(c.Request().URI().QueryString()),
				"body", print.MaybePrettyJSON(c.Body()),
				"error", err,
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"msg": "internal server error",
			})
		}
	}
}
