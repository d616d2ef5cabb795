package httpapi

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
)

type envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Token      string      `json:"token,omitempty"`
	Pagination *pagination `json:"pagination,omitempty"`
	Errors     any         `json:"errors,omitempty"`
	Error      string      `json:"error,omitempty"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func newPagination(page, limit, total int) *pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return &pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(envelope{Success: true, Data: data})
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(envelope{Success: false, Message: msg})
}

// badRequest reports ozzo field errors when err carries them.
func badRequest(c *fiber.Ctx, err error) error {
	var ve validation.Errors
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(envelope{Success: false, Message: "Validation failed", Errors: ve})
	}
	return fail(c, fiber.StatusBadRequest, err.Error())
}

// parseBody decodes JSON; malformed bodies are a 400.
func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return nil
}
