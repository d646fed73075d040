package httpapi

import (
	"bytes"
	"context"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-data-collector/internal/weather"
)

var validate = validator.New()

// RowSource is the read side of the weather service.
type RowSource interface {
	Rows(ctx context.Context) ([]weather.Row, error)
	Report(ctx context.Context, w io.Writer) error
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, source RowSource) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		var q rowsQuery
		q.Place = c.Query("place")
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rows, err := source.Rows(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read weather data")
		}

		if q.Place != "" {
			filtered := make([]weather.Row, 0, len(rows))
			for _, r := range rows {
				if r.Place == q.Place {
					filtered = append(filtered, r)
				}
			}
			rows = filtered
		}

		return c.JSON(rows)
	})

	v1.Get("/weather/report", func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := source.Report(c.UserContext(), &buf); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render weather report")
		}

		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Send(buf.Bytes())
	})
}

// rowsQuery holds query parameters for the rows endpoint.
type rowsQuery struct {
	Place string `validate:"omitempty,max=64"`
}

// ErrorHandler renders errors as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
