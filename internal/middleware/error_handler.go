package middleware

import (
	"errors"
	"fmt"
	"log"

	"technotes/pkg/eventlog"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler returns the centralized Fiber error handler. Anything a
// handler returns as a bare error lands here, gets appended to the
// persistent error log, and is formatted as a uniform JSON response.
func ErrorHandler(events *eventlog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		}

		events.LogEvents(
			fmt.Sprintf("%s\t%s\t%s\t%s", err.Error(), c.Method(), c.OriginalURL(), c.Get("Origin")),
			"errLog.log",
		)
		log.Printf("Unhandled error on %s %s: %v", c.Method(), c.OriginalURL(), err)

		return c.Status(code).JSON(fiber.Map{
			"message": err.Error(),
			"isError": true,
		})
	}
}
