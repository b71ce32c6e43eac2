package middleware

import (
	"fmt"

	"technotes/pkg/eventlog"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger is a Fiber middleware that appends one line per request to
// the persistent request log, independent of the console logger.
func RequestLogger(events *eventlog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		events.LogEvents(
			fmt.Sprintf("%s\t%s\t%s", c.Method(), c.OriginalURL(), c.Get("Origin")),
			"reqLog.log",
		)
		return c.Next()
	}
}
