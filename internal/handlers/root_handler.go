package handlers

import (
	"fmt"
	"path/filepath"

	"technotes/pkg/eventlog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// RootHandler serves the landing page and the catch-all 404 responses.
type RootHandler struct {
	viewsDir string
	events   *eventlog.Logger
}

// NewRootHandler creates a new RootHandler serving views from viewsDir.
func NewRootHandler(viewsDir string, events *eventlog.Logger) *RootHandler {
	return &RootHandler{
		viewsDir: viewsDir,
		events:   events,
	}
}

// RegisterRoutes registers the root routes with the Fiber app.
func (h *RootHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/", h.HandleIndex)
	app.Get("/index.html", h.HandleIndex)
}

// HandleIndex serves the landing page.
func (h *RootHandler) HandleIndex(c *fiber.Ctx) error {
	return c.SendFile(filepath.Join(h.viewsDir, "index.html"))
}

// HandleNotFound is the catch-all for unmatched routes. It negotiates the
// response body: HTML clients get the 404 page, JSON clients a message
// object, everyone else plain text. A failure to deliver the HTML page is
// logged and suppressed with a plain-text fallback.
func (h *RootHandler) HandleNotFound(c *fiber.Ctx) error {
	c.Status(fiber.StatusNotFound)

	switch c.Accepts("html", "json") {
	case "html":
		if err := c.SendFile(filepath.Join(h.viewsDir, "404.html")); err != nil {
			h.events.LogEvents(fmt.Sprintf("failed to send 404 page: %v", err), "errLog.log")
			c.Status(fiber.StatusNotFound)
			return c.Type("txt").SendString("404 Not Found")
		}
		// SendFile resets the status on success, restore it afterwards.
		c.Status(fiber.StatusNotFound)
		return nil
	case "json":
		return c.JSON(fiber.Map{"message": "404 Not found"})
	default:
		return c.Type("txt").SendString("404 Not Found")
	}
}

// validationFailed renders a 400 response with the resource's canonical
// message and a per-field breakdown of what the validator rejected.
func validationFailed(c *fiber.Ctx, err error, message string) error {
	validationErrors := err.(validator.ValidationErrors)
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": message,
		"errors":  errorMessages,
	})
}
