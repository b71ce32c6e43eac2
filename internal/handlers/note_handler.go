package handlers

import (
	"errors"
	"fmt"
	"log"

	"technotes/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// NoteHandler handles HTTP requests for notes.
type NoteHandler struct {
	service  *services.NoteService
	validate *validator.Validate
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(service *services.NoteService) *NoteHandler {
	return &NoteHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the note routes with the Fiber app.
func (h *NoteHandler) RegisterRoutes(router fiber.Router) {
	noteRoutes := router.Group("/notes")
	noteRoutes.Get("/", h.HandleGetNotes)
	noteRoutes.Post("/", h.HandleCreateNote)
	noteRoutes.Patch("/", h.HandleUpdateNote)
	noteRoutes.Delete("/", h.HandleDeleteNote)
}

// HandleGetNotes retrieves all notes with owner usernames attached.
func (h *NoteHandler) HandleGetNotes(c *fiber.Ctx) error {
	notes, err := h.service.GetAllNotes()
	if err != nil {
		log.Printf("Error getting all notes: %v", err)
		return err
	}
	if len(notes) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "No notes found",
		})
	}
	return c.JSON(notes)
}

// CreateNoteRequest represents the request body for creating a note.
type CreateNoteRequest struct {
	UserID string `json:"user" validate:"required"`
	Title  string `json:"title" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

// HandleCreateNote creates a new note for a user.
func (h *NoteHandler) HandleCreateNote(c *fiber.Ctx) error {
	var req CreateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create note request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "All fields are required",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err, "All fields are required")
	}

	_, err := h.service.CreateNote(req.UserID, req.Title, req.Text)
	if err != nil {
		log.Printf("Error creating note %q: %v", req.Title, err)
		if errors.Is(err, services.ErrDuplicateNoteTitle) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Duplicate note title",
			})
		}
		if errors.Is(err, services.ErrInvalidNoteData) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid note data received",
			})
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "New note created",
	})
}

// UpdateNoteRequest represents the request body for updating a note. All
// fields are required: updates replace, they do not merge.
type UpdateNoteRequest struct {
	ID        string `json:"id" validate:"required"`
	UserID    string `json:"user" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Text      string `json:"text" validate:"required"`
	Completed *bool  `json:"completed" validate:"required"`
}

// HandleUpdateNote applies a full-replacement update to an existing note.
func (h *NoteHandler) HandleUpdateNote(c *fiber.Ctx) error {
	var req UpdateNoteRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update note request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "All fields are required",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err, "All fields are required")
	}

	note, err := h.service.UpdateNote(req.ID, req.UserID, req.Title, req.Text, *req.Completed)
	if err != nil {
		log.Printf("Error updating note %s: %v", req.ID, err)
		if errors.Is(err, services.ErrNoteNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Note not found",
			})
		}
		if errors.Is(err, services.ErrDuplicateNoteTitle) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Duplicate note title",
			})
		}
		return err
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("'%s' updated", note.Title),
	})
}

// DeleteNoteRequest represents the request body for deleting a note.
type DeleteNoteRequest struct {
	ID string `json:"id" validate:"required"`
}

// HandleDeleteNote deletes a note by its ID.
func (h *NoteHandler) HandleDeleteNote(c *fiber.Ctx) error {
	var req DeleteNoteRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing delete note request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Note ID required",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err, "Note ID required")
	}

	note, err := h.service.DeleteNote(req.ID)
	if err != nil {
		log.Printf("Error deleting note %s: %v", req.ID, err)
		if errors.Is(err, services.ErrNoteNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Note not found",
			})
		}
		return err
	}

	return c.JSON(fmt.Sprintf("Note '%s' with ID %s deleted", note.Title, note.ID))
}
