package handlers_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"technotes/internal/handlers"
	"technotes/internal/middleware"
	"technotes/internal/models"
	"technotes/internal/repositories"
	"technotes/internal/services"
	"technotes/pkg/eventlog"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp sets up a Fiber app for testing with in-memory SQLite and the
// full middleware and handler stack.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.User{}, &models.Note{}))

	userRepo := repositories.NewGORMUserRepository(db)
	noteRepo := repositories.NewGORMNoteRepository(db)

	userService := services.NewUserService(userRepo, noteRepo, nil) // nil for RabbitMQ client
	noteService := services.NewNoteService(noteRepo, nil)

	events, err := eventlog.New(t.TempDir())
	assert.NoError(t, err)

	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(events),
	})
	app.Use(middleware.RequestLogger(events))

	handlers.NewUserHandler(userService).RegisterRoutes(app)
	handlers.NewNoteHandler(noteService).RegisterRoutes(app)
	app.Use(handlers.NewRootHandler(t.TempDir(), events).HandleNotFound)

	return app
}

func TestUsersAndNotesEndToEnd(t *testing.T) {
	app := setupApp(t)

	// Create alice
	createBody := map[string]interface{}{
		"username": "alice",
		"password": "pw123456",
		"roles":    []string{"Employee"},
	}
	resp, err := app.Test(jsonRequest(http.MethodPost, "/users", createBody), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "New user alice created", decodeMessage(t, resp))

	// The list excludes password material entirely
	resp, err = app.Test(jsonRequest(http.MethodGet, "/users", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.NoError(t, err)
	assert.NotContains(t, string(raw), "pw123456")
	assert.NotContains(t, string(raw), `"password"`)

	var users []models.User
	assert.NoError(t, json.Unmarshal(raw, &users))
	assert.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
	assert.True(t, users[0].Active) // defaults to active on create
	userID := users[0].ID
	assert.NotEmpty(t, userID)

	// Same username again is a conflict
	resp, err = app.Test(jsonRequest(http.MethodPost, "/users", createBody), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Duplicate username", decodeMessage(t, resp))

	// Full-replacement update, idempotent across repeats
	updateBody := map[string]interface{}{
		"id":       userID,
		"username": "alice2",
		"roles":    []string{"Employee"},
		"active":   true,
	}
	for i := 0; i < 2; i++ {
		resp, err = app.Test(jsonRequest(http.MethodPatch, "/users", updateBody), -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "alice2 updted", decodeMessage(t, resp))
	}

	// A note pins the user in place
	noteBody := map[string]interface{}{
		"user":  userID,
		"title": "First note",
		"text":  "remember the milk",
	}
	resp, err = app.Test(jsonRequest(http.MethodPost, "/notes", noteBody), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "New note created", decodeMessage(t, resp))

	resp, err = app.Test(jsonRequest(http.MethodDelete, "/users", map[string]interface{}{"id": userID}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "User has assigned notes", decodeMessage(t, resp))

	// The note listing carries the owner's username and the ticket sequence
	resp, err = app.Test(jsonRequest(http.MethodGet, "/notes", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var notes []models.NoteWithUser
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&notes))
	resp.Body.Close()
	assert.Len(t, notes, 1)
	assert.Equal(t, "alice2", notes[0].Username)
	assert.Equal(t, 500, notes[0].Ticket)
	noteID := notes[0].ID

	// Duplicate note title is a conflict
	resp, err = app.Test(jsonRequest(http.MethodPost, "/notes", map[string]interface{}{
		"user":  userID,
		"title": "First note",
		"text":  "again",
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Duplicate note title", decodeMessage(t, resp))

	// Note update replaces every field
	resp, err = app.Test(jsonRequest(http.MethodPatch, "/notes", map[string]interface{}{
		"id":        noteID,
		"user":      userID,
		"title":     "First note",
		"text":      "done",
		"completed": true,
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "'First note' updated", decodeMessage(t, resp))

	// Removing the note unblocks the user delete
	resp, err = app.Test(jsonRequest(http.MethodDelete, "/notes", map[string]interface{}{"id": noteID}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var noteReply string
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&noteReply))
	resp.Body.Close()
	assert.Equal(t, fmt.Sprintf("Note 'First note' with ID %s deleted", noteID), noteReply)

	resp, err = app.Test(jsonRequest(http.MethodDelete, "/users", map[string]interface{}{"id": userID}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var userReply string
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&userReply))
	resp.Body.Close()
	assert.Contains(t, userReply, "alice2")
	assert.Contains(t, userReply, userID)

	// Everything is gone, and the deletes were physical
	resp, err = app.Test(jsonRequest(http.MethodGet, "/users", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No users found", decodeMessage(t, resp))

	resp, err = app.Test(jsonRequest(http.MethodGet, "/notes", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No notes found", decodeMessage(t, resp))
}

func TestUpdateUser_DuplicateUsernameAcrossRecords(t *testing.T) {
	app := setupApp(t)

	for _, username := range []string{"carol", "dave"} {
		resp, err := app.Test(jsonRequest(http.MethodPost, "/users", map[string]interface{}{
			"username": username,
			"password": "pw123456",
			"roles":    []string{"Employee"},
		}), -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := app.Test(jsonRequest(http.MethodGet, "/users", nil), -1)
	assert.NoError(t, err)
	var users []models.User
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	resp.Body.Close()

	var caroID, daveID string
	for _, u := range users {
		switch u.Username {
		case "carol":
			caroID = u.ID
		case "dave":
			daveID = u.ID
		}
	}
	assert.NotEmpty(t, caroID)
	assert.NotEmpty(t, daveID)

	// dave cannot take carol's username
	resp, err = app.Test(jsonRequest(http.MethodPatch, "/users", map[string]interface{}{
		"id":       daveID,
		"username": "carol",
		"roles":    []string{"Employee"},
		"active":   true,
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Duplicate username", decodeMessage(t, resp))

	// but carol keeps her own on a no-op rename
	resp, err = app.Test(jsonRequest(http.MethodPatch, "/users", map[string]interface{}{
		"id":       caroID,
		"username": "carol",
		"roles":    []string{"Manager"},
		"active":   false,
	}), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "carol updted", decodeMessage(t, resp))

	// cleanup so the shared in-memory database stays empty for other tests
	for _, id := range []string{caroID, daveID} {
		resp, err = app.Test(jsonRequest(http.MethodDelete, "/users", map[string]interface{}{"id": id}), -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
}
