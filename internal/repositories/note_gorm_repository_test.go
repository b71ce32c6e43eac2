package repositories_test

import (
	"testing"

	"technotes/internal/models"
	"technotes/internal/repositories"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupDB opens a private shared-cache in-memory database per test so the
// connection pool sees the same schema on every connection.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.User{}, &models.Note{}))
	return db
}

func TestGORMNoteRepository_TicketSequence(t *testing.T) {
	db := setupDB(t)
	noteRepo := repositories.NewGORMNoteRepository(db)

	// The sequence starts at 500 on an empty table
	ticket, err := noteRepo.NextTicket()
	assert.NoError(t, err)
	assert.Equal(t, 500, ticket)

	assert.NoError(t, noteRepo.Create(&models.Note{UserID: "user-1", Title: "first", Text: "x", Ticket: ticket}))

	ticket, err = noteRepo.NextTicket()
	assert.NoError(t, err)
	assert.Equal(t, 501, ticket)
}

func TestGORMNoteRepository_ExistsForUser(t *testing.T) {
	db := setupDB(t)
	noteRepo := repositories.NewGORMNoteRepository(db)

	exists, err := noteRepo.ExistsForUser("user-1")
	assert.NoError(t, err)
	assert.False(t, exists)

	note := &models.Note{UserID: "user-1", Title: "first", Text: "x", Ticket: 500}
	assert.NoError(t, noteRepo.Create(note))

	exists, err = noteRepo.ExistsForUser("user-1")
	assert.NoError(t, err)
	assert.True(t, exists)

	// A physical delete clears the guard; no soft-deleted row lingers
	assert.NoError(t, noteRepo.Delete(note.ID))

	exists, err = noteRepo.ExistsForUser("user-1")
	assert.NoError(t, err)
	assert.False(t, exists)

	var count int64
	assert.NoError(t, db.Unscoped().Model(&models.Note{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGORMNoteRepository_GetAllWithUsernames(t *testing.T) {
	db := setupDB(t)
	userRepo := repositories.NewGORMUserRepository(db)
	noteRepo := repositories.NewGORMNoteRepository(db)

	user := &models.User{Username: "alice", Password: "hash", Roles: []string{"Employee"}, Active: true}
	assert.NoError(t, userRepo.Create(user))
	assert.NoError(t, noteRepo.Create(&models.Note{UserID: user.ID, Title: "first", Text: "x", Ticket: 500}))

	notes, err := noteRepo.GetAllWithUsernames()
	assert.NoError(t, err)
	assert.Len(t, notes, 1)
	assert.Equal(t, "alice", notes[0].Username)
	assert.Equal(t, "first", notes[0].Title)
}
