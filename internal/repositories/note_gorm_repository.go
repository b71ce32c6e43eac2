package repositories

import (
	"database/sql"
	"fmt"

	"technotes/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ticketSeqStart is where the note ticket sequence begins.
const ticketSeqStart = 500

// GORMNoteRepository is a GORM implementation of NoteRepository.
type GORMNoteRepository struct {
	db *gorm.DB
}

// NewGORMNoteRepository creates a new instance of GORMNoteRepository.
func NewGORMNoteRepository(db *gorm.DB) *GORMNoteRepository {
	return &GORMNoteRepository{
		db: db,
	}
}

// GetAllWithUsernames retrieves all notes joined with the owning user's
// username for list responses.
func (r *GORMNoteRepository) GetAllWithUsernames() ([]models.NoteWithUser, error) {
	var notes []models.NoteWithUser
	err := r.db.Table("notes").
		Select("notes.*, users.username AS username").
		Joins("LEFT JOIN users ON users.id = notes.user_id").
		Scan(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get all notes: %w", err)
	}
	return notes, nil
}

// GetByID retrieves a single note by its ID.
func (r *GORMNoteRepository) GetByID(id string) (*models.Note, error) {
	var note models.Note
	if err := r.db.First(&note, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("note with ID %s not found: %w", id, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get note by ID %s: %w", id, err)
	}
	return &note, nil
}

// GetByTitle retrieves a single note by its title.
func (r *GORMNoteRepository) GetByTitle(title string) (*models.Note, error) {
	var note models.Note
	if err := r.db.First(&note, "title = ?", title).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("note with title %s not found: %w", title, gorm.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get note by title %s: %w", title, err)
	}
	return &note, nil
}

// ExistsForUser reports whether at least one note references the given user.
func (r *GORMNoteRepository) ExistsForUser(userID string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Note{}).Where("user_id = ?", userID).Limit(1).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check notes for user %s: %w", userID, err)
	}
	return count > 0, nil
}

// NextTicket returns the next value of the note ticket sequence.
func (r *GORMNoteRepository) NextTicket() (int, error) {
	var max sql.NullInt64
	err := r.db.Model(&models.Note{}).Unscoped().Select("MAX(ticket)").Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read ticket sequence: %w", err)
	}
	if !max.Valid || max.Int64 < ticketSeqStart {
		return ticketSeqStart, nil
	}
	return int(max.Int64) + 1, nil
}

// Create creates a new note. The unique index on title backs the
// application-level duplicate check.
func (r *GORMNoteRepository) Create(note *models.Note) error {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	if err := r.db.Create(note).Error; err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

// Update persists all fields of an existing note, zero values included.
func (r *GORMNoteRepository) Update(note *models.Note) error {
	res := r.db.Save(note)
	if res.Error != nil {
		return fmt.Errorf("failed to update note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("note with ID %s not found for update: %w", note.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// Delete removes a note record. Unscoped makes the delete physical rather
// than a gorm.Model soft delete.
func (r *GORMNoteRepository) Delete(id string) error {
	res := r.db.Unscoped().Delete(&models.Note{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("note with ID %s not found for deletion: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}
