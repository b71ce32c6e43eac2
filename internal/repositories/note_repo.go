package repositories

import "technotes/internal/models"

// NoteRepository defines the interface for note data access.
type NoteRepository interface {
	GetAllWithUsernames() ([]models.NoteWithUser, error)
	GetByID(id string) (*models.Note, error)
	GetByTitle(title string) (*models.Note, error)
	ExistsForUser(userID string) (bool, error)
	NextTicket() (int, error)
	Create(note *models.Note) error
	Update(note *models.Note) error
	Delete(id string) error
}
