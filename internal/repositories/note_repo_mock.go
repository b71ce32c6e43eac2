package repositories

import (
	"fmt"
	"sync"

	"technotes/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MockNoteRepository is an in-memory implementation of NoteRepository.
// Usernames for the list join are resolved through an optional UserRepository.
type MockNoteRepository struct {
	notes    map[string]models.Note
	mu       sync.RWMutex
	userRepo UserRepository
}

// NewMockNoteRepository creates a new instance of MockNoteRepository.
func NewMockNoteRepository(userRepo UserRepository) *MockNoteRepository {
	return &MockNoteRepository{
		notes:    make(map[string]models.Note),
		userRepo: userRepo,
	}
}

// GetAllWithUsernames returns all notes with owner usernames attached.
func (r *MockNoteRepository) GetAllWithUsernames() ([]models.NoteWithUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	noteList := make([]models.NoteWithUser, 0, len(r.notes))
	for _, n := range r.notes {
		row := models.NoteWithUser{Note: n}
		if r.userRepo != nil {
			if owner, err := r.userRepo.GetByID(n.UserID); err == nil {
				row.Username = owner.Username
			}
		}
		noteList = append(noteList, row)
	}
	return noteList, nil
}

// GetByID returns a note by its ID.
func (r *MockNoteRepository) GetByID(id string) (*models.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	note, ok := r.notes[id]
	if !ok {
		return nil, fmt.Errorf("note with ID %s not found: %w", id, gorm.ErrRecordNotFound)
	}
	return &note, nil
}

// GetByTitle returns a note by its title.
func (r *MockNoteRepository) GetByTitle(title string) (*models.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.notes {
		if n.Title == title {
			note := n
			return &note, nil
		}
	}
	return nil, fmt.Errorf("note with title %s not found: %w", title, gorm.ErrRecordNotFound)
}

// ExistsForUser reports whether at least one note references the given user.
func (r *MockNoteRepository) ExistsForUser(userID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.notes {
		if n.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// NextTicket returns the next value of the note ticket sequence.
func (r *MockNoteRepository) NextTicket() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	next := ticketSeqStart
	for _, n := range r.notes {
		if n.Ticket >= next {
			next = n.Ticket + 1
		}
	}
	return next, nil
}

// Create adds a new note, enforcing the title unique constraint the way the
// database index would.
func (r *MockNoteRepository) Create(note *models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.notes {
		if n.Title == note.Title {
			return fmt.Errorf("failed to create note: %w", gorm.ErrDuplicatedKey)
		}
	}
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	r.notes[note.ID] = *note
	return nil
}

// Update modifies an existing note.
func (r *MockNoteRepository) Update(note *models.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.notes[note.ID]
	if !ok {
		return fmt.Errorf("note with ID %s not found for update: %w", note.ID, gorm.ErrRecordNotFound)
	}
	r.notes[note.ID] = *note
	return nil
}

// Delete removes a note by its ID.
func (r *MockNoteRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.notes[id]
	if !ok {
		return fmt.Errorf("note with ID %s not found for deletion: %w", id, gorm.ErrRecordNotFound)
	}
	delete(r.notes, id)
	return nil
}
