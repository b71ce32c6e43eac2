package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"technotes/internal/models"
	"technotes/internal/repositories"
	"technotes/pkg/rabbitmq"

	"gorm.io/gorm"
)

// Errors reported by NoteService that handlers map to client responses.
var (
	ErrDuplicateNoteTitle = errors.New("duplicate note title")
	ErrNoteNotFound       = errors.New("note not found")
	ErrInvalidNoteData    = errors.New("invalid note data received")
)

// NoteService handles business logic for notes: title uniqueness and the
// ticket number sequence.
type NoteService struct {
	noteRepo repositories.NoteRepository
	mqClient *rabbitmq.Client // optional, nil disables event publishing
}

// NewNoteService creates a new NoteService.
func NewNoteService(noteRepo repositories.NoteRepository, mqClient *rabbitmq.Client) *NoteService {
	return &NoteService{
		noteRepo: noteRepo,
		mqClient: mqClient,
	}
}

// GetAllNotes retrieves all notes with the owner's username attached.
func (s *NoteService) GetAllNotes() ([]models.NoteWithUser, error) {
	return s.noteRepo.GetAllWithUsernames()
}

// CreateNote persists a new note after checking title uniqueness and
// assigning the next ticket number.
func (s *NoteService) CreateNote(userID, title, text string) (*models.Note, error) {
	if existing, err := s.noteRepo.GetByTitle(title); err == nil && existing != nil {
		return nil, ErrDuplicateNoteTitle
	}

	ticket, err := s.noteRepo.NextTicket()
	if err != nil {
		return nil, fmt.Errorf("failed to assign ticket number: %w", err)
	}

	note := &models.Note{
		UserID: userID,
		Title:  title,
		Text:   text,
		Ticket: ticket,
	}
	if err := s.noteRepo.Create(note); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateNoteTitle
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidNoteData, err)
	}

	s.publishEvent("note.created", note)
	return note, nil
}

// UpdateNote applies full-replacement update semantics to an existing note.
func (s *NoteService) UpdateNote(id, userID, title, text string, completed bool) (*models.Note, error) {
	note, err := s.noteRepo.GetByID(id)
	if err != nil {
		return nil, ErrNoteNotFound
	}

	// Allow the update to keep its own title.
	if duplicate, err := s.noteRepo.GetByTitle(title); err == nil && duplicate != nil && duplicate.ID != id {
		return nil, ErrDuplicateNoteTitle
	}

	note.UserID = userID
	note.Title = title
	note.Text = text
	note.Completed = completed

	if err := s.noteRepo.Update(note); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateNoteTitle
		}
		return nil, fmt.Errorf("failed to update note %s: %w", id, err)
	}
	return note, nil
}

// DeleteNote removes a note by its ID.
func (s *NoteService) DeleteNote(id string) (*models.Note, error) {
	note, err := s.noteRepo.GetByID(id)
	if err != nil {
		return nil, ErrNoteNotFound
	}

	if err := s.noteRepo.Delete(id); err != nil {
		return nil, fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	return note, nil
}

// publishEvent emits a note lifecycle event when a RabbitMQ client is
// configured. Publish failures are logged, never surfaced to the caller.
func (s *NoteService) publishEvent(event string, note *models.Note) {
	if s.mqClient == nil {
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"event":  event,
		"noteID": note.ID,
		"userID": note.UserID,
		"ticket": note.Ticket,
	})
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event, err)
		return
	}
	if err := s.mqClient.Publish(event, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for note %s: %v", event, note.ID, err)
	}
}
