package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"technotes/internal/models"
	"technotes/internal/repositories"
	"technotes/pkg/rabbitmq"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Errors reported by UserService that handlers map to client responses.
var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserHasNotes      = errors.New("user has assigned notes")
	ErrInvalidUserData   = errors.New("invalid user data received")
)

// UserService handles business logic for user accounts: uniqueness,
// password hashing, and the note-dependency delete guard.
type UserService struct {
	userRepo repositories.UserRepository
	noteRepo repositories.NoteRepository
	mqClient *rabbitmq.Client // optional, nil disables event publishing
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository, noteRepo repositories.NoteRepository, mqClient *rabbitmq.Client) *UserService {
	return &UserService{
		userRepo: userRepo,
		noteRepo: noteRepo,
		mqClient: mqClient,
	}
}

// GetAllUsers retrieves all users without password hashes.
func (s *UserService) GetAllUsers() ([]models.User, error) {
	return s.userRepo.GetAll()
}

// CreateUser hashes the password and persists a new user after checking
// username uniqueness. The storage-level unique index backs the check, so a
// concurrent create losing the race still comes back as ErrDuplicateUsername.
func (s *UserService) CreateUser(username, password string, roles []string) (*models.User, error) {
	if existing, err := s.userRepo.GetByUsername(username); err == nil && existing != nil {
		return nil, ErrDuplicateUsername
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Password: string(hashedPassword),
		Roles:    roles,
		Active:   true,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidUserData, err)
	}

	s.publishEvent("user.created", user)
	return user, nil
}

// UpdateUser applies full-replacement update semantics: username, roles and
// active are always overwritten, the password only when a new one is supplied.
func (s *UserService) UpdateUser(id, username, password string, roles []string, active bool) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// Allow the update to keep its own username.
	if duplicate, err := s.userRepo.GetByUsername(username); err == nil && duplicate != nil && duplicate.ID != id {
		return nil, ErrDuplicateUsername
	}

	user.Username = username
	user.Roles = roles
	user.Active = active

	if password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hashedPassword)
	}

	if err := s.userRepo.Update(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to update user %s: %w", id, err)
	}

	s.publishEvent("user.updated", user)
	return user, nil
}

// DeleteUser removes a user unless notes still reference them. The delete is
// blocked, not cascaded.
func (s *UserService) DeleteUser(id string) (*models.User, error) {
	hasNotes, err := s.noteRepo.ExistsForUser(id)
	if err != nil {
		return nil, fmt.Errorf("failed to check notes for user %s: %w", id, err)
	}
	if hasNotes {
		return nil, ErrUserHasNotes
	}

	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if err := s.userRepo.Delete(id); err != nil {
		return nil, fmt.Errorf("failed to delete user %s: %w", id, err)
	}

	s.publishEvent("user.deleted", user)
	return user, nil
}

// publishEvent emits a user lifecycle event when a RabbitMQ client is
// configured. Publish failures are logged, never surfaced to the caller.
func (s *UserService) publishEvent(event string, user *models.User) {
	if s.mqClient == nil {
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"event":    event,
		"userID":   user.ID,
		"username": user.Username,
	})
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event, err)
		return
	}
	if err := s.mqClient.Publish(event, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for user %s: %v", event, user.ID, err)
	}
}
