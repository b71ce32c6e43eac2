package handlers

import (
	"errors"
	"fmt"
	"log"

	"technotes/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for user accounts.
type UserHandler struct {
	service  *services.UserService
	validate *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleGetUsers)
	userRoutes.Post("/", h.HandleCreateUser)
	userRoutes.Patch("/", h.HandleUpdateUser)
	userRoutes.Delete("/", h.HandleDeleteUser)
}

// HandleGetUsers retrieves all users, passwords excluded.
func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	users, err := h.service.GetAllUsers()
	if err != nil {
		log.Printf("Error getting all users: %v", err)
		return err
	}
	if len(users) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "No users found",
		})
	}
	return c.JSON(users)
}

// CreateUserRequest represents the request body for creating a user.
type CreateUserRequest struct {
	Username string   `json:"username" validate:"required"`
	Password string   `json:"password" validate:"required"`
	Roles    []string `json:"roles" validate:"required,min=1,dive,required"`
}

// HandleCreateUser creates a new user with a hashed password.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing create user request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "All fields are required",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err, "All fields are required")
	}

	user, err := h.service.CreateUser(req.Username, req.Password, req.Roles)
	if err != nil {
		log.Printf("Error creating user %s: %v", req.Username, err)
		if errors.Is(err, services.ErrDuplicateUsername) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Duplicate username",
			})
		}
		if errors.Is(err, services.ErrInvalidUserData) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid user data received",
			})
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": fmt.Sprintf("New user %s created", user.Username),
	})
}

// UpdateUserRequest represents the request body for updating a user. All
// fields except password are required: updates replace, they do not merge.
// Active is a *bool so a missing value is rejected rather than read as false.
type UpdateUserRequest struct {
	ID       string   `json:"id" validate:"required"`
	Username string   `json:"username" validate:"required"`
	Password string   `json:"password"`
	Roles    []string `json:"roles" validate:"required,min=1,dive,required"`
	Active   *bool    `json:"active" validate:"required"`
}

// HandleUpdateUser applies a full-replacement update to an existing user.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing update user request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "All fields are required",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err, "All fields are required")
	}

	user, err := h.service.UpdateUser(req.ID, req.Username, req.Password, req.Roles, *req.Active)
	if err != nil {
		log.Printf("Error updating user %s: %v", req.ID, err)
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "user not found",
			})
		}
		if errors.Is(err, services.ErrDuplicateUsername) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Duplicate username",
			})
		}
		return err
	}

	// "updted" kept as-is; existing clients match on the exact message.
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("%s updted", user.Username),
	})
}

// DeleteUserRequest represents the request body for deleting a user.
type DeleteUserRequest struct {
	ID string `json:"id" validate:"required"`
}

// HandleDeleteUser deletes a user unless notes still reference them.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	var req DeleteUserRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing delete user request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "User ID required",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err, "User ID required")
	}

	user, err := h.service.DeleteUser(req.ID)
	if err != nil {
		log.Printf("Error deleting user %s: %v", req.ID, err)
		if errors.Is(err, services.ErrUserHasNotes) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "User has assigned notes",
			})
		}
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "User not found",
			})
		}
		return err
	}

	return c.JSON(fmt.Sprintf("Username %s with ID %s deleted", user.Username, user.ID))
}
