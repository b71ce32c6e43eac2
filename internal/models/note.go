package models

import "gorm.io/gorm"

// Note represents a work note assigned to a user.
type Note struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	UserID     string `json:"user" gorm:"index;type:varchar(36)" validate:"required"`
	Title      string `json:"title" gorm:"uniqueIndex;type:varchar(100)" validate:"required,max=100"`
	Text       string `json:"text" gorm:"type:text" validate:"required"`
	Completed  bool   `json:"completed"`
	Ticket     int    `json:"ticket" gorm:"uniqueIndex"` // sequential ticket number, assigned on create
	gorm.Model        // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

// NoteWithUser is a read model for note listings with the owner's username attached.
type NoteWithUser struct {
	Note
	Username string `json:"username"`
}
