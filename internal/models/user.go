package models

import "gorm.io/gorm"

// User represents an account that can own notes.
type User struct {
	ID         string   `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username   string   `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Password   string   `json:"-" gorm:"type:varchar(255)"` // bcrypt hash, never serialized
	Roles      []string `json:"roles" gorm:"serializer:json;type:text" validate:"required,min=1,dive,required"`
	Active     bool     `json:"active" gorm:"default:true"`
	gorm.Model          // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
