package models

import (
	"time"

	"github.com/google/uuid"
)

type Admin struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"   json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"   json:"username"`
	PasswordHash string    `gorm:"not null"               json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type ProjectStatus string

const (
	StatusDraft     ProjectStatus = "draft"
	StatusPublished ProjectStatus = "published"
)

func (s ProjectStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

type Project struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey"          json:"id"`
	Title       string        `gorm:"not null"                      json:"title"`
	Description string        `gorm:"not null;default:''"           json:"description"`
	Status      ProjectStatus `gorm:"not null;index;default:'draft'" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
