package models

import (
	"time"

	"gorm.io/gorm"
)

// Task status values.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Task priority values.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Task is a unit of work bound to exactly one owning account. OwnerID is set
// from the authenticated identity at creation and never changes afterwards;
// every query against tasks filters by it.
type Task struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"not null;index" json:"title"`
	Description string         `json:"description,omitempty"`
	DueDate     time.Time      `gorm:"not null;index" json:"dueDate"`
	Priority    string         `gorm:"type:varchar(10);default:'medium'" json:"priority"`
	Status      string         `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Assignee    string         `json:"assignee,omitempty"`
	OwnerID     uint           `gorm:"not null;index" json:"ownerId"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// ValidStatus reports whether s is one of the known task statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}

// ValidPriority reports whether s is one of the known task priorities.
func ValidPriority(s string) bool {
	return s == PriorityHigh || s == PriorityMedium || s == PriorityLow
}
