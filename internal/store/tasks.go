package store

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Ayush7kr/TaskManagementSystem/internal/models"
)

const minTitleLen = 3

// TaskStore persists tasks. Every read and mutation is scoped by owner: the
// combined (id AND owner_id) filter means "someone else's task" and "no such
// task" are the same ErrNotFound, which leaks nothing about existence.
type TaskStore struct {
	db *gorm.DB
}

func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{db: db}
}

// NewTask carries the client-controlled fields of a task to create. The
// owner always comes from the authenticated identity, never from here.
type NewTask struct {
	Title       string
	Description string
	DueDate     time.Time
	Priority    string
	Status      string
	Assignee    string
}

// Create inserts a task for ownerID, applying the default priority/status
// when omitted.
func (s *TaskStore) Create(ownerID uint, in NewTask) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if len(title) < minTitleLen {
		return nil, fmt.Errorf("%w: title must be at least %d characters", ErrValidation, minTitleLen)
	}
	if in.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: due date is required", ErrValidation)
	}

	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, priority)
	}

	status := in.Status
	if status == "" {
		status = models.StatusPending
	}
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	task := models.Task{
		Title:       title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Priority:    priority,
		Status:      status,
		Assignee:    in.Assignee,
		OwnerID:     ownerID,
	}
	if err := s.db.Create(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByOwner returns the caller's tasks, newest-created first. IDs are
// sequential, so ordering by id matches created-at order and is cheaper.
func (s *TaskStore) ListByOwner(ownerID uint) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.Where("owner_id = ?", ownerID).
		Order("id DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update applies partial fields to the caller's task. The handler validates
// field values; this layer protects the identity fields and enforces the
// owner scope. Zero rows affected means not-found-or-not-yours.
func (s *TaskStore) Update(taskID, ownerID uint, fields map[string]any) (*models.Task, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	// Identity and bookkeeping columns are never client-writable.
	delete(fields, "id")
	delete(fields, "owner_id")
	delete(fields, "created_at")
	delete(fields, "updated_at")

	result := s.db.Model(&models.Task{}).
		Where("id = ? AND owner_id = ?", taskID, ownerID).
		Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var task models.Task
	if err := s.db.Where("id = ? AND owner_id = ?", taskID, ownerID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes the caller's task, with the same owner-scoped semantics as
// Update.
func (s *TaskStore) Delete(taskID, ownerID uint) error {
	result := s.db.Where("id = ? AND owner_id = ?", taskID, ownerID).
		Delete(&models.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats is the owner-scoped dashboard aggregate.
type Stats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
	High       int64 `json:"high"`
	Medium     int64 `json:"medium"`
	Low        int64 `json:"low"`
	Overdue    int64 `json:"overdue"`
	DueSoon    int64 `json:"dueSoon"` // due within the next 7 days
}

// StatsByOwner computes dashboard counts for one account.
func (s *TaskStore) StatsByOwner(ownerID uint, now time.Time) (*Stats, error) {
	var st Stats
	base := func() *gorm.DB {
		return s.db.Model(&models.Task{}).Where("owner_id = ?", ownerID)
	}

	if err := base().Count(&st.Total).Error; err != nil {
		return nil, err
	}
	base().Where("status = ?", models.StatusPending).Count(&st.Pending)
	base().Where("status = ?", models.StatusInProgress).Count(&st.InProgress)
	base().Where("status = ?", models.StatusCompleted).Count(&st.Completed)
	base().Where("priority = ?", models.PriorityHigh).Count(&st.High)
	base().Where("priority = ?", models.PriorityMedium).Count(&st.Medium)
	base().Where("priority = ?", models.PriorityLow).Count(&st.Low)
	base().Where("due_date < ? AND status <> ?", now, models.StatusCompleted).Count(&st.Overdue)
	base().Where("due_date >= ? AND due_date < ? AND status <> ?",
		now, now.Add(7*24*time.Hour), models.StatusCompleted).Count(&st.DueSoon)

	return &st, nil
}
