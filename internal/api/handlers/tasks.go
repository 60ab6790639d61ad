package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Ayush7kr/TaskManagementSystem/internal/api/middleware"
	"github.com/Ayush7kr/TaskManagementSystem/internal/mail"
	"github.com/Ayush7kr/TaskManagementSystem/internal/models"
	"github.com/Ayush7kr/TaskManagementSystem/internal/store"
)

// TaskHandler owns the owner-scoped task CRUD plus the creation email side
// effect.
type TaskHandler struct {
	tasks *store.TaskStore
	users *store.UserStore
	mail  mail.Dispatcher
}

// NewTaskHandler creates a new TaskHandler instance with its required dependencies
func NewTaskHandler(tasks *store.TaskStore, users *store.UserStore, dispatcher mail.Dispatcher) *TaskHandler {
	return &TaskHandler{tasks: tasks, users: users, mail: dispatcher}
}

// ListTasks returns the caller's tasks, newest first.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	tasks, err := h.tasks.ListByOwner(middleware.CurrentUserID(c))
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// CreateTask inserts a task owned by the caller. The notification email is
// dispatched after the task is durably created; its failure never surfaces.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var input struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		DueDate     string `json:"dueDate" binding:"required"`
		Priority    string `json:"priority"`
		Status      string `json:"status"`
		Assignee    string `json:"assignee"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and dueDate are required"})
		return
	}

	due, err := parseDueDate(input.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "dueDate must be an RFC 3339 timestamp or YYYY-MM-DD"})
		return
	}

	ownerID := middleware.CurrentUserID(c)
	task, err := h.tasks.Create(ownerID, store.NewTask{
		Title:       input.Title,
		Description: input.Description,
		DueDate:     due,
		Priority:    input.Priority,
		Status:      input.Status,
		Assignee:    input.Assignee,
	})
	if err != nil {
		storeError(c, err)
		return
	}

	// The task is already committed; the email is fire-and-forget.
	go h.notifyTaskCreated(ownerID, task)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully",
		"task":    task,
	})
}

func (h *TaskHandler) notifyTaskCreated(ownerID uint, task *models.Task) {
	owner, err := h.users.GetByID(ownerID)
	if err != nil {
		slog.Warn("task notification skipped: owner lookup failed", "owner_id", ownerID, "error", err)
		return
	}

	subject := fmt.Sprintf("New task: %s", task.Title)
	body := fmt.Sprintf("Hi %s,\n\nYour task %q is due on %s.\n\n— TaskMaster",
		owner.Username, task.Title, task.DueDate.Format("Mon, 02 Jan 2006"))

	if err := h.mail.Send(owner.Email, subject, body); err != nil {
		slog.Warn("task notification failed", "task_id", task.ID, "error", err)
	}
}

// UpdateTask applies partial fields to the caller's task. A task owned by
// someone else yields the same 404 as a missing one.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	var input struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		DueDate     *string `json:"dueDate"`
		Priority    *string `json:"priority"`
		Status      *string `json:"status"`
		Assignee    *string `json:"assignee"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	fields := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if len(title) < 3 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title must be at least 3 characters"})
			return
		}
		fields["title"] = title
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.DueDate != nil {
		due, err := parseDueDate(*input.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dueDate must be an RFC 3339 timestamp or YYYY-MM-DD"})
			return
		}
		fields["due_date"] = due
	}
	if input.Priority != nil {
		if !models.ValidPriority(*input.Priority) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown priority value"})
			return
		}
		fields["priority"] = *input.Priority
	}
	if input.Status != nil {
		if !models.ValidStatus(*input.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status value"})
			return
		}
		fields["status"] = *input.Status
	}
	if input.Assignee != nil {
		fields["assignee"] = *input.Assignee
	}

	task, err := h.tasks.Update(uint(taskID), middleware.CurrentUserID(c), fields)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task updated successfully",
		"task":    task,
	})
}

// DeleteTask removes the caller's task.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	if err := h.tasks.Delete(uint(taskID), middleware.CurrentUserID(c)); err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
		"taskId":  taskID,
	})
}
