package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ayush7kr/TaskManagementSystem/internal/api/middleware"
	"github.com/Ayush7kr/TaskManagementSystem/internal/store"
)

// StatsHandler serves the owner-scoped dashboard aggregates.
type StatsHandler struct {
	tasks *store.TaskStore
}

// NewStatsHandler creates a new StatsHandler instance
func NewStatsHandler(tasks *store.TaskStore) *StatsHandler {
	return &StatsHandler{tasks: tasks}
}

// GetStats returns task counts by status and priority plus overdue and
// upcoming totals for the caller's tasks only.
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.tasks.StatsByOwner(middleware.CurrentUserID(c), time.Now())
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
