package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ayush7kr/TaskManagementSystem/internal/models"
	"github.com/Ayush7kr/TaskManagementSystem/internal/store"
)

// TeamHandler owns the flat team directory. Whether these routes require the
// admin role is a server-level policy decision, not decided here.
type TeamHandler struct {
	users *store.UserStore
}

// NewTeamHandler creates a new TeamHandler instance
func NewTeamHandler(users *store.UserStore) *TeamHandler {
	return &TeamHandler{users: users}
}

// ListMembers returns every account, sorted by username. Password hashes are
// excluded by serialization.
func (h *TeamHandler) ListMembers(c *gin.Context) {
	users, err := h.users.ListAll()
	if err != nil {
		storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// AddMember administratively creates an account with a caller-supplied role.
func (h *TeamHandler) AddMember(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
		return
	}

	role := input.Role
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role value"})
		return
	}

	user, err := h.users.CreateWithRole(input.Username, input.Email, input.Password, role)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Team member added successfully",
		"user":    user,
	})
}
