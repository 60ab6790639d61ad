package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ayush7kr/TaskManagementSystem/internal/auth"
	"github.com/Ayush7kr/TaskManagementSystem/internal/store"
)

// AuthHandler owns registration and login.
type AuthHandler struct {
	users  *store.UserStore
	tokens *auth.TokenManager
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(users *store.UserStore, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// Register creates a regular account. The sanitized account (no hash) comes
// back in the response body.
func (h *AuthHandler) Register(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
		return
	}

	user, err := h.users.Register(input.Username, input.Email, input.Password)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Login verifies credentials and mints a 24h bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.users.VerifyCredentials(input.Email, input.Password)
	if err != nil {
		storeError(c, err)
		return
	}

	token, err := h.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}
