package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Ayush7kr/TaskManagementSystem/internal/api/middleware"
	"github.com/Ayush7kr/TaskManagementSystem/internal/storage"
	"github.com/Ayush7kr/TaskManagementSystem/internal/store"
)

// maxAvatarSize caps uploads at 2 MiB.
const maxAvatarSize = 2 << 20

// UserHandler owns the self-service profile operations.
type UserHandler struct {
	users   *store.UserStore
	storage *storage.Client
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(users *store.UserStore, st *storage.Client) *UserHandler {
	return &UserHandler{users: users, storage: st}
}

// UpdateProfile changes the allow-listed profile fields. Email and role in
// the body are silently ignored.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var input struct {
		Username  *string `json:"username"`
		Phone     *string `json:"phone"`
		Bio       *string `json:"bio"`
		AvatarURL *string `json:"avatarUrl"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	user, err := h.users.UpdateProfile(middleware.CurrentUserID(c), store.ProfileUpdate{
		Username:  input.Username,
		Phone:     input.Phone,
		Bio:       input.Bio,
		AvatarURL: input.AvatarURL,
	})
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// UpdatePassword rotates the caller's password after verifying the current
// one.
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	var input struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currentPassword and newPassword are required"})
		return
	}

	if err := h.users.UpdatePassword(middleware.CurrentUserID(c), input.CurrentPassword, input.NewPassword); err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// UploadAvatar stores the uploaded image through the storage backend and
// records its URL on the account.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if fileHeader.Size > maxAvatarSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Avatar must be 2MB or smaller"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to open file"})
		return
	}
	defer file.Close()

	userID := middleware.CurrentUserID(c)
	contentType := fileHeader.Header.Get("Content-Type")

	current, err := h.users.GetByID(userID)
	if err != nil {
		storeError(c, err)
		return
	}

	url, err := h.storage.SaveAvatar(userID, fileHeader.Filename, file, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Avatar upload failed"})
		return
	}

	// A re-upload with a different extension leaves the old file behind;
	// clean it up best-effort once the new one is in place.
	if old := current.AvatarURL; old != url {
		if key, ok := h.storage.AvatarKey(old); ok {
			if err := h.storage.DeleteAvatar(key); err != nil {
				slog.Warn("stale avatar cleanup failed", "key", key, "error", err)
			}
		}
	}

	user, err := h.users.SetAvatar(userID, url)
	if err != nil {
		storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Avatar updated successfully",
		"avatarUrl": user.AvatarURL,
	})
}

// ServeAvatar streams a stored avatar. Registered only when the local
// storage backend is active; S3 deployments serve avatars from the bucket's
// own public URL.
func (h *UserHandler) ServeAvatar(c *gin.Context) {
	file := strings.TrimPrefix(c.Param("file"), "/")
	if file == "" || strings.Contains(file, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid avatar path"})
		return
	}

	obj, err := h.storage.GetAvatar("avatars/" + file)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Avatar not found"})
		return
	}
	defer obj.Body.Close()

	if seeker, ok := obj.Body.(io.ReadSeeker); ok {
		http.ServeContent(c.Writer, c.Request, file, obj.LastModified, seeker)
		return
	}

	c.DataFromReader(http.StatusOK, obj.ContentLength, obj.ContentType, obj.Body, nil)
}
