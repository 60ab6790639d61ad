package store

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"github.com/Ayush7kr/TaskManagementSystem/internal/auth"
	"github.com/Ayush7kr/TaskManagementSystem/internal/models"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

// enumerationGuardHash is a throwaway bcrypt hash (default cost) compared
// against when a login email has no account, so the miss path costs the same
// as a wrong password and response timing leaks nothing.
const enumerationGuardHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserStore persists accounts. Secrets only ever enter it as plaintext
// parameters and leave it as bcrypt hashes.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Register creates a regular account. Username and email are normalized
// before the uniqueness checks so "  Alice " and "alice" collide.
func (s *UserStore) Register(username, email, password string) (*models.User, error) {
	return s.CreateWithRole(username, email, password, models.RoleUser)
}

// CreateWithRole backs both self-registration and the team-add operation.
// The role must already be validated by the caller for team-add; Register
// always passes RoleUser.
func (s *UserStore) CreateWithRole(username, email, password, role string) (*models.User, error) {
	username = normalizeUsername(username)
	email = normalizeEmail(email)

	if len(username) < minUsernameLen {
		return nil, fmt.Errorf("%w: username must be at least %d characters", ErrValidation, minUsernameLen)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	// Pre-check so the common case gets a clean duplicate error. A race that
	// slips past is caught again by the unique index at insert time.
	var count int64
	s.db.Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count)
	if count > 0 {
		return nil, fmt.Errorf("%w: username or email already registered", ErrDuplicate)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		AvatarURL:    models.DefaultAvatarURL,
	}
	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: username or email already registered", ErrDuplicate)
		}
		return nil, err
	}
	return &user, nil
}

// VerifyCredentials authenticates a login attempt. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *UserStore) VerifyCredentials(email, password string) (*models.User, error) {
	email = normalizeEmail(email)

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Burn the same bcrypt work a real comparison would.
			auth.CheckPassword(enumerationGuardHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// ProfileUpdate carries the only fields the profile endpoint may change.
// Email and role are not on this list on purpose.
type ProfileUpdate struct {
	Username  *string
	Phone     *string
	Bio       *string
	AvatarURL *string
}

// UpdateProfile applies the supplied subset of profile fields. A username
// change re-checks uniqueness against every other account first.
func (s *UserStore) UpdateProfile(userID uint, upd ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	fields := map[string]any{}
	if upd.Username != nil {
		username := normalizeUsername(*upd.Username)
		if len(username) < minUsernameLen {
			return nil, fmt.Errorf("%w: username must be at least %d characters", ErrValidation, minUsernameLen)
		}
		if username != user.Username {
			var count int64
			s.db.Model(&models.User{}).
				Where("username = ? AND id <> ?", username, userID).
				Count(&count)
			if count > 0 {
				return nil, fmt.Errorf("%w: username already taken", ErrDuplicate)
			}
		}
		fields["username"] = username
	}
	if upd.Phone != nil {
		fields["phone"] = strings.TrimSpace(*upd.Phone)
	}
	if upd.Bio != nil {
		fields["bio"] = strings.TrimSpace(*upd.Bio)
	}
	if upd.AvatarURL != nil {
		fields["avatar_url"] = strings.TrimSpace(*upd.AvatarURL)
	}

	if len(fields) > 0 {
		if err := s.db.Model(&user).Updates(fields).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, fmt.Errorf("%w: username already taken", ErrDuplicate)
			}
			return nil, err
		}
	}
	return &user, nil
}

// UpdatePassword rotates the secret. The current password must verify, and
// re-submitting the same password is treated as a user error.
func (s *UserStore) UpdatePassword(userID uint, current, next string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !auth.CheckPassword(user.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	if len(next) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	if next == current {
		return fmt.Errorf("%w: new password must differ from the current one", ErrValidation)
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.db.Model(&user).Update("password_hash", hash).Error
}

// SetAvatar records the uploaded avatar location for the account.
func (s *UserStore) SetAvatar(userID uint, url string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.db.Model(&user).Update("avatar_url", url).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID fetches a single account.
func (s *UserStore) GetByID(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListAll returns every account sorted by username. The hash never leaves
// the JSON layer thanks to the `json:"-"` tag, but handlers still treat the
// result as a directory listing, not a credential dump.
func (s *UserStore) ListAll() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("username asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
