package store

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/loftfs/loft/pkg/fs/models"
)

// ============================================
// USER OPERATIONS
// ============================================

// GetUser retrieves a user by username.
func (s *GORMStore) GetUser(ctx context.Context, username string) (*models.User, error) {
	return getByField[models.User](s.reader(), ctx, "username", username, models.ErrUserNotFound)
}

// GetUserByID retrieves a user by numeric id. Entity decoration resolves raw
// owner ids to full user objects through here.
func (s *GORMStore) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	return getByField[models.User](s.reader(), ctx, "id", id, models.ErrUserNotFound)
}

// GetUserByUUID retrieves a user by public UUID.
func (s *GORMStore) GetUserByUUID(ctx context.Context, uid string) (*models.User, error) {
	return getByField[models.User](s.reader(), ctx, "uuid", uid, models.ErrUserNotFound)
}

// CreateUser hashes the password and persists the user, assigning a UUID
// when absent.
func (s *GORMStore) CreateUser(ctx context.Context, user *models.User, password string) (string, error) {
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		user.PasswordHash = string(hash)
	}
	user.CreatedAt = time.Now()
	return createWithUUID(s.primary(), ctx, user,
		user.UUID, func(u *models.User, id string) { u.UUID = id },
		models.ErrDuplicateUser)
}

// DeleteUser removes a user by username.
func (s *GORMStore) DeleteUser(ctx context.Context, username string) error {
	return deleteByField[models.User](s.primary(), ctx, "username", username, models.ErrUserNotFound)
}
