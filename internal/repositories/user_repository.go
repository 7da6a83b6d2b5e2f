package repositories

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/profile-service/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// UserFilters defines filters for user queries
type UserFilters struct {
	Query  string           // Search query for name or email
	Role   *models.UserRole // Exact role match
	Limit  int              // Page size
	Offset int              // Offset for pagination
}

// Normalize applies the default and maximum page size
func (f UserFilters) Normalize() UserFilters {
	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// UserUpdate lists the mutable fields; nil means "leave unchanged".
// Email and ID are deliberately absent.
type UserUpdate struct {
	Name *string
	Role *models.UserRole
}

func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Role == nil
}

// UserRepository is the durable user record store
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// Create assigns an ID when empty and the default role when unset
	Create(ctx context.Context, user *models.User) error

	// Update applies the partial update to the record with the given ID and
	// returns the record as persisted after the write
	Update(ctx context.Context, id string, update UserUpdate) (*models.User, error)

	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
}
