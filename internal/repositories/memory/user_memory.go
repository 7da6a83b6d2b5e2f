package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/profile-service/internal/models"
	"github.com/SAP-F-2025/profile-service/internal/repositories"
)

type userTable struct {
	mutex sync.RWMutex
	rows  map[string]*models.User
}

type userRepository struct {
	db *userTable
}

// NewUserRepository returns an in-process user store, used for local runs and tests
func NewUserRepository() repositories.UserRepository {
	return &userRepository{db: &userTable{rows: make(map[string]*models.User)}}
}

func clone(user *models.User) *models.User {
	copied := *user
	return &copied
}

func (r *userRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if user, ok := r.db.rows[id]; ok {
		return clone(user), nil
	}
	return nil, repositories.ErrNotFound
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	for _, user := range r.db.rows {
		if strings.EqualFold(user.Email, email) {
			return clone(user), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *userRepository) Create(_ context.Context, user *models.User) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	for _, existing := range r.db.rows {
		if strings.EqualFold(existing.Email, user.Email) {
			return repositories.ErrDuplicate
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, ok := r.db.rows[user.ID]; ok {
		return repositories.ErrDuplicate
	}
	if user.Role == "" {
		user.Role = models.DefaultRole
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.db.rows[user.ID] = clone(user)
	return nil
}

func (r *userRepository) Update(_ context.Context, id string, update repositories.UserUpdate) (*models.User, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	user, ok := r.db.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	if !update.IsEmpty() {
		user.UpdatedAt = time.Now().UTC()
	}

	return clone(user), nil
}

func (r *userRepository) List(_ context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	filters = filters.Normalize()

	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	query := strings.ToLower(filters.Query)
	matched := make([]*models.User, 0, len(r.db.rows))
	for _, user := range r.db.rows {
		if filters.Role != nil && user.Role != *filters.Role {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(user.Name), query) &&
			!strings.Contains(strings.ToLower(user.Email), query) {
			continue
		}
		matched = append(matched, clone(user))
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Email < matched[j].Email
	})

	total := int64(len(matched))
	if filters.Offset >= len(matched) {
		return []*models.User{}, total, nil
	}
	end := min(filters.Offset+filters.Limit, len(matched))
	return matched[filters.Offset:end], total, nil
}

type repository struct {
	user repositories.UserRepository
}

// NewRepository wraps an in-memory user store in the Repository aggregate
func NewRepository() repositories.Repository {
	return &repository{user: NewUserRepository()}
}

func (r *repository) User() repositories.UserRepository { return r.user }
func (r *repository) Ping(context.Context) error         { return nil }
func (r *repository) Close() error                       { return nil }
