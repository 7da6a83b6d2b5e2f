package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/profile-service/internal/cache"
	"github.com/SAP-F-2025/profile-service/internal/models"
	"github.com/SAP-F-2025/profile-service/internal/repositories"
)

type UserPostgreSQL struct {
	db    *gorm.DB
	cache *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.UserRepository {
	return &UserPostgreSQL{
		db:    db,
		cache: cacheManager,
	}
}

// ===== BASIC READ OPERATIONS =====

func (r *UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.cache.User.CacheOrExecute(ctx, cache.UserIDKey(id), &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		return r.findOne(ctx, "id = ?", id)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.cache.User.CacheOrExecute(ctx, cache.UserEmailKey(email), &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		return r.findOne(ctx, "LOWER(email) = LOWER(?)", email)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// findOne always reads the database, bypassing the cache
func (r *UserPostgreSQL) findOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		return nil, handleDBError(err, "get user")
	}
	return &user, nil
}

// ===== WRITE OPERATIONS =====

func (r *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.DefaultRole
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return handleDBError(err, "create user")
	}

	return nil
}

func (r *UserPostgreSQL) Update(ctx context.Context, id string, update repositories.UserUpdate) (*models.User, error) {
	if update.IsEmpty() {
		return r.findOne(ctx, "id = ?", id)
	}

	current, err := r.findOne(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{}, 2)
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Role != nil {
		fields["role"] = *update.Role
	}

	// Cached copies are dropped before the write and again after the read-back
	cache.InvalidateUserCache(ctx, r.cache, id, current.Email)

	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return nil, handleDBError(result.Error, "update user")
	}
	if result.RowsAffected == 0 {
		return nil, repositories.ErrNotFound
	}

	// Read back from the database, not the cache, so the caller sees the write
	user, err := r.findOne(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	cache.InvalidateUserCache(ctx, r.cache, user.ID, user.Email)

	return user, nil
}

// ===== LIST OPERATIONS =====

func (r *UserPostgreSQL) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	filters = filters.Normalize()

	query := r.db.WithContext(ctx).Model(&models.User{})
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		like := "%" + q + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count users")
	}

	var users []*models.User
	if err := query.Order("email ASC").Limit(filters.Limit).Offset(filters.Offset).Find(&users).Error; err != nil {
		return nil, 0, handleDBError(err, "list users")
	}

	return users, total, nil
}

// handleDBError maps gorm errors onto repository sentinels
func handleDBError(err error, operation string) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repositories.ErrDuplicate
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}
