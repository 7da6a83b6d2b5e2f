package casdoor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/profile-service/internal/cache"
	"github.com/SAP-F-2025/profile-service/internal/config"
	"github.com/SAP-F-2025/profile-service/internal/models"
	"github.com/SAP-F-2025/profile-service/internal/repositories"
)

// rolePropertyKey is the Casdoor user property holding the platform role
const rolePropertyKey = "role"

// casdoorClient is the subset of the SDK client used by the store
type casdoorClient interface {
	GetUserByUserId(userId string) (*casdoorsdk.User, error)
	GetUserByEmail(email string) (*casdoorsdk.User, error)
	GetUsers() ([]*casdoorsdk.User, error)
	GetPaginationUsers(p int, pageSize int, queryMap map[string]string) ([]*casdoorsdk.User, int, error)
	AddUser(user *casdoorsdk.User) (bool, error)
	UpdateUserForColumns(user *casdoorsdk.User, columns []string) (bool, error)
}

// UserCasdoor keeps user records in Casdoor, the platform's identity provider
type UserCasdoor struct {
	client       casdoorClient
	cache        *cache.CacheManager
	organization string
}

func NewUserCasdoor(cfg config.CasdoorConfig, redisClient *redis.Client) repositories.UserRepository {
	return newUserCasdoor(NewClient(cfg), cache.NewCacheManager(redisClient), cfg.Organization)
}

func newUserCasdoor(client casdoorClient, cacheManager *cache.CacheManager, organization string) *UserCasdoor {
	return &UserCasdoor{
		client:       client,
		cache:        cacheManager,
		organization: organization,
	}
}

// NewClient builds the SDK client from configuration
func NewClient(cfg config.CasdoorConfig) *casdoorsdk.Client {
	return casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
}

// ===== CONVERSION METHODS =====

func (u *UserCasdoor) convertCasdoorUserToModel(casdoorUser *casdoorsdk.User) *models.User {
	if casdoorUser == nil {
		return nil
	}

	var createdAt, updatedAt time.Time
	if casdoorUser.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, casdoorUser.CreatedTime)
	}
	if casdoorUser.UpdatedTime != "" {
		updatedAt, _ = time.Parse(time.RFC3339, casdoorUser.UpdatedTime)
	}

	return &models.User{
		ID:        casdoorUser.Id,
		Email:     casdoorUser.Email,
		Name:      casdoorUser.DisplayName,
		Role:      u.resolveRole(casdoorUser),
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// resolveRole prefers the explicit role property and falls back to Casdoor role membership
func (u *UserCasdoor) resolveRole(casdoorUser *casdoorsdk.User) models.UserRole {
	if value, ok := casdoorUser.Properties[rolePropertyKey]; ok {
		if role, err := models.ParseUserRole(value); err == nil {
			return role
		}
	}

	var roles []models.UserRole
	for _, casdoorRole := range casdoorUser.Roles {
		if casdoorRole == nil {
			continue
		}
		mapped := mapCasdoorRole(casdoorRole.Name)
		if !slices.Contains(roles, mapped) {
			roles = append(roles, mapped)
		}
	}

	if slices.Contains(roles, models.RoleAdmin) || casdoorUser.IsAdmin {
		return models.RoleAdmin
	}
	if slices.Contains(roles, models.RoleTeacher) {
		return models.RoleTeacher
	}
	return models.DefaultRole
}

func mapCasdoorRole(name string) models.UserRole {
	switch strings.ToLower(name) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "teacher", "instructor":
		return models.RoleTeacher
	default:
		return models.RoleStudent
	}
}

// ===== BASIC READ OPERATIONS =====

func (u *UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := u.cache.User.CacheOrExecute(ctx, cache.UserIDKey(id), &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		casdoorUser, err := u.fetchByID(id)
		if err != nil {
			return nil, err
		}
		return u.convertCasdoorUserToModel(casdoorUser), nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserCasdoor) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := u.cache.User.CacheOrExecute(ctx, cache.UserEmailKey(email), &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		casdoorUser, err := u.client.GetUserByEmail(email)
		if err != nil {
			return nil, fmt.Errorf("failed to get user by email from Casdoor: %w", err)
		}
		if casdoorUser == nil {
			return nil, repositories.ErrNotFound
		}
		return u.convertCasdoorUserToModel(casdoorUser), nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserCasdoor) fetchByID(id string) (*casdoorsdk.User, error) {
	casdoorUser, err := u.client.GetUserByUserId(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
	}
	if casdoorUser == nil {
		return nil, repositories.ErrNotFound
	}
	return casdoorUser, nil
}

// ===== WRITE OPERATIONS =====

func (u *UserCasdoor) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.DefaultRole
	}

	existing, err := u.client.GetUserByEmail(user.Email)
	if err != nil {
		return fmt.Errorf("failed to check user email in Casdoor: %w", err)
	}
	if existing != nil {
		return repositories.ErrDuplicate
	}

	now := time.Now().UTC()
	ok, err := u.client.AddUser(&casdoorsdk.User{
		Owner:       u.organization,
		Name:        user.ID,
		Id:          user.ID,
		DisplayName: user.Name,
		Email:       user.Email,
		CreatedTime: now.Format(time.RFC3339),
		Properties:  map[string]string{rolePropertyKey: string(user.Role)},
	})
	if err != nil {
		return fmt.Errorf("failed to add user to Casdoor: %w", err)
	}
	if !ok {
		return errors.New("casdoor rejected the new user")
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (u *UserCasdoor) Update(ctx context.Context, id string, update repositories.UserUpdate) (*models.User, error) {
	casdoorUser, err := u.fetchByID(id)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return u.convertCasdoorUserToModel(casdoorUser), nil
	}

	var columns []string
	if update.Name != nil {
		casdoorUser.DisplayName = *update.Name
		columns = append(columns, "display_name")
	}
	if update.Role != nil {
		if casdoorUser.Properties == nil {
			casdoorUser.Properties = map[string]string{}
		}
		casdoorUser.Properties[rolePropertyKey] = string(*update.Role)
		columns = append(columns, "properties")
	}

	ok, err := u.client.UpdateUserForColumns(casdoorUser, columns)
	if err != nil {
		return nil, fmt.Errorf("failed to update user in Casdoor: %w", err)
	}
	if !ok {
		return nil, errors.New("casdoor rejected the user update")
	}

	cache.InvalidateUserCache(ctx, u.cache, id, casdoorUser.Email)

	// Read back from Casdoor so the caller sees what was persisted
	fresh, err := u.fetchByID(id)
	if err != nil {
		return nil, err
	}
	cache.InvalidateUserCache(ctx, u.cache, id, fresh.Email)

	return u.convertCasdoorUserToModel(fresh), nil
}

// ===== LIST OPERATIONS =====

// List pages through Casdoor users. Role is not a Casdoor column, so a role
// filter loads the organization's users and pages locally.
func (u *UserCasdoor) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	filters = filters.Normalize()

	if filters.Role != nil {
		return u.listByRole(filters)
	}

	page := (filters.Offset / filters.Limit) + 1

	queryMap := make(map[string]string)
	if filters.Query != "" {
		queryMap["field"] = "email"
		queryMap["value"] = filters.Query
	}

	casdoorUsers, count, err := u.client.GetPaginationUsers(page, filters.Limit, queryMap)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get users from Casdoor: %w", err)
	}

	users := make([]*models.User, 0, len(casdoorUsers))
	for _, casdoorUser := range casdoorUsers {
		if user := u.convertCasdoorUserToModel(casdoorUser); user != nil {
			users = append(users, user)
		}
	}

	return users, int64(count), nil
}

func (u *UserCasdoor) listByRole(filters repositories.UserFilters) ([]*models.User, int64, error) {
	casdoorUsers, err := u.client.GetUsers()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get users from Casdoor: %w", err)
	}

	query := strings.ToLower(filters.Query)
	matched := make([]*models.User, 0, len(casdoorUsers))
	for _, casdoorUser := range casdoorUsers {
		user := u.convertCasdoorUserToModel(casdoorUser)
		if user == nil || user.Role != *filters.Role {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(user.Email), query) {
			continue
		}
		matched = append(matched, user)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Email < matched[j].Email })

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

// NewRepository exposes the Casdoor user store as a Repository
func NewRepository(cfg config.CasdoorConfig, redisClient *redis.Client) repositories.Repository {
	return &repository{user: NewUserCasdoor(cfg, redisClient)}
}

func (r *repository) User() repositories.UserRepository { return r.user }
func (r *repository) Ping(context.Context) error         { return nil }
func (r *repository) Close() error                       { return nil }
