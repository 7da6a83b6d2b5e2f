package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/profile-service/internal/models"
)

func seedRoster(t *testing.T, env *testEnv, students int) *models.User {
	t.Helper()
	admin := &models.User{ID: "admin", Email: "admin@x.io", Name: "Root", Role: models.RoleAdmin}
	env.seed(t, admin)
	for i := 0; i < students; i++ {
		env.seed(t, &models.User{
			ID:    fmt.Sprintf("s%03d", i),
			Email: fmt.Sprintf("s%03d@x.io", i),
			Name:  fmt.Sprintf("Student %d", i),
			Role:  models.RoleStudent,
		})
	}
	return admin
}

func TestUserService_ListRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	seedRoster(t, env, 1)
	svc := NewUserService(env.repo, env.logger, env.validator)
	ctx := context.Background()

	student := env.seed(t, &models.User{ID: "st", Email: "st@x.io", Name: "St", Role: models.RoleStudent})
	_, err := svc.List(ctx, student, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.List(ctx, nil, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUserService_ListFiltersAndPages(t *testing.T) {
	env := newTestEnv(t)
	admin := seedRoster(t, env, 5)
	env.seed(t, &models.User{ID: "t1", Email: "t1@x.io", Name: "Teach", Role: models.RoleTeacher})
	svc := NewUserService(env.repo, env.logger, env.validator)
	ctx := context.Background()
	identity := env.identityOf(admin)

	resp, err := svc.List(ctx, identity, &ListUsersRequest{Role: "STUDENT", Page: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 2, resp.Size)
	require.Len(t, resp.Users, 2)
	assert.Equal(t, "s002@x.io", resp.Users[0].Email)

	resp, err = svc.List(ctx, identity, &ListUsersRequest{Query: "teach"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)

	_, err = svc.List(ctx, identity, &ListUsersRequest{Role: "GUEST"})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestUserService_ExportRoster(t *testing.T) {
	env := newTestEnv(t)
	admin := seedRoster(t, env, 120)
	svc := NewUserService(env.repo, env.logger, env.validator)

	buf, err := svc.ExportRoster(context.Background(), env.identityOf(admin), &ListUsersRequest{Size: 5})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(rosterSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 122) // header + admin + 120 students
	assert.Equal(t, rosterHeaders, rows[0])
	assert.Equal(t, []string{"admin", "admin@x.io", "Root", "ADMIN"}, rows[1][:4])
}
