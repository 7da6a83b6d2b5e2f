package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/profile-service/internal/models"
	"github.com/SAP-F-2025/profile-service/internal/repositories"
	"github.com/SAP-F-2025/profile-service/internal/repositories/memory"
)

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == testCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", testCookieName)
	return nil
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, memory.NewRepository())

	w := srv.do(t, http.MethodPost, "/api/v1/auth/session", `{"code":"code-ok","state":"xyz"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Equal(t, "fresh@x.io", body["email"])
	assert.Equal(t, "STUDENT", body["role"])

	cookie := sessionCookie(t, w.Result())
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)

	w = srv.do(t, http.MethodGet, "/api/v1/auth/session", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Fresh", decode(t, w)["name"])

	// Role change followed by an explicit refresh brings the session in line with the store
	w = srv.do(t, http.MethodPut, "/api/v1/user/role", `{"role":"TEACHER"}`, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/api/v1/auth/session", "", cookie)
	assert.Equal(t, "STUDENT", decode(t, w)["role"])

	w = srv.do(t, http.MethodPost, "/api/v1/auth/session/refresh", `{"role":"TEACHER"}`, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "TEACHER", decode(t, w)["role"])

	w = srv.do(t, http.MethodGet, "/api/v1/auth/session", "", cookie)
	assert.Equal(t, "TEACHER", decode(t, w)["role"])

	w = srv.do(t, http.MethodDelete, "/api/v1/auth/session", "", cookie)
	require.Equal(t, http.StatusNoContent, w.Code)
	cleared := sessionCookie(t, w.Result())
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	w = srv.do(t, http.MethodGet, "/api/v1/auth/session", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignIn_RejectedCode(t *testing.T) {
	srv := newTestServer(t, memory.NewRepository())

	w := srv.do(t, http.MethodPost, "/api/v1/auth/session", `{"code":"stolen"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, http.MethodPost, "/api/v1/auth/session", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefresh_WithoutBody(t *testing.T) {
	srv := newTestServer(t, memory.NewRepository())
	cookie := srv.seed(t, student("u1"))

	name := "Renamed"
	_, err := srv.repo.User().Update(context.Background(), "u1", repositories.UserUpdate{Name: &name})
	require.NoError(t, err)

	w := srv.do(t, http.MethodPost, "/api/v1/auth/session/refresh", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", decode(t, w)["name"])
}

func TestRefresh_WithoutSession(t *testing.T) {
	srv := newTestServer(t, memory.NewRepository())

	w := srv.do(t, http.MethodPost, "/api/v1/auth/session/refresh", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserDirectory_AdminOnly(t *testing.T) {
	srv := newTestServer(t, memory.NewRepository())
	studentCookie := srv.seed(t, student("u1"))
	adminCookie := srv.seed(t, &models.User{ID: "a1", Email: "a1@x.io", Name: "Root", Role: models.RoleAdmin})

	w := srv.do(t, http.MethodGet, "/api/v1/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, http.MethodGet, "/api/v1/users", "", studentCookie)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodGet, "/api/v1/users?role=STUDENT&size=5", "", adminCookie)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, float64(5), body["size"])

	w = srv.do(t, http.MethodGet, "/api/v1/users?role=GUEST", "", adminCookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodGet, "/api/v1/users/export", "", adminCookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, w.Body.Len())
}
