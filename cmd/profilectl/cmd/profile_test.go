package cmd

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeProfileAPI(t *testing.T, roleStatus int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	respond := func(status int, body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie("profile_session"); err != nil || c.Value != "s1" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Unauthorized","message":"Authentication required"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}
	}

	profile := `{"id":"u1","email":"u1@x.io","name":"Ada","role":"STUDENT"}`
	mux.HandleFunc("GET /api/v1/auth/session", respond(http.StatusOK, profile))
	mux.HandleFunc("POST /api/v1/auth/session/refresh", respond(http.StatusOK, profile))
	mux.HandleFunc("GET /api/v1/user/profile", respond(http.StatusOK, profile))
	mux.HandleFunc("GET /api/v1/user/role", respond(http.StatusOK, `{"role":"STUDENT"}`))
	if roleStatus == http.StatusOK {
		mux.HandleFunc("PUT /api/v1/user/role", respond(http.StatusOK,
			`{"message":"Role updated successfully","user":{"id":"u1","email":"u1@x.io","name":"Ada","role":"TEACHER"}}`))
	} else {
		mux.HandleFunc("PUT /api/v1/user/role", respond(roleStatus,
			`{"error":"InternalError","message":"Internal server error"}`))
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestProfilectl(t *testing.T) {
	pterm.DisableOutput()
	t.Cleanup(pterm.EnableOutput)
	t.Setenv("PROFILE_SESSION", "")
	t.Setenv("PROFILE_TOKEN", "")

	t.Run("credentials are required", func(t *testing.T) {
		err := run("whoami", "--session", "", "--token", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--session")
	})

	t.Run("whoami reads the session", func(t *testing.T) {
		srv := fakeProfileAPI(t, http.StatusOK)
		assert.NoError(t, run("whoami", "--server", srv.URL, "--session", "s1"))
	})

	t.Run("stale session fails to load", func(t *testing.T) {
		srv := fakeProfileAPI(t, http.StatusOK)
		err := run("show", "--server", srv.URL, "--session", "expired")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load profile")
	})

	t.Run("set-role succeeds", func(t *testing.T) {
		srv := fakeProfileAPI(t, http.StatusOK)
		assert.NoError(t, run("set-role", "TEACHER", "--server", srv.URL, "--session", "s1"))
	})

	t.Run("set-role reports server failure", func(t *testing.T) {
		srv := fakeProfileAPI(t, http.StatusInternalServerError)
		err := run("set-role", "TEACHER", "--server", srv.URL, "--session", "s1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to update role")
	})
}
