package client

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/SAP-F-2025/profile-service/internal/models"
)

const DefaultSessionCookie = "profile_session"

type (
	Option func(*Client)

	// Client talks to the Profile Service HTTP API on behalf of one signed-in caller
	Client struct {
		rest *resty.Client
	}

	// RefreshPatch lists the snapshot fields the caller expects the session to pick up
	RefreshPatch struct {
		Name *string          `json:"name,omitempty"`
		Role *models.UserRole `json:"role,omitempty"`
	}

	profileUpdateBody struct {
		Name string           `json:"name"`
		Role *models.UserRole `json:"role,omitempty"`
	}

	roleUpdateBody struct {
		Role models.UserRole `json:"role"`
	}
)

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		rest: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json").
			SetTimeout(30 * time.Second),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithSessionToken sends the session id in the default cookie
func WithSessionToken(token string) Option {
	return WithSessionCookie(DefaultSessionCookie, token)
}

func WithSessionCookie(name, token string) Option {
	return func(c *Client) {
		c.rest.SetCookie(&http.Cookie{Name: name, Value: token})
	}
}

func WithBearerToken(token string) Option {
	return func(c *Client) {
		c.rest.SetAuthToken(token)
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.rest.SetTimeout(timeout)
	}
}

func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.rest.SetTransport(transport)
	}
}

// WithRequestLogging logs every completed call, at error level for 5xx answers
func WithRequestLogging(logger *slog.Logger) Option {
	return func(c *Client) {
		c.rest.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			args := []any{
				"method", resp.Request.Method,
				"url", resp.Request.URL,
				"status", resp.StatusCode(),
				"duration", resp.Time(),
			}
			if resp.StatusCode() >= http.StatusInternalServerError {
				logger.ErrorContext(resp.Request.Context(), "http call completed with internal error", args...)
			} else {
				logger.DebugContext(resp.Request.Context(), "http call completed", args...)
			}
			return nil
		})

		c.rest.OnError(func(req *resty.Request, err error) {
			logger.ErrorContext(req.Context(), "http call completed with error",
				"method", req.Method,
				"url", req.URL,
				"error", err,
			)
		})
	}
}

func (c *Client) newRequest(ctx context.Context) *resty.Request {
	return c.rest.NewRequest().
		SetContext(ctx).
		SetError(&models.ErrorResponse{})
}

// CurrentIdentity returns the identity cached in the caller's session
func (c *Client) CurrentIdentity(ctx context.Context) (*models.UserProfile, error) {
	var identity models.UserProfile
	resp, err := c.newRequest(ctx).
		SetResult(&identity).
		Get("/api/v1/auth/session")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &identity, nil
}

// RefreshSession asks the server to rebuild the session snapshot from the user record
func (c *Client) RefreshSession(ctx context.Context, patch RefreshPatch) (*models.UserProfile, error) {
	var identity models.UserProfile
	resp, err := c.newRequest(ctx).
		SetBody(patch).
		SetResult(&identity).
		Post("/api/v1/auth/session/refresh")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &identity, nil
}

func (c *Client) GetProfile(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	resp, err := c.newRequest(ctx).
		SetResult(&profile).
		Get("/api/v1/user/profile")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) GetRole(ctx context.Context) (models.UserRole, error) {
	var body models.RoleResponse
	resp, err := c.newRequest(ctx).
		SetResult(&body).
		Get("/api/v1/user/role")
	if err := checkResponse(resp, err); err != nil {
		return "", err
	}
	return body.Role, nil
}

// UpdateProfile saves the display name, and the role when one is given
func (c *Client) UpdateProfile(ctx context.Context, name string, role *models.UserRole) (*models.ProfileSummary, error) {
	var body models.ProfileUpdateResponse
	resp, err := c.newRequest(ctx).
		SetBody(profileUpdateBody{Name: name, Role: role}).
		SetResult(&body).
		Put("/api/v1/user/profile")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return &body.User, nil
}

func (c *Client) UpdateRole(ctx context.Context, role models.UserRole) (*models.User, error) {
	var body models.RoleUpdateResponse
	resp, err := c.newRequest(ctx).
		SetBody(roleUpdateBody{Role: role}).
		SetResult(&body).
		Put("/api/v1/user/role")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	return body.User, nil
}
