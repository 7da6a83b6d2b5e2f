package profileview

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/profile-service/internal/client"
	"github.com/SAP-F-2025/profile-service/internal/models"
)

var (
	ErrBusy       = errors.New("another request of this kind is in flight")
	ErrNotReady   = errors.New("profile is not loaded")
	ErrNotEditing = errors.New("profile is not in edit mode")
	ErrUnmounted  = errors.New("profile view is unmounted")
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseLoadError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseLoadError:
		return "load_error"
	default:
		return "unknown"
	}
}

type FormData struct {
	Name  string
	Email string
	Role  models.UserRole
}

// State is a point-in-time copy of what the view renders
type State struct {
	Phase        Phase
	FormData     FormData
	IsLoading    bool
	IsEditing    bool
	Submitting   bool
	RoleUpdating bool
	Error        string
}

type ProfileAPI interface {
	GetProfile(ctx context.Context) (*models.UserProfile, error)
	GetRole(ctx context.Context) (models.UserRole, error)
	UpdateProfile(ctx context.Context, name string, role *models.UserRole) (*models.ProfileSummary, error)
	UpdateRole(ctx context.Context, role models.UserRole) (*models.User, error)
}

type SessionAPI interface {
	CurrentIdentity(ctx context.Context) (*models.UserProfile, error)
	RefreshSession(ctx context.Context, patch client.RefreshPatch) (*models.UserProfile, error)
}

// Notifier shows transient messages, like a toast
type Notifier interface {
	Success(message string)
	Failure(message string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Failure(string) {}

type Option func(*Controller)

func WithNotifier(notifier Notifier) Option {
	return func(c *Controller) {
		c.notifier = notifier
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// Controller drives the profile page: loading the snapshot, editing the
// name and the optimistic role selector. It is safe for concurrent use;
// network calls never run under the lock.
type Controller struct {
	profile  ProfileAPI
	session  SessionAPI
	notifier Notifier
	logger   *slog.Logger

	mu        sync.Mutex
	state     State
	confirmed FormData
	unmounted bool
}

func New(profile ProfileAPI, session SessionAPI, opts ...Option) *Controller {
	c := &Controller{
		profile:  profile,
		session:  session,
		notifier: nopNotifier{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Mount loads the snapshot. It may be retried after a load error.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.unmounted:
		c.mu.Unlock()
		return ErrUnmounted
	case c.state.Phase == PhaseLoading:
		c.mu.Unlock()
		return ErrBusy
	case c.state.Phase == PhaseReady:
		c.mu.Unlock()
		return nil
	}
	c.state.Phase = PhaseLoading
	c.state.IsLoading = true
	c.mu.Unlock()

	form, err := c.load(ctx)

	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return ErrUnmounted
	}
	c.state.IsLoading = false
	if err != nil {
		c.state.Phase = PhaseLoadError
		c.state.Error = client.Message(err)
		c.mu.Unlock()

		c.logger.WarnContext(ctx, "Failed to load profile", "error", err)
		c.notifier.Failure(client.Message(err))
		return err
	}
	c.state.Phase = PhaseReady
	c.state.FormData = form
	c.state.Error = ""
	c.confirmed = form
	c.mu.Unlock()
	return nil
}

func (c *Controller) load(ctx context.Context) (FormData, error) {
	if _, err := c.session.CurrentIdentity(ctx); err != nil {
		return FormData{}, err
	}

	role, err := c.profile.GetRole(ctx)
	if err != nil {
		return FormData{}, err
	}

	profile, err := c.profile.GetProfile(ctx)
	if err != nil {
		return FormData{}, err
	}

	return FormData{Name: profile.Name, Email: profile.Email, Role: role}, nil
}

func (c *Controller) StartEditing() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.readyLocked(); err != nil {
		return err
	}
	c.state.IsEditing = true
	return nil
}

// CancelEditing drops the typed name and shows the last confirmed one again
func (c *Controller) CancelEditing() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.IsEditing || c.state.Submitting {
		return
	}
	c.state.IsEditing = false
	c.state.FormData.Name = c.confirmed.Name
	c.state.Error = ""
}

func (c *Controller) SetName(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unmounted {
		return ErrUnmounted
	}
	if !c.state.IsEditing {
		return ErrNotEditing
	}
	c.state.FormData.Name = name
	return nil
}

// Submit saves the typed name. On failure the controller stays in edit mode
// with the typed name kept, so the user can retry.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if err := c.readyLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if !c.state.IsEditing {
		c.mu.Unlock()
		return ErrNotEditing
	}
	if c.state.Submitting {
		c.mu.Unlock()
		return ErrBusy
	}
	c.state.Submitting = true
	name := c.state.FormData.Name
	c.mu.Unlock()

	summary, err := c.profile.UpdateProfile(ctx, name, nil)
	if err != nil {
		c.mu.Lock()
		c.state.Submitting = false
		if c.unmounted {
			c.mu.Unlock()
			return ErrUnmounted
		}
		c.state.Error = client.Message(err)
		c.mu.Unlock()

		c.notifier.Failure(client.Message(err))
		return err
	}

	c.refreshSession(ctx, client.RefreshPatch{Name: &name})
	fresh, ferr := c.profile.GetProfile(ctx)

	c.mu.Lock()
	c.state.Submitting = false
	if c.unmounted {
		c.mu.Unlock()
		return ErrUnmounted
	}
	form := FormData{Name: summary.Name, Email: summary.Email, Role: summary.Role}
	if ferr == nil {
		form = FormData{Name: fresh.Name, Email: fresh.Email, Role: fresh.Role}
	} else {
		c.logger.WarnContext(ctx, "Re-fetch after name update failed, using update response", "error", ferr)
	}
	c.state.IsEditing = false
	c.applyLocked(form)
	c.mu.Unlock()

	c.notifier.Success("Profile updated successfully")
	return nil
}

// ChangeRole shows the new role at once and sends it. A failed update
// puts the previous role back.
func (c *Controller) ChangeRole(ctx context.Context, role models.UserRole) error {
	c.mu.Lock()
	if err := c.readyLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state.RoleUpdating {
		c.mu.Unlock()
		return ErrBusy
	}
	previous := c.state.FormData.Role
	if role == previous {
		c.mu.Unlock()
		return nil
	}
	c.state.FormData.Role = role
	c.state.RoleUpdating = true
	c.mu.Unlock()

	user, err := c.profile.UpdateRole(ctx, role)
	if err != nil {
		c.mu.Lock()
		c.state.RoleUpdating = false
		if c.unmounted {
			c.mu.Unlock()
			return ErrUnmounted
		}
		c.state.FormData.Role = previous
		c.state.Error = client.Message(err)
		c.mu.Unlock()

		c.notifier.Failure(client.Message(err))
		return err
	}

	c.refreshSession(ctx, client.RefreshPatch{Role: &role})
	fresh, ferr := c.profile.GetProfile(ctx)

	c.mu.Lock()
	c.state.RoleUpdating = false
	if c.unmounted {
		c.mu.Unlock()
		return ErrUnmounted
	}
	form := FormData{Name: user.Name, Email: user.Email, Role: user.Role}
	if ferr == nil {
		form = FormData{Name: fresh.Name, Email: fresh.Email, Role: fresh.Role}
	} else {
		c.logger.WarnContext(ctx, "Re-fetch after role update failed, using update response", "error", ferr)
	}
	c.applyLocked(form)
	c.mu.Unlock()

	c.notifier.Success("Role updated successfully")
	return nil
}

// Unmount makes the controller ignore every response still in flight
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unmounted = true
}

func (c *Controller) refreshSession(ctx context.Context, patch client.RefreshPatch) {
	if _, err := c.session.RefreshSession(ctx, patch); err != nil {
		c.logger.WarnContext(ctx, "Session refresh failed", "error", err)
	}
}

func (c *Controller) readyLocked() error {
	if c.unmounted {
		return ErrUnmounted
	}
	if c.state.Phase != PhaseReady {
		return ErrNotReady
	}
	return nil
}

// applyLocked records a server-confirmed snapshot. A name being edited and
// a role change still in flight keep what the user currently sees.
func (c *Controller) applyLocked(form FormData) {
	c.confirmed = form
	shown := form
	if c.state.IsEditing {
		shown.Name = c.state.FormData.Name
	}
	if c.state.RoleUpdating {
		shown.Role = c.state.FormData.Role
	}
	c.state.FormData = shown
	c.state.Error = ""
}
