package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

// DefaultRole is assigned to every newly provisioned account
const DefaultRole = RoleStudent

var ErrInvalidRole = errors.New("invalid role")

// AllRoles lists every role in display order
func AllRoles() []UserRole {
	return []UserRole{RoleAdmin, RoleTeacher, RoleStudent}
}

// ParseUserRole converts an externally supplied string into a role.
// Matching is exact: "teacher" is not a role.
func ParseUserRole(value string) (UserRole, error) {
	switch role := UserRole(value); role {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return role, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, value)
	}
}

func (r UserRole) IsValid() bool {
	_, err := ParseUserRole(string(r))
	return err == nil
}

func (r UserRole) String() string {
	return string(r)
}

// Label is the human readable form used by dashboards and exports
func (r UserRole) Label() string {
	if !r.IsValid() {
		return ""
	}
	return string(r[0]) + strings.ToLower(string(r[1:]))
}

type User struct {
	ID    string   `json:"id" gorm:"primaryKey;size:36"`
	Email string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Name  string   `json:"name" gorm:"not null;size:100"`
	Role  UserRole `json:"role" gorm:"type:varchar(16);not null;default:STUDENT"`

	// Credential secret, never serialized
	PasswordHash string `json:"-" gorm:"column:password;size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Profile returns the client-visible snapshot of the record
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}

// Summary returns the {name, email, role} projection
func (u *User) Summary() ProfileSummary {
	return ProfileSummary{
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

type UserProfile struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Role  UserRole `json:"role"`
}

type ProfileSummary struct {
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}
