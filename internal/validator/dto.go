package validator

// ProfileUpdateRequest is the body of PUT /user/profile.
// Any email in the payload is dropped by decoding: there is no field for it.
type ProfileUpdateRequest struct {
	Name string  `json:"name" validate:"required,profile_name"`
	Role *string `json:"role" validate:"omitempty,user_role"`
}

// RoleUpdateRequest is the body of PUT /user/role
type RoleUpdateRequest struct {
	Role string `json:"role" validate:"required,user_role"`
}

// SessionRefreshRequest carries the fields the client believes changed
type SessionRefreshRequest struct {
	Name *string `json:"name" validate:"omitempty,profile_name"`
	Role *string `json:"role" validate:"omitempty,user_role"`
}

// SignInRequest carries the OAuth authorization code returned by the identity provider
type SignInRequest struct {
	Code  string `json:"code" validate:"required"`
	State string `json:"state"`
}

// UserListRequest holds the admin directory query string
type UserListRequest struct {
	Query string `form:"q" json:"q"`
	Role  string `form:"role" json:"role" validate:"omitempty,user_role"`
	Page  int    `form:"page" json:"page" validate:"omitempty,min=1"`
	Size  int    `form:"size" json:"size" validate:"omitempty,min=1,max=100"`
}
