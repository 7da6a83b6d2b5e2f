package models

// ===== ERROR RESPONSES =====

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ErrorResponse struct {
	Error            string                    `json:"error,omitempty"`
	Message          string                    `json:"message"`
	Details          interface{}               `json:"details,omitempty"`
	ValidationErrors []ValidationErrorResponse `json:"validation_errors,omitempty"`
}

// ===== PROFILE RESPONSES =====

type ProfileUpdateResponse struct {
	Message string         `json:"message"`
	User    ProfileSummary `json:"user"`
}

type RoleUpdateResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

type RoleResponse struct {
	Role UserRole `json:"role"`
}

type UserListResponse struct {
	Users []*User `json:"users"`
	Total int64   `json:"total"`
	Page  int     `json:"page"`
	Size  int     `json:"size"`
}
