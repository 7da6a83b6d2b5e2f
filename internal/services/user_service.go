package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/profile-service/internal/models"
	"github.com/SAP-F-2025/profile-service/internal/repositories"
	"github.com/SAP-F-2025/profile-service/internal/session"
	"github.com/SAP-F-2025/profile-service/internal/validator"
)

const (
	defaultPageSize = 10
	exportPageSize  = 100
	rosterSheetName = "Users"
)

var rosterHeaders = []string{"ID", "Email", "Name", "Role", "Created At"}

type userService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *userService) List(ctx context.Context, principal *session.Identity, req *ListUsersRequest) (*models.UserListResponse, error) {
	filters, err := s.authorizeAndBuildFilters(principal, req)
	if err != nil {
		return nil, err
	}

	users, total, err := s.repo.User().List(ctx, filters)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list users", "error", err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &models.UserListResponse{
		Users: users,
		Total: total,
		Page:  filters.Offset/filters.Limit + 1,
		Size:  filters.Limit,
	}, nil
}

// ExportRoster writes every user matching the filters to an XLSX workbook, ignoring pagination
func (s *userService) ExportRoster(ctx context.Context, principal *session.Identity, req *ListUsersRequest) (*bytes.Buffer, error) {
	filters, err := s.authorizeAndBuildFilters(principal, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Exporting user roster", "requested_by", principal.UserID)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rosterSheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, 1, toCells(rosterHeaders)); err != nil {
		return nil, err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(rosterHeaders), 1)
	if err := f.SetCellStyle(rosterSheetName, "A1", lastHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetColWidth(rosterSheetName, "A", "E", 28); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	filters.Limit = exportPageSize
	filters.Offset = 0
	row := 2
	for {
		users, total, err := s.repo.User().List(ctx, filters)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to list users for export", "error", err)
			return nil, fmt.Errorf("failed to list users: %w", err)
		}

		for _, user := range users {
			cells := []interface{}{user.ID, user.Email, user.Name, string(user.Role), user.CreatedAt.Format("2006-01-02 15:04:05")}
			if err := writeRow(f, row, cells); err != nil {
				return nil, err
			}
			row++
		}

		filters.Offset += len(users)
		if len(users) == 0 || int64(filters.Offset) >= total {
			break
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf, nil
}

func (s *userService) authorizeAndBuildFilters(principal *session.Identity, req *ListUsersRequest) (repositories.UserFilters, error) {
	if principal == nil {
		return repositories.UserFilters{}, ErrUnauthorized
	}
	if principal.Role != models.RoleAdmin {
		return repositories.UserFilters{}, ErrForbidden
	}

	if req == nil {
		req = &ListUsersRequest{}
	}
	if errs := s.validator.Validate(req); errs != nil {
		return repositories.UserFilters{}, NewValidationFailure(errs)
	}

	size := req.Size
	if size == 0 {
		size = defaultPageSize
	}
	page := req.Page
	if page == 0 {
		page = 1
	}

	filters := repositories.UserFilters{
		Query:  req.Query,
		Limit:  size,
		Offset: (page - 1) * size,
	}
	if req.Role != "" {
		role, err := models.ParseUserRole(req.Role)
		if err != nil {
			return repositories.UserFilters{}, NewValidationFailure(ValidationErrors{{Field: "role", Message: "Invalid role value", Value: req.Role, Rule: "user_role"}})
		}
		filters.Role = &role
	}

	return filters.Normalize(), nil
}

func writeRow(f *excelize.File, row int, cells []interface{}) error {
	for i, value := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("invalid cell reference: %w", err)
		}
		if err := f.SetCellValue(rosterSheetName, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
