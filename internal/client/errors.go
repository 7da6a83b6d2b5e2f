package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/SAP-F-2025/profile-service/internal/models"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrServer       = errors.New("server error")
	ErrTransport    = errors.New("transport error")
)

// APIError is a non-2xx answer from the service
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("profile api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("profile api: %s (status %d)", e.Message, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case e.StatusCode == http.StatusBadRequest:
		return ErrInvalidInput
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrServer
	}
}

// Message returns the user-facing text of err
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrTransport) {
		return "Profile service is unreachable"
	}
	return err.Error()
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if !resp.IsError() {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*models.ErrorResponse); ok && body != nil {
		apiErr.Code = body.Error
		apiErr.Message = body.Message
	}
	return apiErr
}
