package casdoor

import (
	"context"
	"errors"
	"fmt"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/SAP-F-2025/profile-service/internal/config"
	"github.com/SAP-F-2025/profile-service/internal/models"
)

// IdentityCasdoor resolves OAuth codes and bearer tokens issued by Casdoor
type IdentityCasdoor struct {
	client *casdoorsdk.Client
}

func NewIdentityCasdoor(cfg config.CasdoorConfig) *IdentityCasdoor {
	return &IdentityCasdoor{client: NewClient(cfg)}
}

// ExchangeCode trades an authorization code for a token and reads the identity from it
func (p *IdentityCasdoor) ExchangeCode(ctx context.Context, code, state string) (*models.ExternalIdentity, error) {
	token, err := p.client.GetOAuthToken(code, state)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return p.ParseToken(ctx, token.AccessToken)
}

// ParseToken verifies a Casdoor JWT
func (p *IdentityCasdoor) ParseToken(_ context.Context, token string) (*models.ExternalIdentity, error) {
	claims, err := p.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.User.Email == "" {
		return nil, errors.New("token carries no email")
	}

	return &models.ExternalIdentity{
		Subject: claims.User.Id,
		Email:   claims.User.Email,
		Name:    claims.User.DisplayName,
	}, nil
}
