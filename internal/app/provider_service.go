package app

import (
	"context"

	"spectrum-directory-service/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// ProviderQuery narrows a directory search. Empty fields match everything.
type ProviderQuery struct {
	Text      string
	City      string
	Specialty string
	Limit     int
	Offset    int
}

// ProviderUpdate carries the fields a provider may edit on its own listing.
type ProviderUpdate struct {
	Name        string `json:"name"`
	Specialty   string `json:"specialty"`
	City        string `json:"city"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
	Description string `json:"description"`
}

// ProviderRepository stores directory listings.
type ProviderRepository interface {
	Search(ctx context.Context, query ProviderQuery) ([]domain.Provider, error)
	GetByID(ctx context.Context, id string) (domain.Provider, error)
	GetByEmail(ctx context.Context, email string) (domain.Provider, error)
	Update(ctx context.Context, provider domain.Provider) error
}

// TokenIssuer mints access tokens for authenticated providers.
type TokenIssuer interface {
	Issue(providerID string) (string, error)
}

// ProviderService contains the directory and provider-account use cases.
type ProviderService struct {
	providers ProviderRepository
	tokens    TokenIssuer
}

func NewProviderService(providers ProviderRepository, tokens TokenIssuer) *ProviderService {
	return &ProviderService{providers: providers, tokens: tokens}
}

// Search lists providers matching the query.
func (s *ProviderService) Search(ctx context.Context, query ProviderQuery) ([]domain.Provider, error) {
	if query.Limit <= 0 || query.Limit > 100 {
		query.Limit = 20
	}
	return s.providers.Search(ctx, query)
}

// Get returns one provider listing for the detail view.
func (s *ProviderService) Get(ctx context.Context, id string) (domain.Provider, error) {
	return s.providers.GetByID(ctx, id)
}

// Login verifies a provider's credentials and returns an access token.
// A missing account and a wrong password are indistinguishable to the caller.
func (s *ProviderService) Login(ctx context.Context, email, password string) (string, error) {
	provider, err := s.providers.GetByEmail(ctx, email)
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(provider.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}
	return s.tokens.Issue(provider.ID)
}

// UpdateProfile applies an edit to the caller's own listing.
func (s *ProviderService) UpdateProfile(ctx context.Context, providerID string, update ProviderUpdate) (domain.Provider, error) {
	provider, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		return domain.Provider{}, err
	}
	if update.Name != "" {
		provider.Name = update.Name
	}
	if update.Specialty != "" {
		provider.Specialty = update.Specialty
	}
	if update.City != "" {
		provider.City = update.City
	}
	if update.Address != "" {
		provider.Address = update.Address
	}
	if update.Phone != "" {
		provider.Phone = update.Phone
	}
	if update.Website != "" {
		provider.Website = update.Website
	}
	if update.Description != "" {
		provider.Description = update.Description
	}
	if err := s.providers.Update(ctx, provider); err != nil {
		return domain.Provider{}, err
	}
	return provider, nil
}
