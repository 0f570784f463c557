package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"spectrum-directory-service/internal/app"
	"spectrum-directory-service/internal/domain"
)

// ProviderRepository is an in-memory implementation of app.ProviderRepository
// (useful for demos and tests; production uses the postgres repository).
type ProviderRepository struct {
	mu        sync.RWMutex
	providers map[string]domain.Provider
}

func NewProviderRepository(seed []domain.Provider) *ProviderRepository {
	providers := make(map[string]domain.Provider, len(seed))
	for _, p := range seed {
		providers[p.ID] = p
	}
	return &ProviderRepository{providers: providers}
}

func (r *ProviderRepository) Search(_ context.Context, query app.ProviderQuery) ([]domain.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if query.City != "" && !strings.EqualFold(p.City, query.City) {
			continue
		}
		if query.Specialty != "" && !strings.EqualFold(p.Specialty, query.Specialty) {
			continue
		}
		if query.Text != "" {
			needle := strings.ToLower(query.Text)
			haystack := strings.ToLower(p.Name + " " + p.Description + " " + p.Specialty)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		matched = append(matched, p)
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	if query.Offset >= len(matched) {
		return []domain.Provider{}, nil
	}
	matched = matched[query.Offset:]
	if query.Limit > 0 && query.Limit < len(matched) {
		matched = matched[:query.Limit]
	}
	return matched, nil
}

func (r *ProviderRepository) GetByID(_ context.Context, id string) (domain.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[id]; ok {
		return p, nil
	}
	return domain.Provider{}, domain.ErrProviderNotFound
}

func (r *ProviderRepository) GetByEmail(_ context.Context, email string) (domain.Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.providers {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return domain.Provider{}, domain.ErrProviderNotFound
}

func (r *ProviderRepository) Update(_ context.Context, provider domain.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[provider.ID]; !ok {
		return domain.ErrProviderNotFound
	}
	r.providers[provider.ID] = provider
	return nil
}
