package postgres

import (
	"context"
	"errors"
	"fmt"

	"spectrum-directory-service/internal/app"
	"spectrum-directory-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ProviderRepository stores directory listings in Postgres.
type ProviderRepository struct {
	pool *pgxpool.Pool
}

func NewProviderRepository(pool *pgxpool.Pool) *ProviderRepository {
	return &ProviderRepository{pool: pool}
}

const providerColumns = `id, name, specialty, city, address, phone, website, description, email, password_hash, updated_at`

func (r *ProviderRepository) Search(ctx context.Context, query app.ProviderQuery) ([]domain.Provider, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+providerColumns+`
		FROM providers
		WHERE ($1 = '' OR city ILIKE $1)
		  AND ($2 = '' OR specialty ILIKE $2)
		  AND ($3 = '' OR name ILIKE '%' || $3 || '%' OR description ILIKE '%' || $3 || '%')
		ORDER BY name
		LIMIT $4 OFFSET $5`,
		query.City, query.Specialty, query.Text, query.Limit, query.Offset)
	if err != nil {
		return nil, fmt.Errorf("search providers: %w", err)
	}
	defer rows.Close()

	providers := make([]domain.Provider, 0)
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

func (r *ProviderRepository) GetByID(ctx context.Context, id string) (domain.Provider, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+providerColumns+` FROM providers WHERE id=$1`, id)
	return scanProviderRow(row)
}

func (r *ProviderRepository) GetByEmail(ctx context.Context, email string) (domain.Provider, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+providerColumns+` FROM providers WHERE lower(email)=lower($1)`, email)
	return scanProviderRow(row)
}

func (r *ProviderRepository) Update(ctx context.Context, provider domain.Provider) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE providers
		SET name=$2, specialty=$3, city=$4, address=$5, phone=$6, website=$7, description=$8, updated_at=now()
		WHERE id=$1`,
		provider.ID, provider.Name, provider.Specialty, provider.City,
		provider.Address, provider.Phone, provider.Website, provider.Description)
	if err != nil {
		return fmt.Errorf("update provider: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProviderNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProvider(row rowScanner) (domain.Provider, error) {
	var p domain.Provider
	err := row.Scan(&p.ID, &p.Name, &p.Specialty, &p.City, &p.Address,
		&p.Phone, &p.Website, &p.Description, &p.Email, &p.PasswordHash, &p.UpdatedAt)
	if err != nil {
		return domain.Provider{}, fmt.Errorf("scan provider: %w", err)
	}
	return p, nil
}

func scanProviderRow(row rowScanner) (domain.Provider, error) {
	p, err := scanProvider(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Provider{}, domain.ErrProviderNotFound
	}
	return p, err
}
