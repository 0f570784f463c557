package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"spectrum-directory-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// InstrumentLoader loads instrument JSONB from Postgres.
type InstrumentLoader struct {
	pool *pgxpool.Pool
}

func NewInstrumentLoader(pool *pgxpool.Pool) *InstrumentLoader {
	return &InstrumentLoader{pool: pool}
}

func (l *InstrumentLoader) LoadInstrument(ctx context.Context, instrumentID string) (domain.Instrument, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM instruments WHERE id=$1`, instrumentID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Instrument{}, domain.ErrInstrumentNotFound
	}
	if err != nil {
		return domain.Instrument{}, fmt.Errorf("load instrument: %w", err)
	}
	var instrument domain.Instrument
	if err := json.Unmarshal(raw, &instrument); err != nil {
		return domain.Instrument{}, fmt.Errorf("unmarshal instrument: %w", err)
	}
	return instrument, nil
}
