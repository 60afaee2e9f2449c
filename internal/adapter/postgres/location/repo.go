// Package location implements the Location repository using PostgreSQL.
// Locations are owned by the client-facing API; the pipeline only reads them
// to scope promotion clustering.
package location

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/travelbuddy/backend/internal/adapter/postgres"
	"github.com/travelbuddy/backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides read access to locations.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new location repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ListAll returns every location in ascending ID order.
func (r *Repo) ListAll(ctx context.Context) ([]domain.Location, error) {
	query, args, err := psql.
		Select("id", "name", "country", "created_at").
		From("locations").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list locations query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var locations []domain.Location
	for rows.Next() {
		var l domain.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Country, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}

	if locations == nil {
		locations = []domain.Location{}
	}

	return locations, nil
}
