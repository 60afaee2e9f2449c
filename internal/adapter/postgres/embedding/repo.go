// Package embedding implements the Embedding repository using PostgreSQL.
// One vector per tip: writes upsert on the tip_id unique constraint so
// reprocessing a tip overwrites its vector in place.
package embedding

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/travelbuddy/backend/internal/adapter/postgres"
	"github.com/travelbuddy/backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides embedding persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new embedding repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Upsert stores the vector for a tip, replacing any previous one.
func (r *Repo) Upsert(ctx context.Context, tipID int64, vector []float32) error {
	query, args, err := psql.
		Insert("embeddings").
		Columns("tip_id", "embedding").
		Values(tipID, vector).
		Suffix("ON CONFLICT (tip_id) DO UPDATE SET embedding = EXCLUDED.embedding").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert embedding query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	if _, err := querier.Exec(ctx, query, args...); err != nil {
		return postgres.MapError(err, "embedding", tipID)
	}

	return nil
}

// GetByTipID returns the embedding for a tip.
// Returns domain.ErrNotFound if the tip has no vector.
func (r *Repo) GetByTipID(ctx context.Context, tipID int64) (*domain.Embedding, error) {
	query, args, err := psql.
		Select("id", "tip_id", "embedding", "created_at").
		From("embeddings").
		Where(sq.Eq{"tip_id": tipID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get embedding query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var e domain.Embedding
	row := querier.QueryRow(ctx, query, args...)
	if err := row.Scan(&e.ID, &e.TipID, &e.Vector, &e.CreatedAt); err != nil {
		return nil, postgres.MapError(err, "embedding", tipID)
	}

	return &e, nil
}

// GetByTipIDs returns embeddings for the given tips keyed by tip ID.
// Tips without a stored vector are simply absent from the map.
func (r *Repo) GetByTipIDs(ctx context.Context, tipIDs []int64) (map[int64][]float32, error) {
	if len(tipIDs) == 0 {
		return map[int64][]float32{}, nil
	}

	const bulkSQL = `SELECT tip_id, embedding FROM embeddings WHERE tip_id = ANY($1::bigint[])`

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, bulkSQL, tipIDs)
	if err != nil {
		return nil, fmt.Errorf("get embeddings by tip_ids: %w", err)
	}
	defer rows.Close()

	vectors := make(map[int64][]float32, len(tipIDs))
	for rows.Next() {
		var tipID int64
		var vector []float32
		if err := rows.Scan(&tipID, &vector); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		vectors[tipID] = vector
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get embeddings by tip_ids: %w", err)
	}

	return vectors, nil
}
