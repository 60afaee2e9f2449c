// Package promotion implements the TipPromotion repository using PostgreSQL.
// Promotions are keyed by (tip_text, location_id) and upserted: a returning
// cluster updates its mention count in place, never creating a duplicate.
package promotion

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/travelbuddy/backend/internal/adapter/postgres"
	"github.com/travelbuddy/backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const promotionColumns = "id, tip_text, location_id, mention_count, similarity_score, promoted_at"

// Repo provides tip promotion persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new promotion repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// GetByTextAndLocation returns the promotion for a (text, location) pair.
// Returns domain.ErrNotFound if the cluster has never been promoted.
func (r *Repo) GetByTextAndLocation(ctx context.Context, tipText string, locationID int64) (*domain.TipPromotion, error) {
	query, args, err := psql.
		Select(promotionColumns).
		From("tip_promotions").
		Where(sq.Eq{"tip_text": tipText, "location_id": locationID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get promotion query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	p, err := scanPromotionRow(querier.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "tip_promotion", locationID)
	}

	return &p, nil
}

// Upsert creates or refreshes the promotion for a (text, location) pair and
// returns the persisted row. Mention count and similarity are overwritten
// with the current run's values; promoted_at is set on first promotion only.
func (r *Repo) Upsert(ctx context.Context, tipText string, locationID int64, mentionCount int, similarity float64) (*domain.TipPromotion, error) {
	query, args, err := psql.
		Insert("tip_promotions").
		Columns("tip_text", "location_id", "mention_count", "similarity_score").
		Values(tipText, locationID, mentionCount, similarity).
		Suffix(`ON CONFLICT (tip_text, location_id) DO UPDATE
			SET mention_count = EXCLUDED.mention_count,
			    similarity_score = EXCLUDED.similarity_score
			RETURNING ` + promotionColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert promotion query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	p, err := scanPromotionRow(querier.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, postgres.MapError(err, "tip_promotion", locationID)
	}

	return &p, nil
}

// ListByLocation returns all promotions for a location, most mentioned first.
func (r *Repo) ListByLocation(ctx context.Context, locationID int64) ([]domain.TipPromotion, error) {
	query, args, err := psql.
		Select(promotionColumns).
		From("tip_promotions").
		Where(sq.Eq{"location_id": locationID}).
		OrderBy("mention_count DESC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list promotions query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	defer rows.Close()

	var promotions []domain.TipPromotion
	for rows.Next() {
		p, err := scanPromotionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("list promotions: %w", err)
		}
		promotions = append(promotions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}

	if promotions == nil {
		promotions = []domain.TipPromotion{}
	}

	return promotions, nil
}

func scanPromotionRow(row pgx.Row) (domain.TipPromotion, error) {
	var p domain.TipPromotion
	if err := row.Scan(&p.ID, &p.TipText, &p.LocationID, &p.MentionCount,
		&p.SimilarityScore, &p.PromotedAt); err != nil {
		return domain.TipPromotion{}, err
	}
	return p, nil
}
