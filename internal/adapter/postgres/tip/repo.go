// Package tip implements the Tip repository using PostgreSQL.
// Reads select the pending backlog and processed tips per location;
// writes apply processing outcomes (status transitions, translations).
package tip

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/travelbuddy/backend/internal/adapter/postgres"
	"github.com/travelbuddy/backend/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const tipColumns = "id, tip_text, original_language, translated_text, location_id, user_id, submitted_at, processed_at, status"

// Repo provides tip persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new tip repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// ListPending returns up to limit tips with status=pending, oldest first.
// The limit caps how much backlog a single processing run takes on.
func (r *Repo) ListPending(ctx context.Context, limit int) ([]domain.Tip, error) {
	query, args, err := psql.
		Select(tipColumns).
		From("tips").
		Where(sq.Eq{"status": string(domain.TipStatusPending)}).
		OrderBy("submitted_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list pending query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending tips: %w", err)
	}
	defer rows.Close()

	tips, err := scanTips(rows)
	if err != nil {
		return nil, fmt.Errorf("list pending tips: %w", err)
	}

	return tips, nil
}

// ListProcessedByLocation returns all processed tips for a location in
// ascending ID order. The stable order keeps promotion clustering
// deterministic across runs on unchanged data.
func (r *Repo) ListProcessedByLocation(ctx context.Context, locationID int64) ([]domain.Tip, error) {
	query, args, err := psql.
		Select(tipColumns).
		From("tips").
		Where(sq.Eq{
			"status":      string(domain.TipStatusProcessed),
			"location_id": locationID,
		}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list processed query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list processed tips: %w", err)
	}
	defer rows.Close()

	tips, err := scanTips(rows)
	if err != nil {
		return nil, fmt.Errorf("list processed tips: %w", err)
	}

	return tips, nil
}

// GetByID returns a single tip. Returns domain.ErrNotFound if absent.
func (r *Repo) GetByID(ctx context.Context, tipID int64) (*domain.Tip, error) {
	query, args, err := psql.
		Select(tipColumns).
		From("tips").
		Where(sq.Eq{"id": tipID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get tip query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, query, args...)

	t, err := scanTipRow(row)
	if err != nil {
		return nil, postgres.MapError(err, "tip", tipID)
	}

	return &t, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// MarkProcessed records a successful processing outcome: translated text,
// detected language, processed timestamp, status=processed.
// Returns domain.ErrNotFound if the tip row has vanished (persistence
// conflict — the caller marks the item errored and continues).
func (r *Repo) MarkProcessed(ctx context.Context, tipID int64, translatedText, language *string, processedAt time.Time) error {
	query, args, err := psql.
		Update("tips").
		Set("translated_text", translatedText).
		Set("original_language", language).
		Set("processed_at", processedAt).
		Set("status", string(domain.TipStatusProcessed)).
		Where(sq.Eq{"id": tipID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark processed query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "tip", tipID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tip %d: %w", tipID, domain.ErrNotFound)
	}

	return nil
}

// MarkError sets status=error for a tip whose processing failed.
// Returns domain.ErrNotFound if the row is gone.
func (r *Repo) MarkError(ctx context.Context, tipID int64) error {
	query, args, err := psql.
		Update("tips").
		Set("status", string(domain.TipStatusError)).
		Where(sq.Eq{"id": tipID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark error query: %w", err)
	}

	querier := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "tip", tipID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tip %d: %w", tipID, domain.ErrNotFound)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanTips(rows pgx.Rows) ([]domain.Tip, error) {
	var tips []domain.Tip
	for rows.Next() {
		t, err := scanTipRow(rows)
		if err != nil {
			return nil, err
		}
		tips = append(tips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tips == nil {
		tips = []domain.Tip{}
	}

	return tips, nil
}

func scanTipRow(row pgx.Row) (domain.Tip, error) {
	var (
		id               int64
		tipText          string
		originalLanguage pgtype.Text
		translatedText   pgtype.Text
		locationID       pgtype.Int8
		userID           pgtype.Int8
		submittedAt      time.Time
		processedAt      pgtype.Timestamptz
		status           string
	)

	if err := row.Scan(&id, &tipText, &originalLanguage, &translatedText,
		&locationID, &userID, &submittedAt, &processedAt, &status); err != nil {
		return domain.Tip{}, err
	}

	tip := domain.Tip{
		ID:          id,
		TipText:     tipText,
		SubmittedAt: submittedAt,
		Status:      domain.TipStatus(status),
	}

	if originalLanguage.Valid {
		tip.OriginalLanguage = &originalLanguage.String
	}
	if translatedText.Valid {
		tip.TranslatedText = &translatedText.String
	}
	if locationID.Valid {
		tip.LocationID = &locationID.Int64
	}
	if userID.Valid {
		tip.UserID = &userID.Int64
	}
	if processedAt.Valid {
		tip.ProcessedAt = &processedAt.Time
	}

	return tip, nil
}
