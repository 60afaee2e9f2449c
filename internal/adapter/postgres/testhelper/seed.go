package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/travelbuddy/backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedLocation creates a location and returns it with the assigned ID.
func SeedLocation(t *testing.T, pool *pgxpool.Pool) domain.Location {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	loc := domain.Location{
		Name:    "Test City " + suffix,
		Country: "Testland",
	}

	err := pool.QueryRow(ctx,
		`INSERT INTO locations (name, country) VALUES ($1, $2) RETURNING id, created_at`,
		loc.Name, loc.Country,
	).Scan(&loc.ID, &loc.CreatedAt)
	if err != nil {
		t.Fatalf("testhelper: SeedLocation: %v", err)
	}

	return loc
}

// SeedTip creates a tip with the given status for a location and returns it.
func SeedTip(t *testing.T, pool *pgxpool.Pool, locationID int64, status domain.TipStatus) domain.Tip {
	t.Helper()
	ctx := context.Background()

	tip := domain.Tip{
		TipText:    "tip " + uniqueSuffix(),
		LocationID: &locationID,
		Status:     status,
	}

	err := pool.QueryRow(ctx,
		`INSERT INTO tips (tip_text, location_id, status) VALUES ($1, $2, $3)
		 RETURNING id, submitted_at`,
		tip.TipText, locationID, string(status),
	).Scan(&tip.ID, &tip.SubmittedAt)
	if err != nil {
		t.Fatalf("testhelper: SeedTip: %v", err)
	}

	return tip
}

// SeedEmbedding stores a vector for a tip and returns the row ID.
func SeedEmbedding(t *testing.T, pool *pgxpool.Pool, tipID int64, vector []float32) int64 {
	t.Helper()
	ctx := context.Background()

	var id int64
	err := pool.QueryRow(ctx,
		`INSERT INTO embeddings (tip_id, embedding) VALUES ($1, $2) RETURNING id`,
		tipID, vector,
	).Scan(&id)
	if err != nil {
		t.Fatalf("testhelper: SeedEmbedding: %v", err)
	}

	return id
}
