// Package promotion turns processed tips into promoted tips: per location,
// tips whose embeddings are similar enough are clustered, and clusters with
// enough mentions become rows in tip_promotions.
package promotion

import (
	"context"
	"log/slog"

	"github.com/travelbuddy/backend/internal/domain"
)

type locationRepo interface {
	ListAll(ctx context.Context) ([]domain.Location, error)
}

type tipRepo interface {
	ListProcessedByLocation(ctx context.Context, locationID int64) ([]domain.Tip, error)
}

type embeddingRepo interface {
	GetByTipIDs(ctx context.Context, tipIDs []int64) (map[int64][]float32, error)
}

type promotionRepo interface {
	Upsert(ctx context.Context, tipText string, locationID int64, mentionCount int, similarity float64) (*domain.TipPromotion, error)
}

type embedClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Service is the promotion engine.
type Service struct {
	log        *slog.Logger
	locations  locationRepo
	tips       tipRepo
	embeddings embeddingRepo
	promotions promotionRepo
	client     embedClient

	threshold   float64
	minMentions int
}

// NewService creates the promotion engine.
func NewService(
	log *slog.Logger,
	locations locationRepo,
	tips tipRepo,
	embeddings embeddingRepo,
	promotions promotionRepo,
	client embedClient,
	threshold float64,
	minMentions int,
) *Service {
	return &Service{
		log:         log.With("service", "promotion"),
		locations:   locations,
		tips:        tips,
		embeddings:  embeddings,
		promotions:  promotions,
		client:      client,
		threshold:   threshold,
		minMentions: minMentions,
	}
}

// Run clusters processed tips for every location and upserts a promotion for
// each cluster that reaches the mention floor. It returns the promotions
// written this run.
func (s *Service) Run(ctx context.Context) ([]domain.TipPromotion, error) {
	locations, err := s.locations.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var promoted []domain.TipPromotion
	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			return promoted, err
		}

		rows, err := s.runLocation(ctx, loc)
		if err != nil {
			return promoted, err
		}
		promoted = append(promoted, rows...)
	}

	s.log.InfoContext(ctx, "promotion run finished",
		slog.Int("locations", len(locations)),
		slog.Int("promoted", len(promoted)),
	)
	return promoted, nil
}

func (s *Service) runLocation(ctx context.Context, loc domain.Location) ([]domain.TipPromotion, error) {
	tips, err := s.tips.ListProcessedByLocation(ctx, loc.ID)
	if err != nil {
		return nil, err
	}
	if len(tips) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(tips))
	for i, tip := range tips {
		ids[i] = tip.ID
	}
	vectors, err := s.embeddings.GetByTipIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	groups := s.cluster(ctx, loc.ID, tips, vectors)

	var promoted []domain.TipPromotion
	for _, g := range groups {
		if g.MentionCount() < s.minMentions {
			continue
		}

		score := s.similarityScore(ctx, g, vectors)
		row, err := s.promotions.Upsert(ctx, g.CanonicalText, loc.ID, g.MentionCount(), score)
		if err != nil {
			return promoted, err
		}

		s.log.InfoContext(ctx, "tip promoted",
			slog.Int64("location_id", loc.ID),
			slog.Int("mentions", g.MentionCount()),
			slog.Float64("similarity", score),
		)
		promoted = append(promoted, *row)
	}
	return promoted, nil
}

// cluster greedily groups tips by embedding similarity. Tips arrive in
// ascending ID order, so the oldest unclustered tip always anchors the next
// group and reruns over the same data produce the same groups. A tip without
// a stored embedding cannot be compared and is skipped.
func (s *Service) cluster(ctx context.Context, locationID int64, tips []domain.Tip, vectors map[int64][]float32) []domain.TipGroup {
	var groups []domain.TipGroup
	clustered := make(map[int64]bool, len(tips))

	for i, anchor := range tips {
		if clustered[anchor.ID] {
			continue
		}
		anchorVec, ok := vectors[anchor.ID]
		if !ok {
			s.log.WarnContext(ctx, "processed tip has no embedding",
				slog.Int64("tip_id", anchor.ID),
				slog.Int64("location_id", locationID),
			)
			clustered[anchor.ID] = true
			continue
		}

		group := domain.TipGroup{
			CanonicalText: anchor.Text(),
			LocationID:    locationID,
			Members:       []int64{anchor.ID},
		}
		clustered[anchor.ID] = true

		var simSum float64
		for _, other := range tips[i+1:] {
			if clustered[other.ID] {
				continue
			}
			otherVec, ok := vectors[other.ID]
			if !ok {
				continue
			}
			if sim := domain.CosineSimilarity(anchorVec, otherVec); sim >= s.threshold {
				group.Members = append(group.Members, other.ID)
				clustered[other.ID] = true
				simSum += sim
			}
		}

		if n := len(group.Members) - 1; n > 0 {
			group.AnchorSimilarity = simSum / float64(n)
		} else {
			group.AnchorSimilarity = 1.0
		}
		groups = append(groups, group)
	}
	return groups
}

// similarityScore re-embeds the canonical text and averages its similarity
// over all member vectors. When the worker is down or asleep by promotion
// time the anchor similarity recorded during clustering stands in.
func (s *Service) similarityScore(ctx context.Context, g domain.TipGroup, vectors map[int64][]float32) float64 {
	canonVec, err := s.client.Embed(ctx, g.CanonicalText)
	if err != nil {
		s.log.WarnContext(ctx, "embed canonical text failed, using anchor similarity",
			slog.String("error", err.Error()))
		return g.AnchorSimilarity
	}

	var sum float64
	var n int
	for _, id := range g.Members {
		vec, ok := vectors[id]
		if !ok {
			continue
		}
		sum += domain.CosineSimilarity(canonVec, vec)
		n++
	}
	if n == 0 {
		return g.AnchorSimilarity
	}
	return sum / float64(n)
}
