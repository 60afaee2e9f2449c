package domain

import "time"

// TipPromotion is a persisted aggregate: one frequently-mentioned piece of
// advice for a location. Keyed by (TipText, LocationID) — upserted, never
// duplicated, never deleted by the pipeline.
type TipPromotion struct {
	ID              int64
	TipText         string
	LocationID      int64
	MentionCount    int
	SimilarityScore float64
	PromotedAt      time.Time
}

// TipGroup is a transient cluster of near-duplicate tips computed during one
// promotion run. CanonicalText labels the group; Members lists the tip IDs
// that contributed; AnchorSimilarity is the mean similarity of the members'
// stored vectors to the anchor's stored vector, kept as a fallback score when
// the canonical text cannot be re-embedded.
type TipGroup struct {
	CanonicalText    string
	LocationID       int64
	Members          []int64
	AnchorSimilarity float64
}

// MentionCount is the number of tips in the group.
func (g TipGroup) MentionCount() int { return len(g.Members) }
