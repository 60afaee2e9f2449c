package domain

import "time"

// EmbeddingDim is the vector size produced by the worker's sentence model.
const EmbeddingDim = 384

// Embedding is the sentence vector for one tip. At most one row exists per
// tip; reprocessing overwrites the vector in place.
type Embedding struct {
	ID        int64
	TipID     int64
	Vector    []float32
	CreatedAt time.Time
}
