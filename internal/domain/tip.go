package domain

import "time"

// TipStatus is the processing state of a tip.
// The pipeline owns exactly one transition: pending -> processed|error.
// A tip is never moved back to pending automatically.
type TipStatus string

const (
	TipStatusPending   TipStatus = "pending"
	TipStatusProcessed TipStatus = "processed"
	TipStatusError     TipStatus = "error"
)

// Valid reports whether the status is one of the known values.
func (s TipStatus) Valid() bool {
	switch s {
	case TipStatusPending, TipStatusProcessed, TipStatusError:
		return true
	}
	return false
}

// Tip is a single piece of local advice submitted for a location.
// Created by the client-facing API; this core only reads pending tips and
// writes back processing results.
type Tip struct {
	ID               int64
	TipText          string
	OriginalLanguage *string
	TranslatedText   *string
	LocationID       *int64
	UserID           *int64
	SubmittedAt      time.Time
	ProcessedAt      *time.Time
	Status           TipStatus
}

// Text returns the best available text for a tip: the translation when
// present, otherwise the submitted original.
func (t Tip) Text() string {
	if t.TranslatedText != nil && *t.TranslatedText != "" {
		return *t.TranslatedText
	}
	return t.TipText
}

// Location groups tips and promotions. Identity is assigned by the
// client-facing API; this core treats it as read-only.
type Location struct {
	ID        int64
	Name      string
	Country   string
	CreatedAt time.Time
}
