package entity

import "time"

// TrackedSource is an operator-maintained pointer to a feed URL the source
// catalog (component I) knows about. It carries no history or progress
// state of its own — it exists purely so the admin API and any UI built on
// top of it can list "feeds we track" by name instead of requiring callers
// to always know a raw URL.
type TrackedSource struct {
	ID              string // UUID
	Name            string
	FeedURL         string
	Active          bool
	CreatedAt       time.Time
	LastRequestedAt *time.Time
}

// Validate checks the fields required to store a TrackedSource.
func (s *TrackedSource) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if err := ValidateURL(s.FeedURL); err != nil {
		return err
	}
	return nil
}
