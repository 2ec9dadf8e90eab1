package source

import (
	"time"

	"feedhistd/internal/domain/entity"
)

// DTO is the wire representation of a tracked source.
type DTO struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	FeedURL         string     `json:"feedUrl"`
	Active          bool       `json:"active"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastRequestedAt *time.Time `json:"lastRequestedAt,omitempty"`
}

func toDTO(s *entity.TrackedSource) DTO {
	return DTO{
		ID:              s.ID,
		Name:            s.Name,
		FeedURL:         s.FeedURL,
		Active:          s.Active,
		CreatedAt:       s.CreatedAt,
		LastRequestedAt: s.LastRequestedAt,
	}
}

func toDTOs(list []*entity.TrackedSource) []DTO {
	out := make([]DTO, 0, len(list))
	for _, s := range list {
		out = append(out, toDTO(s))
	}
	return out
}
