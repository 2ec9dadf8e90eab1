package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"feedhistd/internal/domain/entity"
	"feedhistd/internal/repository"
)

// CreateInput represents the input parameters for tracking a new source.
type CreateInput struct {
	Name    string
	FeedURL string
}

// UpdateInput represents the input parameters for updating a tracked source.
// Empty string fields and a nil Active field leave the corresponding column
// unchanged.
type UpdateInput struct {
	ID      string
	Name    string
	FeedURL string
	Active  *bool
}

// Service provides source-catalog management use cases: list, search, and
// CRUD over the set of feeds this instance knows to reconstruct history for.
// It delegates persistence to repository.SourceRepository and never fetches
// a feed itself.
type Service struct {
	Repo repository.SourceRepository
}

// List retrieves every tracked source.
func (s *Service) List(ctx context.Context) ([]*entity.TrackedSource, error) {
	sources, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

// ListActive retrieves the tracked sources available for traversal, i.e.
// the candidates component B's Fetch operation is allowed to dereference.
func (s *Service) ListActive(ctx context.Context) ([]*entity.TrackedSource, error) {
	sources, err := s.Repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active sources: %w", err)
	}
	return sources, nil
}

// Search finds tracked sources whose name or feed URL matches the keyword.
func (s *Service) Search(ctx context.Context, keyword string) ([]*entity.TrackedSource, error) {
	sources, err := s.Repo.Search(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("search sources: %w", err)
	}
	return sources, nil
}

// Create validates and persists a new tracked source. Returns
// ErrDuplicateSource if a source with the same feed URL is already tracked.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.TrackedSource, error) {
	src := &entity.TrackedSource{
		ID:        uuid.NewString(),
		Name:      in.Name,
		FeedURL:   in.FeedURL,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.Repo.Search(ctx, in.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("check existing source: %w", err)
	}
	for _, e := range existing {
		if e.FeedURL == in.FeedURL {
			return nil, ErrDuplicateSource
		}
	}

	if err := s.Repo.Create(ctx, src); err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}
	return src, nil
}

// Update modifies an existing tracked source. Empty string fields and a nil
// Active field leave the corresponding column unchanged. Returns
// ErrSourceNotFound if no source with the given ID exists.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*entity.TrackedSource, error) {
	if in.ID == "" {
		return nil, &entity.ValidationError{Field: "id", Message: "is required"}
	}

	src, err := s.Repo.Get(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	if src == nil {
		return nil, ErrSourceNotFound
	}

	if in.Name != "" {
		src.Name = in.Name
	}
	if in.FeedURL != "" {
		src.FeedURL = in.FeedURL
	}
	if in.Active != nil {
		src.Active = *in.Active
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	if err := s.Repo.Update(ctx, src); err != nil {
		return nil, fmt.Errorf("update source: %w", err)
	}
	return src, nil
}

// Delete removes a tracked source by its ID.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return &entity.ValidationError{Field: "id", Message: "is required"}
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	return nil
}
