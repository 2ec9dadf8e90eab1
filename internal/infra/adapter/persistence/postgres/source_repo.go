package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"feedhistd/internal/domain/entity"
	"feedhistd/internal/repository"
)

type SourceRepo struct{ db *sql.DB }

func NewSourceRepo(db *sql.DB) repository.SourceRepository {
	return &SourceRepo{db: db}
}

func scanSource(rows *sql.Rows) (*entity.TrackedSource, error) {
	var source entity.TrackedSource
	if err := rows.Scan(
		&source.ID, &source.Name, &source.FeedURL, &source.Active,
		&source.CreatedAt, &source.LastRequestedAt,
	); err != nil {
		return nil, err
	}
	return &source, nil
}

func (repo *SourceRepo) Get(ctx context.Context, id string) (*entity.TrackedSource, error) {
	const query = `
SELECT id, name, feed_url, active, created_at, last_requested_at
FROM tracked_sources
WHERE id = $1
LIMIT 1`
	var source entity.TrackedSource
	err := repo.db.QueryRowContext(ctx, query, id).Scan(
		&source.ID, &source.Name, &source.FeedURL, &source.Active,
		&source.CreatedAt, &source.LastRequestedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &source, nil
}

func (repo *SourceRepo) List(ctx context.Context) ([]*entity.TrackedSource, error) {
	const query = `
SELECT id, name, feed_url, active, created_at, last_requested_at
FROM tracked_sources
ORDER BY name ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*entity.TrackedSource, 0, 50)
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (repo *SourceRepo) ListActive(ctx context.Context) ([]*entity.TrackedSource, error) {
	const query = `
SELECT id, name, feed_url, active, created_at, last_requested_at
FROM tracked_sources
WHERE active = TRUE
ORDER BY name ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*entity.TrackedSource, 0, 50)
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActive: %w", err)
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (repo *SourceRepo) Search(ctx context.Context, kw string) ([]*entity.TrackedSource, error) {
	const query = `
SELECT id, name, feed_url, active, created_at, last_requested_at
FROM tracked_sources
WHERE name     ILIKE $1
OR feed_url ILIKE $1
ORDER BY name ASC`
	param := "%" + kw + "%"
	rows, err := repo.db.QueryContext(ctx, query, param)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*entity.TrackedSource, 0, 50)
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (repo *SourceRepo) Create(ctx context.Context, source *entity.TrackedSource) error {
	const query = `
INSERT INTO tracked_sources (id, name, feed_url, active, created_at, last_requested_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, query,
		source.ID, source.Name, source.FeedURL,
		source.Active, source.CreatedAt, source.LastRequestedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SourceRepo) Update(ctx context.Context, source *entity.TrackedSource) error {
	const query = `
UPDATE tracked_sources SET
       name     = $1,
       feed_url = $2,
       active   = $3
WHERE id = $4`
	res, err := repo.db.ExecContext(ctx, query,
		source.Name, source.FeedURL, source.Active, source.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: no rows affected")
	}
	return nil
}

func (repo *SourceRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tracked_sources WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: no rows affected")
	}
	return nil
}

func (repo *SourceRepo) TouchRequestedAt(ctx context.Context, id string, t time.Time) error {
	const query = `UPDATE tracked_sources SET last_requested_at = $1 WHERE id = $2`
	_, err := repo.db.ExecContext(ctx, query, t, id)
	return err
}
