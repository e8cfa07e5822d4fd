package sqlite

import (
	"context"
	"fmt"

	"eventhub-api/internal/models"
	"eventhub-api/internal/storage"
)

func scanVenue(row scanner) (models.Venue, error) {
	var (
		v         models.Venue
		createdAt int64
	)
	if err := row.Scan(&v.ID, &v.Name, &v.Address, &v.Capacity, &createdAt); err != nil {
		return models.Venue{}, err
	}
	v.CreatedAt = fromMillis(createdAt)
	return v, nil
}

// CreateVenue inserts a venue.
func (s *Store) CreateVenue(ctx context.Context, v models.Venue) (models.Venue, error) {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO venues (name, address, capacity, created_at) VALUES (?, ?, ?, ?)`,
		v.Name, v.Address, v.Capacity, toMillis(v.CreatedAt),
	)
	if err != nil {
		return models.Venue{}, mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Venue{}, fmt.Errorf("venue id: %w", err)
	}
	v.ID = id
	v.CreatedAt = fromMillis(toMillis(v.CreatedAt))
	return v, nil
}

// GetVenue fetches a venue by id.
func (s *Store) GetVenue(ctx context.Context, id int64) (models.Venue, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, address, capacity, created_at FROM venues WHERE id = ?`, id)
	v, err := scanVenue(row)
	if err != nil {
		return models.Venue{}, notFound(err)
	}
	return v, nil
}

// ListVenues returns a page of venues ordered by id.
func (s *Store) ListVenues(ctx context.Context, page storage.Page) ([]models.Venue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, address, capacity, created_at FROM venues ORDER BY id ASC LIMIT ? OFFSET ?`,
		page.Limit, page.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer rows.Close()

	venues := []models.Venue{}
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

// UpdateVenue overwrites the mutable columns of a venue.
func (s *Store) UpdateVenue(ctx context.Context, v models.Venue) (models.Venue, error) {
	if err := s.execAffecting(ctx,
		`UPDATE venues SET name = ?, address = ?, capacity = ? WHERE id = ?`,
		v.Name, v.Address, v.Capacity, v.ID,
	); err != nil {
		return models.Venue{}, err
	}
	return s.GetVenue(ctx, v.ID)
}

// DeleteVenue removes a venue. Referencing events make this fail with a
// foreign-key ConstraintError.
func (s *Store) DeleteVenue(ctx context.Context, id int64) error {
	return s.execAffecting(ctx, `DELETE FROM venues WHERE id = ?`, id)
}
