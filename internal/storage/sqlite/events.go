package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"eventhub-api/internal/models"
	"eventhub-api/internal/storage"
)

const eventSelect = `
SELECT e.id, e.title, e.description, e.start_at, e.end_at, e.capacity, e.venue_id, e.category_id, e.created_at,
       v.id, v.name, v.address, v.capacity, v.created_at,
       c.id, c.name, c.created_at
FROM events e
JOIN venues v ON v.id = e.venue_id
JOIN categories c ON c.id = e.category_id`

// eventDest returns scan destinations for the eventSelect columns and a
// function that finalizes the scanned event.
func eventDest() ([]any, func() models.Event) {
	var (
		e                        models.Event
		v                        models.Venue
		c                        models.Category
		description              sql.NullString
		startAt, endAt, created  int64
		venueCreated, catCreated int64
	)
	dest := []any{
		&e.ID, &e.Title, &description, &startAt, &endAt, &e.Capacity, &e.VenueID, &e.CategoryID, &created,
		&v.ID, &v.Name, &v.Address, &v.Capacity, &venueCreated,
		&c.ID, &c.Name, &catCreated,
	}
	return dest, func() models.Event {
		if description.Valid {
			d := description.String
			e.Description = &d
		}
		e.StartAt = fromMillis(startAt)
		e.EndAt = fromMillis(endAt)
		e.CreatedAt = fromMillis(created)
		v.CreatedAt = fromMillis(venueCreated)
		c.CreatedAt = fromMillis(catCreated)
		e.Venue = &v
		e.Category = &c
		return e
	}
}

func scanEvent(row scanner) (models.Event, error) {
	dest, finish := eventDest()
	if err := row.Scan(dest...); err != nil {
		return models.Event{}, err
	}
	return finish(), nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// CreateEvent inserts an event and returns it with venue and category.
func (s *Store) CreateEvent(ctx context.Context, e models.Event) (models.Event, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO events (title, description, start_at, end_at, capacity, venue_id, category_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Title, nullableString(e.Description), toMillis(e.StartAt), toMillis(e.EndAt),
		e.Capacity, e.VenueID, e.CategoryID, toMillis(e.CreatedAt),
	)
	if err != nil {
		return models.Event{}, mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Event{}, fmt.Errorf("event id: %w", err)
	}
	return s.GetEvent(ctx, id)
}

// GetEvent fetches an event by id.
func (s *Store) GetEvent(ctx context.Context, id int64) (models.Event, error) {
	row := s.db.QueryRowContext(ctx, eventSelect+` WHERE e.id = ?`, id)
	e, err := scanEvent(row)
	if err != nil {
		return models.Event{}, notFound(err)
	}
	return e, nil
}

// escapeLike escapes LIKE wildcards so the input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// ListEvents returns events matching every set predicate of filter, ordered
// by start time.
func (s *Store) ListEvents(ctx context.Context, filter storage.EventFilter, page storage.Page) ([]models.Event, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Title != "" {
		conds = append(conds, foldFunc+`(e.title) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(foldText(filter.Title))+"%")
	}
	if filter.CategoryID != 0 {
		conds = append(conds, `e.category_id = ?`)
		args = append(args, filter.CategoryID)
	}
	if filter.VenueID != 0 {
		conds = append(conds, `e.venue_id = ?`)
		args = append(args, filter.VenueID)
	}
	if filter.From != nil {
		conds = append(conds, `e.start_at >= ?`)
		args = append(args, toMillis(*filter.From))
	}
	if filter.To != nil {
		conds = append(conds, `e.start_at <= ?`)
		args = append(args, toMillis(*filter.To))
	}

	query := eventSelect
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY e.start_at ASC, e.id ASC LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// UpdateEvent overwrites the mutable columns of an event.
func (s *Store) UpdateEvent(ctx context.Context, e models.Event) (models.Event, error) {
	if err := s.execAffecting(ctx, `
UPDATE events
SET title = ?, description = ?, start_at = ?, end_at = ?, capacity = ?, venue_id = ?, category_id = ?
WHERE id = ?`,
		e.Title, nullableString(e.Description), toMillis(e.StartAt), toMillis(e.EndAt),
		e.Capacity, e.VenueID, e.CategoryID, e.ID,
	); err != nil {
		return models.Event{}, err
	}
	return s.GetEvent(ctx, e.ID)
}

// DeleteEvent removes an event; registrations go with it through ON DELETE
// CASCADE.
func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	return s.execAffecting(ctx, `DELETE FROM events WHERE id = ?`, id)
}

func (s *Store) CountEventsByVenue(ctx context.Context, venueID int64) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM events WHERE venue_id = ?`, venueID)
}

func (s *Store) CountEventsByCategory(ctx context.Context, categoryID int64) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM events WHERE category_id = ?`, categoryID)
}
