package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventhub-api/internal/models"
	"eventhub-api/internal/storage"
)

const registrationColumns = `r.id, r.user_id, r.event_id, r.created_at`

// registrationFullSelect joins a registration with its user and its event
// (including venue and category).
const registrationFullSelect = `
SELECT ` + registrationColumns + `,
       u.id, u.email, u.name, u.password_hash, u.role, u.created_at,
       e.id, e.title, e.description, e.start_at, e.end_at, e.capacity, e.venue_id, e.category_id, e.created_at,
       v.id, v.name, v.address, v.capacity, v.created_at,
       c.id, c.name, c.created_at
FROM registrations r
JOIN users u ON u.id = r.user_id
JOIN events e ON e.id = r.event_id
JOIN venues v ON v.id = e.venue_id
JOIN categories c ON c.id = e.category_id`

func registrationDest(r *models.Registration, createdAt *int64) []any {
	return []any{&r.ID, &r.UserID, &r.EventID, createdAt}
}

func scanRegistration(row scanner) (models.Registration, error) {
	var (
		r         models.Registration
		createdAt int64
	)
	if err := row.Scan(registrationDest(&r, &createdAt)...); err != nil {
		return models.Registration{}, err
	}
	r.CreatedAt = fromMillis(createdAt)
	return r, nil
}

// scanFullRegistration scans a registrationFullSelect row. withUser and
// withEvent control which relations are attached to the result.
func scanFullRegistration(row scanner, withUser, withEvent bool) (models.Registration, error) {
	var (
		r                        models.Registration
		createdAt, userCreatedAt int64
		u                        models.User
		role                     string
	)
	eventDest, finishEvent := eventDest()
	dest := registrationDest(&r, &createdAt)
	dest = append(dest, &u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &userCreatedAt)
	dest = append(dest, eventDest...)
	if err := row.Scan(dest...); err != nil {
		return models.Registration{}, err
	}
	r.CreatedAt = fromMillis(createdAt)
	if withUser {
		u.Role = models.Role(role)
		u.CreatedAt = fromMillis(userCreatedAt)
		public := u.Public()
		r.User = &public
	}
	if withEvent {
		e := finishEvent()
		r.Event = &e
	}
	return r, nil
}

func (s *Store) CountRegistrations(ctx context.Context, eventID int64) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = ?`, eventID)
}

// FindRegistration looks up the registration of userID for eventID.
func (s *Store) FindRegistration(ctx context.Context, userID, eventID int64) (models.Registration, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations r WHERE r.user_id = ? AND r.event_id = ?`,
		userID, eventID,
	)
	r, err := scanRegistration(row)
	if err != nil {
		return models.Registration{}, notFound(err)
	}
	return r, nil
}

func (s *Store) GetRegistration(ctx context.Context, id int64) (models.Registration, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+registrationColumns+` FROM registrations r WHERE r.id = ?`, id)
	r, err := scanRegistration(row)
	if err != nil {
		return models.Registration{}, notFound(err)
	}
	return r, nil
}

// CreateRegistration inserts a registration only while the event has room.
// The conditional insert runs as one statement inside an immediate
// transaction, so concurrent callers cannot push the count past capacity.
func (s *Store) CreateRegistration(ctx context.Context, r models.Registration) (models.Registration, error) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Registration{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
INSERT INTO registrations (user_id, event_id, created_at)
SELECT ?, e.id, ?
FROM events e
WHERE e.id = ?
  AND (SELECT COUNT(*) FROM registrations x WHERE x.event_id = e.id) < e.capacity`,
		r.UserID, toMillis(r.CreatedAt), r.EventID,
	)
	if err != nil {
		return models.Registration{}, mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Registration{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, r.EventID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return models.Registration{}, storage.ErrNotFound
		}
		if err != nil {
			return models.Registration{}, fmt.Errorf("check event: %w", err)
		}
		return models.Registration{}, storage.ErrEventFull
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.Registration{}, fmt.Errorf("registration id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Registration{}, fmt.Errorf("commit registration: %w", err)
	}

	row := s.db.QueryRowContext(ctx, registrationFullSelect+` WHERE r.id = ?`, id)
	created, err := scanFullRegistration(row, true, true)
	if err != nil {
		return models.Registration{}, fmt.Errorf("load registration: %w", err)
	}
	return created, nil
}

func (s *Store) DeleteRegistration(ctx context.Context, id int64) error {
	return s.execAffecting(ctx, `DELETE FROM registrations WHERE id = ?`, id)
}

// ListRegistrationsByUser returns a user's registrations newest first with
// the event attached.
func (s *Store) ListRegistrationsByUser(ctx context.Context, userID int64) ([]models.Registration, error) {
	return s.listFull(ctx,
		registrationFullSelect+` WHERE r.user_id = ? ORDER BY r.created_at DESC, r.id DESC`,
		userID, false, true,
	)
}

// ListRegistrationsByEvent returns an event's registrations oldest first
// with the user attached.
func (s *Store) ListRegistrationsByEvent(ctx context.Context, eventID int64) ([]models.Registration, error) {
	return s.listFull(ctx,
		registrationFullSelect+` WHERE r.event_id = ? ORDER BY r.created_at ASC, r.id ASC`,
		eventID, true, false,
	)
}

func (s *Store) listFull(ctx context.Context, query string, arg int64, withUser, withEvent bool) ([]models.Registration, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	regs := []models.Registration{}
	for rows.Next() {
		r, err := scanFullRegistration(rows, withUser, withEvent)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, r)
	}
	return regs, rows.Err()
}
