package sqlite

import (
	"context"
	"fmt"

	"eventhub-api/internal/models"
	"eventhub-api/internal/storage"
)

const userColumns = `id, email, name, password_hash, role, created_at`

func scanUser(row scanner) (models.User, error) {
	var (
		u         models.User
		role      string
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &createdAt); err != nil {
		return models.User{}, err
	}
	u.Role = models.Role(role)
	u.CreatedAt = fromMillis(createdAt)
	return u, nil
}

// CreateUser inserts a user and returns it with its assigned id.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	if u.Role == "" {
		u.Role = models.RoleStudent
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, name, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.Email, u.Name, u.PasswordHash, string(u.Role), toMillis(u.CreatedAt),
	)
	if err != nil {
		return models.User{}, mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	u.ID = id
	u.CreatedAt = fromMillis(toMillis(u.CreatedAt))
	return u, nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

// GetUserByEmail fetches a user by exact email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}

// ListUsers returns a page of users ordered by id.
func (s *Store) ListUsers(ctx context.Context, page storage.Page) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id ASC LIMIT ? OFFSET ?`,
		page.Limit, page.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserRole sets the role of a user.
func (s *Store) UpdateUserRole(ctx context.Context, id int64, role models.Role) (models.User, error) {
	if err := s.execAffecting(ctx, `UPDATE users SET role = ? WHERE id = ?`, string(role), id); err != nil {
		return models.User{}, err
	}
	return s.GetUser(ctx, id)
}
