package sqlite

import (
	"context"
	"fmt"

	"eventhub-api/internal/models"
	"eventhub-api/internal/storage"
)

func scanCategory(row scanner) (models.Category, error) {
	var (
		c         models.Category
		createdAt int64
	)
	if err := row.Scan(&c.ID, &c.Name, &createdAt); err != nil {
		return models.Category{}, err
	}
	c.CreatedAt = fromMillis(createdAt)
	return c, nil
}

// CreateCategory inserts a category. Duplicate names yield a unique
// ConstraintError on "name".
func (s *Store) CreateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, created_at) VALUES (?, ?)`,
		c.Name, toMillis(c.CreatedAt),
	)
	if err != nil {
		return models.Category{}, mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Category{}, fmt.Errorf("category id: %w", err)
	}
	c.ID = id
	c.CreatedAt = fromMillis(toMillis(c.CreatedAt))
	return c, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (models.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err != nil {
		return models.Category{}, notFound(err)
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context, page storage.Page) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM categories ORDER BY id ASC LIMIT ? OFFSET ?`,
		page.Limit, page.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) UpdateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	if err := s.execAffecting(ctx, `UPDATE categories SET name = ? WHERE id = ?`, c.Name, c.ID); err != nil {
		return models.Category{}, err
	}
	return s.GetCategory(ctx, c.ID)
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	return s.execAffecting(ctx, `DELETE FROM categories WHERE id = ?`, id)
}
