package service

import (
	"context"

	"eventhub-api/internal/models"
	"eventhub-api/internal/storage"
)

// RoleInput is the body of a role change.
type RoleInput struct {
	Role string `json:"role" validate:"required,oneof=ADMIN STUDENT"`
}

// Users exposes account administration.
type Users struct {
	store storage.UserStore
}

func NewUsers(store storage.UserStore) *Users {
	return &Users{store: store}
}

func (s *Users) List(ctx context.Context, pageNumber int) ([]models.PublicUser, error) {
	users, err := s.store.ListUsers(ctx, page(pageNumber))
	if err != nil {
		return nil, storeError(err, "User")
	}
	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (s *Users) Get(ctx context.Context, id int64) (models.PublicUser, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return models.PublicUser{}, storeError(err, "User")
	}
	return u.Public(), nil
}

// UpdateRole sets the role of a user. Tokens already issued keep the old
// role until they expire.
func (s *Users) UpdateRole(ctx context.Context, id int64, in RoleInput) (models.PublicUser, error) {
	if err := check(in); err != nil {
		return models.PublicUser{}, err
	}
	u, err := s.store.UpdateUserRole(ctx, id, models.Role(in.Role))
	if err != nil {
		return models.PublicUser{}, storeError(err, "User")
	}
	return u.Public(), nil
}
