package service

import (
	"context"

	"eventhub-api/internal/apperr"
	"eventhub-api/internal/models"
	"eventhub-api/internal/storage"
)

type CategoryInput struct {
	Name string `json:"name" validate:"required"`
}

type UpdateCategoryInput struct {
	Name *string `json:"name" validate:"omitnil,min=1"`
}

type Categories struct {
	categories storage.CategoryStore
	events     storage.EventStore
}

func NewCategories(categories storage.CategoryStore, events storage.EventStore) *Categories {
	return &Categories{categories: categories, events: events}
}

// Create adds a category. Names are unique.
func (s *Categories) Create(ctx context.Context, in CategoryInput) (models.Category, error) {
	if err := check(in); err != nil {
		return models.Category{}, err
	}
	c, err := s.categories.CreateCategory(ctx, models.Category{Name: in.Name})
	if err != nil {
		return models.Category{}, storeError(err, "Category")
	}
	return c, nil
}

func (s *Categories) List(ctx context.Context, pageNumber int) ([]models.Category, error) {
	categories, err := s.categories.ListCategories(ctx, page(pageNumber))
	if err != nil {
		return nil, storeError(err, "Category")
	}
	return categories, nil
}

func (s *Categories) Get(ctx context.Context, id int64) (models.Category, error) {
	c, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return models.Category{}, storeError(err, "Category")
	}
	return c, nil
}

func (s *Categories) Update(ctx context.Context, id int64, in UpdateCategoryInput) (models.Category, error) {
	if err := check(in); err != nil {
		return models.Category{}, err
	}
	c, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return models.Category{}, storeError(err, "Category")
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	c, err = s.categories.UpdateCategory(ctx, c)
	if err != nil {
		return models.Category{}, storeError(err, "Category")
	}
	return c, nil
}

func (s *Categories) Remove(ctx context.Context, id int64) (models.Category, error) {
	c, err := s.categories.GetCategory(ctx, id)
	if err != nil {
		return models.Category{}, storeError(err, "Category")
	}
	n, err := s.events.CountEventsByCategory(ctx, id)
	if err != nil {
		return models.Category{}, apperr.Internal(err)
	}
	if n > 0 {
		return models.Category{}, apperr.BadRequest("Category has associated events and cannot be deleted")
	}
	if err := s.categories.DeleteCategory(ctx, id); err != nil {
		if storage.IsForeignKey(err) {
			return models.Category{}, apperr.Wrap(apperr.KindBadRequest, "Category has associated events and cannot be deleted", err)
		}
		return models.Category{}, storeError(err, "Category")
	}
	return c, nil
}
