package service

import (
	"context"

	"eventhub-api/internal/apperr"
	"eventhub-api/internal/models"
	"eventhub-api/internal/storage"
)

type CreateVenueInput struct {
	Name     string `json:"name" validate:"required"`
	Address  string `json:"address" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
}

// UpdateVenueInput changes only the fields that are set.
type UpdateVenueInput struct {
	Name     *string `json:"name" validate:"omitnil,min=1"`
	Address  *string `json:"address" validate:"omitnil,min=1"`
	Capacity *int    `json:"capacity" validate:"omitnil,min=1"`
}

type Venues struct {
	venues storage.VenueStore
	events storage.EventStore
}

func NewVenues(venues storage.VenueStore, events storage.EventStore) *Venues {
	return &Venues{venues: venues, events: events}
}

func (s *Venues) Create(ctx context.Context, in CreateVenueInput) (models.Venue, error) {
	if err := check(in); err != nil {
		return models.Venue{}, err
	}
	v, err := s.venues.CreateVenue(ctx, models.Venue{Name: in.Name, Address: in.Address, Capacity: in.Capacity})
	if err != nil {
		return models.Venue{}, storeError(err, "Venue")
	}
	return v, nil
}

func (s *Venues) List(ctx context.Context, pageNumber int) ([]models.Venue, error) {
	venues, err := s.venues.ListVenues(ctx, page(pageNumber))
	if err != nil {
		return nil, storeError(err, "Venue")
	}
	return venues, nil
}

func (s *Venues) Get(ctx context.Context, id int64) (models.Venue, error) {
	v, err := s.venues.GetVenue(ctx, id)
	if err != nil {
		return models.Venue{}, storeError(err, "Venue")
	}
	return v, nil
}

func (s *Venues) Update(ctx context.Context, id int64, in UpdateVenueInput) (models.Venue, error) {
	if err := check(in); err != nil {
		return models.Venue{}, err
	}
	v, err := s.venues.GetVenue(ctx, id)
	if err != nil {
		return models.Venue{}, storeError(err, "Venue")
	}
	if in.Name != nil {
		v.Name = *in.Name
	}
	if in.Address != nil {
		v.Address = *in.Address
	}
	if in.Capacity != nil {
		v.Capacity = *in.Capacity
	}
	v, err = s.venues.UpdateVenue(ctx, v)
	if err != nil {
		return models.Venue{}, storeError(err, "Venue")
	}
	return v, nil
}

// Remove deletes a venue that no event references and returns it.
func (s *Venues) Remove(ctx context.Context, id int64) (models.Venue, error) {
	v, err := s.venues.GetVenue(ctx, id)
	if err != nil {
		return models.Venue{}, storeError(err, "Venue")
	}
	n, err := s.events.CountEventsByVenue(ctx, id)
	if err != nil {
		return models.Venue{}, apperr.Internal(err)
	}
	if n > 0 {
		return models.Venue{}, apperr.BadRequest("Venue has associated events and cannot be deleted")
	}
	if err := s.venues.DeleteVenue(ctx, id); err != nil {
		if storage.IsForeignKey(err) {
			return models.Venue{}, apperr.Wrap(apperr.KindBadRequest, "Venue has associated events and cannot be deleted", err)
		}
		return models.Venue{}, storeError(err, "Venue")
	}
	return v, nil
}
