package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"eventhub-api/internal/apperr"
	"eventhub-api/internal/models"
	"eventhub-api/internal/storage"
)

type CreateEventInput struct {
	Title       string    `json:"title" validate:"required"`
	Description *string   `json:"description"`
	StartAt     time.Time `json:"startAt" validate:"required"`
	EndAt       time.Time `json:"endAt" validate:"required"`
	Capacity    int       `json:"capacity" validate:"required,min=1"`
	VenueID     int64     `json:"venueId" validate:"required,min=1"`
	CategoryID  int64     `json:"categoryId" validate:"required,min=1"`
}

// UpdateEventInput changes only the fields that are set. The merged event
// is validated as a whole. A JSON null description sets ClearDescription.
type UpdateEventInput struct {
	Title            *string    `json:"title" validate:"omitnil,min=1"`
	Description      *string    `json:"description"`
	ClearDescription bool       `json:"-"`
	StartAt          *time.Time `json:"startAt"`
	EndAt            *time.Time `json:"endAt"`
	Capacity         *int       `json:"capacity" validate:"omitnil,min=1"`
	VenueID          *int64     `json:"venueId" validate:"omitnil,min=1"`
	CategoryID       *int64     `json:"categoryId" validate:"omitnil,min=1"`
}

func (in *UpdateEventInput) UnmarshalJSON(data []byte) error {
	type plain UpdateEventInput
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields["description"]; ok && string(bytes.TrimSpace(raw)) == "null" {
		p.ClearDescription = true
	}
	*in = UpdateEventInput(p)
	return nil
}

// EventQuery holds raw listing parameters as they arrive on the query string.
type EventQuery struct {
	Q          string
	CategoryID string
	VenueID    string
	From       string
	To         string
	Page       int
}

type Events struct {
	store storage.EventStore
}

func NewEvents(store storage.EventStore) *Events {
	return &Events{store: store}
}

func checkWindow(start, end time.Time) error {
	if end.Before(start) {
		return apperr.BadRequest("endAt must not be before startAt")
	}
	return nil
}

func (s *Events) Create(ctx context.Context, in CreateEventInput) (models.Event, error) {
	if err := check(in); err != nil {
		return models.Event{}, err
	}
	if err := checkWindow(in.StartAt, in.EndAt); err != nil {
		return models.Event{}, err
	}
	e, err := s.store.CreateEvent(ctx, models.Event{
		Title:       in.Title,
		Description: in.Description,
		StartAt:     in.StartAt.UTC(),
		EndAt:       in.EndAt.UTC(),
		Capacity:    in.Capacity,
		VenueID:     in.VenueID,
		CategoryID:  in.CategoryID,
	})
	if err != nil {
		return models.Event{}, storeError(err, "Event")
	}
	return e, nil
}

func parseID(name, raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadRequest(name + " must be a positive integer")
	}
	return id, nil
}

// filterLayouts are tried in order. Layouts without a zone parse as UTC.
var filterLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTime(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range filterLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, apperr.BadRequest(name + " must be a valid ISO 8601 date string")
}

// List returns events matching every supplied filter, earliest first.
func (s *Events) List(ctx context.Context, q EventQuery) ([]models.Event, error) {
	var (
		filter = storage.EventFilter{Title: strings.TrimSpace(q.Q)}
		err    error
	)
	if filter.CategoryID, err = parseID("categoryId", q.CategoryID); err != nil {
		return nil, err
	}
	if filter.VenueID, err = parseID("venueId", q.VenueID); err != nil {
		return nil, err
	}
	if filter.From, err = parseTime("from", q.From); err != nil {
		return nil, err
	}
	if filter.To, err = parseTime("to", q.To); err != nil {
		return nil, err
	}

	events, err := s.store.ListEvents(ctx, filter, page(q.Page))
	if err != nil {
		return nil, storeError(err, "Event")
	}
	return events, nil
}

func (s *Events) Get(ctx context.Context, id int64) (models.Event, error) {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return models.Event{}, storeError(err, "Event")
	}
	return e, nil
}

func (s *Events) Update(ctx context.Context, id int64, in UpdateEventInput) (models.Event, error) {
	if err := check(in); err != nil {
		return models.Event{}, err
	}
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return models.Event{}, storeError(err, "Event")
	}
	if in.Title != nil {
		e.Title = *in.Title
	}
	switch {
	case in.Description != nil:
		e.Description = in.Description
	case in.ClearDescription:
		e.Description = nil
	}
	if in.StartAt != nil {
		e.StartAt = in.StartAt.UTC()
	}
	if in.EndAt != nil {
		e.EndAt = in.EndAt.UTC()
	}
	if in.Capacity != nil {
		e.Capacity = *in.Capacity
	}
	if in.VenueID != nil {
		e.VenueID = *in.VenueID
	}
	if in.CategoryID != nil {
		e.CategoryID = *in.CategoryID
	}
	if err := checkWindow(e.StartAt, e.EndAt); err != nil {
		return models.Event{}, err
	}

	e, err = s.store.UpdateEvent(ctx, e)
	if err != nil {
		return models.Event{}, storeError(err, "Event")
	}
	return e, nil
}

// Remove deletes an event together with its registrations.
func (s *Events) Remove(ctx context.Context, id int64) (models.Event, error) {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return models.Event{}, storeError(err, "Event")
	}
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return models.Event{}, storeError(err, "Event")
	}
	return e, nil
}
