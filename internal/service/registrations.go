package service

import (
	"context"
	"errors"

	"eventhub-api/internal/apperr"
	"eventhub-api/internal/models"
	"eventhub-api/internal/storage"
)

// Result acknowledges an operation that returns no entity.
type Result struct {
	Success bool `json:"success"`
}

type registrationStore interface {
	storage.EventStore
	storage.RegistrationStore
}

type Registrations struct {
	store registrationStore
}

func NewRegistrations(store registrationStore) *Registrations {
	return &Registrations{store: store}
}

var (
	errEventFull         = apperr.BadRequest("Event is full")
	errAlreadyRegistered = apperr.Conflict("User already registered for this event")
)

// Register signs userID up for eventID. The event must exist and have room,
// and the user must not already hold a seat, in that order. The final
// insert re-checks capacity atomically so concurrent callers cannot
// overbook.
func (s *Registrations) Register(ctx context.Context, userID, eventID int64) (models.Registration, error) {
	e, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return models.Registration{}, storeError(err, "Event")
	}
	n, err := s.store.CountRegistrations(ctx, eventID)
	if err != nil {
		return models.Registration{}, apperr.Internal(err)
	}
	if n >= e.Capacity {
		return models.Registration{}, errEventFull
	}
	if _, err := s.store.FindRegistration(ctx, userID, eventID); err == nil {
		return models.Registration{}, errAlreadyRegistered
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.Registration{}, apperr.Internal(err)
	}

	r, err := s.store.CreateRegistration(ctx, models.Registration{UserID: userID, EventID: eventID})
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, storage.ErrEventFull):
		return models.Registration{}, errEventFull
	case errors.Is(err, storage.ErrNotFound):
		return models.Registration{}, apperr.NotFound("Event not found")
	}
	if _, ok := storage.IsUnique(err); ok {
		return models.Registration{}, errAlreadyRegistered
	}
	return models.Registration{}, storeError(err, "Registration")
}

// Unregister drops the registration of userID for eventID.
func (s *Registrations) Unregister(ctx context.Context, userID, eventID int64) (Result, error) {
	r, err := s.store.FindRegistration(ctx, userID, eventID)
	if errors.Is(err, storage.ErrNotFound) {
		return Result{}, apperr.NotFound("Registration not found")
	}
	if err != nil {
		return Result{}, apperr.Internal(err)
	}
	if err := s.store.DeleteRegistration(ctx, r.ID); err != nil {
		return Result{}, storeError(err, "Registration")
	}
	return Result{Success: true}, nil
}

// ListMine returns the registrations of userID, newest first.
func (s *Registrations) ListMine(ctx context.Context, userID int64) ([]models.Registration, error) {
	regs, err := s.store.ListRegistrationsByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return regs, nil
}

// ListForEvent returns the registrations of an event, oldest first.
func (s *Registrations) ListForEvent(ctx context.Context, eventID int64) ([]models.Registration, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, storeError(err, "Event")
	}
	regs, err := s.store.ListRegistrationsByEvent(ctx, eventID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return regs, nil
}

// Remove deletes a registration on behalf of an administrator. The
// registration must belong to eventID.
func (s *Registrations) Remove(ctx context.Context, eventID, registrationID int64) (Result, error) {
	r, err := s.store.GetRegistration(ctx, registrationID)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && r.EventID != eventID) {
		return Result{}, apperr.NotFound("Registration not found for this event")
	}
	if err != nil {
		return Result{}, apperr.Internal(err)
	}
	if err := s.store.DeleteRegistration(ctx, r.ID); err != nil {
		return Result{}, storeError(err, "Registration")
	}
	return Result{Success: true}, nil
}
