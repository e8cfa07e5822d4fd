// Package storage defines the persistence contracts for the platform.
//
// Services depend on these interfaces; sqlite and memory provide
// implementations.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventhub-api/internal/models"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")

	// ErrEventFull indicates a registration insert found the event at capacity.
	ErrEventFull = errors.New("event is full")
)

// ConstraintKind distinguishes integrity failures reported by a store.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
)

// ConstraintError reports a violated integrity constraint. Field names the
// offending column(s) when the backend exposes them.
type ConstraintError struct {
	Kind  ConstraintKind
	Field string
	Err   error
}

func (e *ConstraintError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s constraint failed", e.Kind)
	}
	return fmt.Sprintf("%s constraint failed on %s", e.Kind, e.Field)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// IsUnique reports whether err is a unique constraint violation.
func IsUnique(err error) (*ConstraintError, bool) {
	var ce *ConstraintError
	if errors.As(err, &ce) && ce.Kind == ConstraintUnique {
		return ce, true
	}
	return nil, false
}

// IsForeignKey reports whether err is a foreign-key violation.
func IsForeignKey(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Kind == ConstraintForeignKey
}

// Page is an offset/limit window.
type Page struct {
	Limit  int
	Offset int
}

// DefaultPageSize is the number of rows returned per listing page.
const DefaultPageSize = 20

// MaxOffset bounds Page.Offset. Pages past it are empty.
const MaxOffset = 1 << 30

// PageNumber converts a 1-based page number into a window of size rows.
// Numbers below 1 are treated as 1.
func PageNumber(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if number-1 > MaxOffset/size {
		return Page{Limit: size, Offset: MaxOffset}
	}
	return Page{Limit: size, Offset: (number - 1) * size}
}

// EventFilter narrows event listings. Zero values disable a predicate.
type EventFilter struct {
	Title      string
	CategoryID int64
	VenueID    int64
	From       *time.Time
	To         *time.Time
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context, page Page) ([]models.User, error)
	UpdateUserRole(ctx context.Context, id int64, role models.Role) (models.User, error)
}

// VenueStore persists venues.
type VenueStore interface {
	CreateVenue(ctx context.Context, v models.Venue) (models.Venue, error)
	GetVenue(ctx context.Context, id int64) (models.Venue, error)
	ListVenues(ctx context.Context, page Page) ([]models.Venue, error)
	UpdateVenue(ctx context.Context, v models.Venue) (models.Venue, error)
	DeleteVenue(ctx context.Context, id int64) error
}

// CategoryStore persists categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c models.Category) (models.Category, error)
	GetCategory(ctx context.Context, id int64) (models.Category, error)
	ListCategories(ctx context.Context, page Page) ([]models.Category, error)
	UpdateCategory(ctx context.Context, c models.Category) (models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// EventStore persists events. Reads return events with Venue and Category
// populated.
type EventStore interface {
	CreateEvent(ctx context.Context, e models.Event) (models.Event, error)
	GetEvent(ctx context.Context, id int64) (models.Event, error)
	ListEvents(ctx context.Context, filter EventFilter, page Page) ([]models.Event, error)
	UpdateEvent(ctx context.Context, e models.Event) (models.Event, error)
	// DeleteEvent removes the event and its registrations.
	DeleteEvent(ctx context.Context, id int64) error
	CountEventsByVenue(ctx context.Context, venueID int64) (int, error)
	CountEventsByCategory(ctx context.Context, categoryID int64) (int, error)
}

// RegistrationStore persists event registrations.
type RegistrationStore interface {
	CountRegistrations(ctx context.Context, eventID int64) (int, error)
	FindRegistration(ctx context.Context, userID, eventID int64) (models.Registration, error)
	GetRegistration(ctx context.Context, id int64) (models.Registration, error)
	// CreateRegistration inserts only while the event's registration count is
	// below its capacity, returning ErrEventFull otherwise. Duplicate
	// (user, event) pairs yield a unique ConstraintError.
	CreateRegistration(ctx context.Context, r models.Registration) (models.Registration, error)
	DeleteRegistration(ctx context.Context, id int64) error
	ListRegistrationsByUser(ctx context.Context, userID int64) ([]models.Registration, error)
	ListRegistrationsByEvent(ctx context.Context, eventID int64) ([]models.Registration, error)
}

// Store bundles every repository behind one handle.
type Store interface {
	UserStore
	VenueStore
	CategoryStore
	EventStore
	RegistrationStore
	Close() error
}
