package sqlite

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"eventhub-api/internal/models"
	"eventhub-api/internal/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "eventhub.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

type fixture struct {
	venue    models.Venue
	category models.Category
	event    models.Event
	user     models.User
}

func seedFixture(t *testing.T, store *Store, capacity int) fixture {
	t.Helper()
	ctx := context.Background()

	venue, err := store.CreateVenue(ctx, models.Venue{Name: "Main Hall", Address: "1 Campus Way", Capacity: 200})
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}
	category, err := store.CreateCategory(ctx, models.Category{Name: "Workshop"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	event, err := store.CreateEvent(ctx, models.Event{
		Title:      "Go Workshop",
		StartAt:    start,
		EndAt:      start.Add(2 * time.Hour),
		Capacity:   capacity,
		VenueID:    venue.ID,
		CategoryID: category.ID,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	user, err := store.CreateUser(ctx, models.User{Email: "a@x.com", PasswordHash: "hash", Role: models.RoleStudent})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return fixture{venue: venue, category: category, event: event, user: user}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestCloseNilSafe(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if store.DB() != nil {
		t.Fatal("expected nil DB for nil store")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := openTempStore(t)
	if got := store.Applied(); len(got) != 1 || got[0] != "001_init.sql" {
		t.Fatalf("expected 001_init.sql applied on open, got %v", got)
	}

	applied, err := store.Migrate(context.Background())
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("expected no pending migrations, got %v", applied)
	}
}

func TestExtractUp(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;\n"
	got := extractUp(content)
	if got != "\nCREATE TABLE a (id INTEGER);\n" {
		t.Fatalf("unexpected up section %q", got)
	}
	if extractUp("SELECT 1;") != "SELECT 1;" {
		t.Fatal("expected content without markers to be returned whole")
	}
}

func TestConstraintFields(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{msg: "constraint failed: UNIQUE constraint failed: users.email (2067)", want: "email"},
		{msg: "UNIQUE constraint failed: registrations.user_id, registrations.event_id", want: "user_id, event_id"},
		{msg: "FOREIGN KEY constraint failed (787)", want: ""},
	}
	for _, tt := range tests {
		if got := constraintFields(tt.msg); got != tt.want {
			t.Fatalf("%q: expected %q, got %q", tt.msg, tt.want, got)
		}
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if _, err := store.CreateUser(ctx, models.User{Email: "a@x.com", PasswordHash: "h"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, err := store.CreateUser(ctx, models.User{Email: "a@x.com", PasswordHash: "h"})
	ce, ok := storage.IsUnique(err)
	if !ok {
		t.Fatalf("expected unique constraint error, got %v", err)
	}
	if ce.Field != "email" {
		t.Fatalf("expected field email, got %q", ce.Field)
	}
}

func TestUserRoundTripAndRoleUpdate(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	created, err := store.CreateUser(ctx, models.User{Email: "a@x.com", Name: "Alice", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if created.Role != models.RoleStudent {
		t.Fatalf("expected default role STUDENT, got %s", created.Role)
	}

	byEmail, err := store.GetUserByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != created.ID || byEmail.Name != "Alice" || !byEmail.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("unexpected user: %+v", byEmail)
	}

	updated, err := store.UpdateUserRole(ctx, created.ID, models.RoleAdmin)
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if updated.Role != models.RoleAdmin {
		t.Fatalf("expected ADMIN, got %s", updated.Role)
	}

	if _, err := store.UpdateUserRole(ctx, 999, models.RoleAdmin); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.GetUser(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListUsersPagination(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		if _, err := store.CreateUser(ctx, models.User{Email: email, PasswordHash: "h"}); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	first, err := store.ListUsers(ctx, storage.PageNumber(1, 2))
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(first) != 2 || first[0].Email != "a@x.com" || first[1].Email != "b@x.com" {
		t.Fatalf("unexpected first page: %+v", first)
	}
	second, err := store.ListUsers(ctx, storage.PageNumber(2, 2))
	if err != nil {
		t.Fatalf("list users page 2: %v", err)
	}
	if len(second) != 1 || second[0].Email != "c@x.com" {
		t.Fatalf("unexpected second page: %+v", second)
	}

	far, err := store.ListUsers(ctx, storage.PageNumber(math.MaxInt, 2))
	if err != nil {
		t.Fatalf("list far page: %v", err)
	}
	if len(far) != 0 {
		t.Fatalf("expected empty page for huge page number, got %d users", len(far))
	}
}

func TestDeleteVenueBlockedByEvent(t *testing.T) {
	store := openTempStore(t)
	fx := seedFixture(t, store, 10)
	ctx := context.Background()

	err := store.DeleteVenue(ctx, fx.venue.ID)
	if !storage.IsForeignKey(err) {
		t.Fatalf("expected foreign key error, got %v", err)
	}
	err = store.DeleteCategory(ctx, fx.category.ID)
	if !storage.IsForeignKey(err) {
		t.Fatalf("expected foreign key error, got %v", err)
	}

	if err := store.DeleteEvent(ctx, fx.event.ID); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	if err := store.DeleteVenue(ctx, fx.venue.ID); err != nil {
		t.Fatalf("delete venue: %v", err)
	}
	if err := store.DeleteVenue(ctx, fx.venue.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestCreateEventUnknownVenue(t *testing.T) {
	store := openTempStore(t)
	fx := seedFixture(t, store, 10)

	_, err := store.CreateEvent(context.Background(), models.Event{
		Title:      "Orphan",
		StartAt:    time.Now(),
		EndAt:      time.Now().Add(time.Hour),
		Capacity:   1,
		VenueID:    999,
		CategoryID: fx.category.ID,
	})
	if !storage.IsForeignKey(err) {
		t.Fatalf("expected foreign key error, got %v", err)
	}
}

func TestGetEventExpandsRelations(t *testing.T) {
	store := openTempStore(t)
	fx := seedFixture(t, store, 10)

	got, err := store.GetEvent(context.Background(), fx.event.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got.Venue == nil || got.Venue.Name != "Main Hall" {
		t.Fatalf("expected venue expanded, got %+v", got.Venue)
	}
	if got.Category == nil || got.Category.Name != "Workshop" {
		t.Fatalf("expected category expanded, got %+v", got.Category)
	}
	if got.Description != nil {
		t.Fatalf("expected nil description, got %q", *got.Description)
	}
}

func TestListEventsFilters(t *testing.T) {
	store := openTempStore(t)
	fx := seedFixture(t, store, 10)
	ctx := context.Background()

	other, err := store.CreateCategory(ctx, models.Category{Name: "Talk"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	for i, title := range []string{"Evening Talk", "100%_literal", "workshop advanced"} {
		categoryID := other.ID
		if i == 2 {
			categoryID = fx.category.ID
		}
		if _, err := store.CreateEvent(ctx, models.Event{
			Title:      title,
			StartAt:    base.AddDate(0, 0, i),
			EndAt:      base.AddDate(0, 0, i).Add(time.Hour),
			Capacity:   5,
			VenueID:    fx.venue.ID,
			CategoryID: categoryID,
		}); err != nil {
			t.Fatalf("create event %q: %v", title, err)
		}
	}

	page := storage.PageNumber(1, storage.DefaultPageSize)

	all, err := store.ListEvents(ctx, storage.EventFilter{}, page)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(all) != 4 || all[0].Title != "Evening Talk" || all[3].Title != "Go Workshop" {
		t.Fatalf("expected 4 events ordered by start, got %+v", all)
	}

	work, err := store.ListEvents(ctx, storage.EventFilter{Title: "Work"}, page)
	if err != nil {
		t.Fatalf("list events q: %v", err)
	}
	if len(work) != 2 {
		t.Fatalf("expected 2 events matching Work, got %d", len(work))
	}

	literal, err := store.ListEvents(ctx, storage.EventFilter{Title: "%_"}, page)
	if err != nil {
		t.Fatalf("list events literal: %v", err)
	}
	if len(literal) != 1 || literal[0].Title != "100%_literal" {
		t.Fatalf("expected wildcard characters to match literally, got %+v", literal)
	}

	byCategory, err := store.ListEvents(ctx, storage.EventFilter{CategoryID: fx.category.ID, Title: "work"}, page)
	if err != nil {
		t.Fatalf("list events by category: %v", err)
	}
	if len(byCategory) != 2 {
		t.Fatalf("expected 2 events in category, got %d", len(byCategory))
	}

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 2)
	ranged, err := store.ListEvents(ctx, storage.EventFilter{From: &from, To: &to}, page)
	if err != nil {
		t.Fatalf("list events range: %v", err)
	}
	if len(ranged) != 2 || ranged[0].Title != "100%_literal" || ranged[1].Title != "workshop advanced" {
		t.Fatalf("expected inclusive range of 2 events, got %+v", ranged)
	}
}

func TestListEventsTitleSearchFoldsUnicode(t *testing.T) {
	store := openTempStore(t)
	fx := seedFixture(t, store, 10)
	ctx := context.Background()

	start := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	if _, err := store.CreateEvent(ctx, models.Event{
		Title:      "Çalıştay Özel",
		StartAt:    start,
		EndAt:      start.Add(time.Hour),
		Capacity:   5,
		VenueID:    fx.venue.ID,
		CategoryID: fx.category.ID,
	}); err != nil {
		t.Fatalf("create event: %v", err)
	}

	page := storage.PageNumber(1, storage.DefaultPageSize)
	for _, q := range []string{"çalış", "ÇALı", "ÖZEL", "özel", "y ö"} {
		events, err := store.ListEvents(ctx, storage.EventFilter{Title: q}, page)
		if err != nil {
			t.Fatalf("list events %q: %v", q, err)
		}
		if len(events) != 1 || events[0].Title != "Çalıştay Özel" {
			t.Fatalf("expected %q to match, got %+v", q, events)
		}
	}
}

func TestRegistrationLifecycle(t *testing.T) {
	store := openTempStore(t)
	fx := seedFixture(t, store, 1)
	ctx := context.Background()

	reg, err := store.CreateRegistration(ctx, models.Registration{UserID: fx.user.ID, EventID: fx.event.ID})
	if err != nil {
		t.Fatalf("create registration: %v", err)
	}
	if reg.User == nil || reg.User.Email != "a@x.com" {
		t.Fatalf("expected user expanded, got %+v", reg.User)
	}
	if reg.Event == nil || reg.Event.Venue == nil {
		t.Fatalf("expected event expanded, got %+v", reg.Event)
	}

	other, err := store.CreateUser(ctx, models.User{Email: "b@x.com", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := store.CreateRegistration(ctx, models.Registration{UserID: other.ID, EventID: fx.event.ID}); !errors.Is(err, storage.ErrEventFull) {
		t.Fatalf("expected event full, got %v", err)
	}
	if _, err := store.CreateRegistration(ctx, models.Registration{UserID: other.ID, EventID: 999}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected event not found, got %v", err)
	}

	found, err := store.FindRegistration(ctx, fx.user.ID, fx.event.ID)
	if err != nil {
		t.Fatalf("find registration: %v", err)
	}
	if found.ID != reg.ID {
		t.Fatalf("expected registration %d, got %d", reg.ID, found.ID)
	}

	if err := store.DeleteRegistration(ctx, reg.ID); err != nil {
		t.Fatalf("delete registration: %v", err)
	}
	if _, err := store.FindRegistration(ctx, fx.user.ID, fx.event.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestDuplicateRegistrationIsUniqueViolation(t *testing.T) {
	store := openTempStore(t)
	fx := seedFixture(t, store, 5)
	ctx := context.Background()

	if _, err := store.CreateRegistration(ctx, models.Registration{UserID: fx.user.ID, EventID: fx.event.ID}); err != nil {
		t.Fatalf("create registration: %v", err)
	}
	_, err := store.CreateRegistration(ctx, models.Registration{UserID: fx.user.ID, EventID: fx.event.ID})
	if _, ok := storage.IsUnique(err); !ok {
		t.Fatalf("expected unique violation, got %v", err)
	}
	n, err := store.CountRegistrations(ctx, fx.event.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 registration row, got %d", n)
	}
}

func TestRegistrationOrdering(t *testing.T) {
	store := openTempStore(t)
	fx := seedFixture(t, store, 5)
	ctx := context.Background()

	second, err := store.CreateEvent(ctx, models.Event{
		Title:      "Second",
		StartAt:    fx.event.StartAt.Add(24 * time.Hour),
		EndAt:      fx.event.EndAt.Add(24 * time.Hour),
		Capacity:   5,
		VenueID:    fx.venue.ID,
		CategoryID: fx.category.ID,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	other, err := store.CreateUser(ctx, models.User{Email: "b@x.com", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	t0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	inputs := []models.Registration{
		{UserID: fx.user.ID, EventID: fx.event.ID, CreatedAt: t0},
		{UserID: fx.user.ID, EventID: second.ID, CreatedAt: t0.Add(time.Minute)},
		{UserID: other.ID, EventID: fx.event.ID, CreatedAt: t0.Add(2 * time.Minute)},
	}
	for _, in := range inputs {
		if _, err := store.CreateRegistration(ctx, in); err != nil {
			t.Fatalf("create registration: %v", err)
		}
	}

	mine, err := store.ListRegistrationsByUser(ctx, fx.user.ID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(mine) != 2 || mine[0].EventID != second.ID || mine[1].EventID != fx.event.ID {
		t.Fatalf("expected newest first, got %+v", mine)
	}
	if mine[0].Event == nil || mine[0].Event.Category == nil || mine[0].User != nil {
		t.Fatalf("expected only event expanded, got %+v", mine[0])
	}

	forEvent, err := store.ListRegistrationsByEvent(ctx, fx.event.ID)
	if err != nil {
		t.Fatalf("list by event: %v", err)
	}
	if len(forEvent) != 2 || forEvent[0].UserID != fx.user.ID || forEvent[1].UserID != other.ID {
		t.Fatalf("expected oldest first, got %+v", forEvent)
	}
	if forEvent[0].User == nil || forEvent[0].Event != nil {
		t.Fatalf("expected only user expanded, got %+v", forEvent[0])
	}
}

func TestDeleteEventCascadesRegistrations(t *testing.T) {
	store := openTempStore(t)
	fx := seedFixture(t, store, 5)
	ctx := context.Background()

	reg, err := store.CreateRegistration(ctx, models.Registration{UserID: fx.user.ID, EventID: fx.event.ID})
	if err != nil {
		t.Fatalf("create registration: %v", err)
	}
	if err := store.DeleteEvent(ctx, fx.event.ID); err != nil {
		t.Fatalf("delete event: %v", err)
	}
	if _, err := store.GetRegistration(ctx, reg.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected registration removed with event, got %v", err)
	}
}
