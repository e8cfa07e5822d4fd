package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"eventhub-api/internal/models"
	"eventhub-api/internal/storage"
)

func TestConcurrentRegistrationsRespectCapacity(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	const (
		totalCapacity = 5
		numRequests   = 100
	)

	venue, err := store.CreateVenue(ctx, models.Venue{Name: "Arena", Address: "2 Stadium Rd", Capacity: 1000})
	if err != nil {
		t.Fatalf("create venue: %v", err)
	}
	category, err := store.CreateCategory(ctx, models.Category{Name: "Conference"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	event, err := store.CreateEvent(ctx, models.Event{
		Title:      "The Big GopherCon",
		StartAt:    start,
		EndAt:      start.Add(8 * time.Hour),
		Capacity:   totalCapacity,
		VenueID:    venue.ID,
		CategoryID: category.ID,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	userIDs := make([]int64, numRequests)
	for i := range userIDs {
		u, err := store.CreateUser(ctx, models.User{
			Email:        fmt.Sprintf("gopher%d@example.com", i),
			PasswordHash: "hash",
		})
		if err != nil {
			t.Fatalf("create user %d: %v", i, err)
		}
		userIDs[i] = u.ID
	}

	var (
		successCount int32
		fullCount    int32
		errorCount   int32
		wg           sync.WaitGroup
	)
	wg.Add(numRequests)

	t.Logf("firing %d concurrent registrations for %d seats", numRequests, totalCapacity)
	for i := 0; i < numRequests; i++ {
		go func(userID int64) {
			defer wg.Done()
			_, err := store.CreateRegistration(ctx, models.Registration{UserID: userID, EventID: event.ID})
			switch {
			case err == nil:
				atomic.AddInt32(&successCount, 1)
			case errors.Is(err, storage.ErrEventFull):
				atomic.AddInt32(&fullCount, 1)
			default:
				t.Logf("unexpected error for user %d: %v", userID, err)
				atomic.AddInt32(&errorCount, 1)
			}
		}(userIDs[i])
	}
	wg.Wait()

	t.Logf("results: success=%d full=%d errors=%d", successCount, fullCount, errorCount)

	if successCount != totalCapacity {
		t.Errorf("expected exactly %d successes, got %d", totalCapacity, successCount)
	}
	if fullCount != numRequests-totalCapacity {
		t.Errorf("expected exactly %d full errors, got %d", numRequests-totalCapacity, fullCount)
	}
	if errorCount != 0 {
		t.Errorf("expected 0 unexpected errors, got %d", errorCount)
	}

	var rows int
	if err := store.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM registrations WHERE event_id = ?", event.ID).Scan(&rows); err != nil {
		t.Fatalf("count registrations: %v", err)
	}
	if rows != totalCapacity {
		t.Errorf("expected %d registration rows, got %d", totalCapacity, rows)
	}
}
