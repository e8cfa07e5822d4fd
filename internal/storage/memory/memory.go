// Package memory provides an in-process storage.Store for tests and local
// experiments. Data lives only as long as the Store value.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"eventhub-api/internal/models"
	"eventhub-api/internal/storage"
)

// Store keeps every table in maps guarded by a single mutex.
type Store struct {
	mu sync.Mutex

	now    func() time.Time
	nextID int64

	users         map[int64]models.User
	venues        map[int64]models.Venue
	categories    map[int64]models.Category
	events        map[int64]models.Event
	registrations map[int64]models.Registration
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		now:           func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		users:         make(map[int64]models.User),
		venues:        make(map[int64]models.Venue),
		categories:    make(map[int64]models.Category),
		events:        make(map[int64]models.Event),
		registrations: make(map[int64]models.Registration),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t.UTC()
}

func unique(field string) error {
	return &storage.ConstraintError{Kind: storage.ConstraintUnique, Field: field}
}

func foreignKey() error {
	return &storage.ConstraintError{Kind: storage.ConstraintForeignKey}
}

// window applies a page to ids sorted ascending.
func window(ids []int64, page storage.Page) []int64 {
	if page.Offset >= len(ids) {
		return nil
	}
	end := len(ids)
	if page.Limit > 0 && page.Offset+page.Limit < end {
		end = page.Offset + page.Limit
	}
	return ids[page.Offset:end]
}

func sortedKeys[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Users

func (s *Store) CreateUser(_ context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return models.User{}, unique("email")
		}
	}
	if u.Role == "" {
		u.Role = models.RoleStudent
	}
	u.ID = s.id()
	u.CreatedAt = s.stamp(u.CreatedAt)
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context, page storage.Page) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := []models.User{}
	for _, id := range window(sortedKeys(s.users), page) {
		users = append(users, s.users[id])
	}
	return users, nil
}

func (s *Store) UpdateUserRole(_ context.Context, id int64, role models.Role) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	u.Role = role
	s.users[id] = u
	return u, nil
}

// Venues

func (s *Store) CreateVenue(_ context.Context, v models.Venue) (models.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v.ID = s.id()
	v.CreatedAt = s.stamp(v.CreatedAt)
	s.venues[v.ID] = v
	return v, nil
}

func (s *Store) GetVenue(_ context.Context, id int64) (models.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.venues[id]
	if !ok {
		return models.Venue{}, storage.ErrNotFound
	}
	return v, nil
}

func (s *Store) ListVenues(_ context.Context, page storage.Page) ([]models.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	venues := []models.Venue{}
	for _, id := range window(sortedKeys(s.venues), page) {
		venues = append(venues, s.venues[id])
	}
	return venues, nil
}

func (s *Store) UpdateVenue(_ context.Context, v models.Venue) (models.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.venues[v.ID]
	if !ok {
		return models.Venue{}, storage.ErrNotFound
	}
	v.CreatedAt = existing.CreatedAt
	s.venues[v.ID] = v
	return v, nil
}

func (s *Store) DeleteVenue(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.venues[id]; !ok {
		return storage.ErrNotFound
	}
	for _, e := range s.events {
		if e.VenueID == id {
			return foreignKey()
		}
	}
	delete(s.venues, id)
	return nil
}

// Categories

func (s *Store) CreateCategory(_ context.Context, c models.Category) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.categoryNameTaken(c.Name, 0) {
		return models.Category{}, unique("name")
	}
	c.ID = s.id()
	c.CreatedAt = s.stamp(c.CreatedAt)
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) categoryNameTaken(name string, except int64) bool {
	for id, c := range s.categories {
		if id != except && c.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) GetCategory(_ context.Context, id int64) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return models.Category{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCategories(_ context.Context, page storage.Page) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories := []models.Category{}
	for _, id := range window(sortedKeys(s.categories), page) {
		categories = append(categories, s.categories[id])
	}
	return categories, nil
}

func (s *Store) UpdateCategory(_ context.Context, c models.Category) (models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[c.ID]
	if !ok {
		return models.Category{}, storage.ErrNotFound
	}
	if s.categoryNameTaken(c.Name, c.ID) {
		return models.Category{}, unique("name")
	}
	c.CreatedAt = existing.CreatedAt
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return storage.ErrNotFound
	}
	for _, e := range s.events {
		if e.CategoryID == id {
			return foreignKey()
		}
	}
	delete(s.categories, id)
	return nil
}

// Events

// expand attaches copies of the venue and category. Callers hold mu.
func (s *Store) expand(e models.Event) models.Event {
	v := s.venues[e.VenueID]
	c := s.categories[e.CategoryID]
	e.Venue = &v
	e.Category = &c
	return e
}

func (s *Store) checkEventRefs(e models.Event) error {
	if _, ok := s.venues[e.VenueID]; !ok {
		return foreignKey()
	}
	if _, ok := s.categories[e.CategoryID]; !ok {
		return foreignKey()
	}
	return nil
}

func (s *Store) CreateEvent(_ context.Context, e models.Event) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEventRefs(e); err != nil {
		return models.Event{}, err
	}
	e.ID = s.id()
	e.CreatedAt = s.stamp(e.CreatedAt)
	e.Venue, e.Category = nil, nil
	s.events[e.ID] = e
	return s.expand(e), nil
}

func (s *Store) GetEvent(_ context.Context, id int64) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return models.Event{}, storage.ErrNotFound
	}
	return s.expand(e), nil
}

func matches(e models.Event, f storage.EventFilter) bool {
	if f.Title != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Title)) {
		return false
	}
	if f.CategoryID != 0 && e.CategoryID != f.CategoryID {
		return false
	}
	if f.VenueID != 0 && e.VenueID != f.VenueID {
		return false
	}
	if f.From != nil && e.StartAt.Before(*f.From) {
		return false
	}
	if f.To != nil && e.StartAt.After(*f.To) {
		return false
	}
	return true
}

func (s *Store) ListEvents(_ context.Context, filter storage.EventFilter, page storage.Page) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.Event
	for _, e := range s.events {
		if matches(e, filter) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].StartAt.Equal(matched[j].StartAt) {
			return matched[i].StartAt.Before(matched[j].StartAt)
		}
		return matched[i].ID < matched[j].ID
	})

	events := []models.Event{}
	if page.Offset >= len(matched) {
		return events, nil
	}
	end := len(matched)
	if page.Limit > 0 && page.Offset+page.Limit < end {
		end = page.Offset + page.Limit
	}
	for _, e := range matched[page.Offset:end] {
		events = append(events, s.expand(e))
	}
	return events, nil
}

func (s *Store) UpdateEvent(_ context.Context, e models.Event) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.events[e.ID]
	if !ok {
		return models.Event{}, storage.ErrNotFound
	}
	if err := s.checkEventRefs(e); err != nil {
		return models.Event{}, err
	}
	e.CreatedAt = existing.CreatedAt
	e.Venue, e.Category = nil, nil
	s.events[e.ID] = e
	return s.expand(e), nil
}

func (s *Store) DeleteEvent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.events, id)
	for rid, r := range s.registrations {
		if r.EventID == id {
			delete(s.registrations, rid)
		}
	}
	return nil
}

func (s *Store) CountEventsByVenue(_ context.Context, venueID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.events {
		if e.VenueID == venueID {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountEventsByCategory(_ context.Context, categoryID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.events {
		if e.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

// Registrations

func (s *Store) countRegistrations(eventID int64) int {
	n := 0
	for _, r := range s.registrations {
		if r.EventID == eventID {
			n++
		}
	}
	return n
}

func (s *Store) CountRegistrations(_ context.Context, eventID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countRegistrations(eventID), nil
}

func (s *Store) FindRegistration(_ context.Context, userID, eventID int64) (models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.registrations {
		if r.UserID == userID && r.EventID == eventID {
			return r, nil
		}
	}
	return models.Registration{}, storage.ErrNotFound
}

func (s *Store) GetRegistration(_ context.Context, id int64) (models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.registrations[id]
	if !ok {
		return models.Registration{}, storage.ErrNotFound
	}
	return r, nil
}

// CreateRegistration checks capacity and inserts under one lock.
func (s *Store) CreateRegistration(_ context.Context, r models.Registration) (models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[r.EventID]
	if !ok {
		return models.Registration{}, storage.ErrNotFound
	}
	u, ok := s.users[r.UserID]
	if !ok {
		return models.Registration{}, foreignKey()
	}
	if s.countRegistrations(e.ID) >= e.Capacity {
		return models.Registration{}, storage.ErrEventFull
	}
	for _, existing := range s.registrations {
		if existing.UserID == r.UserID && existing.EventID == r.EventID {
			return models.Registration{}, unique("user_id, event_id")
		}
	}

	r.ID = s.id()
	r.CreatedAt = s.stamp(r.CreatedAt)
	r.User, r.Event = nil, nil
	s.registrations[r.ID] = r

	public := u.Public()
	expanded := s.expand(e)
	r.User = &public
	r.Event = &expanded
	return r, nil
}

func (s *Store) DeleteRegistration(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.registrations[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.registrations, id)
	return nil
}

func (s *Store) ListRegistrationsByUser(_ context.Context, userID int64) ([]models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	regs := []models.Registration{}
	for _, r := range s.registrations {
		if r.UserID == userID {
			e := s.expand(s.events[r.EventID])
			r.Event = &e
			regs = append(regs, r)
		}
	}
	sort.Slice(regs, func(i, j int) bool {
		if !regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].CreatedAt.After(regs[j].CreatedAt)
		}
		return regs[i].ID > regs[j].ID
	})
	return regs, nil
}

func (s *Store) ListRegistrationsByEvent(_ context.Context, eventID int64) ([]models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	regs := []models.Registration{}
	for _, r := range s.registrations {
		if r.EventID == eventID {
			public := s.users[r.UserID].Public()
			r.User = &public
			regs = append(regs, r)
		}
	}
	sort.Slice(regs, func(i, j int) bool {
		if !regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].CreatedAt.Before(regs[j].CreatedAt)
		}
		return regs[i].ID < regs[j].ID
	})
	return regs, nil
}
