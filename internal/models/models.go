// Package models defines the persisted entities of the registration platform.
package models

import "time"

// Role is the authorization role carried by a user and its identity token.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleStudent Role = "STUDENT"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// User is an account record. PasswordHash never leaves the service layer;
// use Public before serializing.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// PublicUser is a User without credential material.
type PublicUser struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips the password hash.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// Venue is a physical location hosting events.
type Venue struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"createdAt"`
}

// Category groups events by kind.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Event is a scheduled occurrence at a venue. Venue and Category are
// populated when the event is read back from storage.
type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	StartAt     time.Time `json:"startAt"`
	EndAt       time.Time `json:"endAt"`
	Capacity    int       `json:"capacity"`
	VenueID     int64     `json:"venueId"`
	CategoryID  int64     `json:"categoryId"`
	CreatedAt   time.Time `json:"createdAt"`
	Venue       *Venue    `json:"venue,omitempty"`
	Category    *Category `json:"category,omitempty"`
}

// Registration joins a user to an event.
type Registration struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"userId"`
	EventID   int64       `json:"eventId"`
	CreatedAt time.Time   `json:"createdAt"`
	User      *PublicUser `json:"user,omitempty"`
	Event     *Event      `json:"event,omitempty"`
}
