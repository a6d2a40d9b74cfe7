package models

import "time"

// Session lifecycle states. "completed" is never stored; it is derived
// read-side when every member has swiped every restaurant.
const (
	SessionWaiting   = "waiting"
	SessionActive    = "active"
	SessionCompleted = "completed"
)

// Friendship states.
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
	FriendshipDeclined = "declined"
)

// Profile represents a registered user
type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	AvatarURL    *string   `json:"avatar_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Friendship is a directed request edge between two profiles
type Friendship struct {
	ID          string    `json:"id"`
	RequesterID string    `json:"requester_id"`
	AddresseeID string    `json:"addressee_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FriendWithProfile pairs a friendship with the other party's profile
type FriendWithProfile struct {
	Friendship
	Profile Profile `json:"profile"`
}

// Session represents a dining decision round
type Session struct {
	ID             string    `json:"id"`
	CreatedBy      string    `json:"created_by"`
	Name           string    `json:"name"`
	Status         string    `json:"status"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	RadiusMeters   int       `json:"radius_meters"`
	PriceFilter    []string  `json:"price_filter"`
	CategoryFilter *string   `json:"category_filter"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SessionMember is a membership edge between a session and a profile
type SessionMember struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	JoinedAt  time.Time `json:"joined_at"`
}

// MemberWithProfile pairs a membership with the member's profile
type MemberWithProfile struct {
	SessionMember
	Profile Profile `json:"profile"`
}

// Category is a restaurant category tag from the places API
type Category struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}

// Restaurant is a candidate attached to a session at start time,
// immutable thereafter
type Restaurant struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"session_id"`
	PlaceID     string     `json:"place_id"`
	Name        string     `json:"name"`
	ImageURL    *string    `json:"image_url"`
	Rating      float64    `json:"rating"`
	ReviewCount int        `json:"review_count"`
	Price       *string    `json:"price"`
	Categories  []Category `json:"categories"`
	Address     string     `json:"address"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Phone       string     `json:"phone"`
	MapsURL     string     `json:"maps_url"`
	Position    int        `json:"-"`
}

// Swipe is one member's verdict on one restaurant. The ledger is
// append-only: at most one row per (session, user, restaurant).
type Swipe struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	RestaurantID string    `json:"restaurant_id"`
	Liked        bool      `json:"liked"`
	CreatedAt    time.Time `json:"created_at"`
}

// Match records a restaurant liked by every member of a session
type Match struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	RestaurantID string    `json:"restaurant_id"`
	MatchedAt    time.Time `json:"matched_at"`
}

// MatchWithRestaurant pairs a match with its restaurant detail
type MatchWithRestaurant struct {
	Match
	Restaurant Restaurant `json:"restaurant"`
}

// RecentMatch is a cross-session match summary for a user's history feed
type RecentMatch struct {
	MatchID            string    `json:"match_id"`
	SessionID          string    `json:"session_id"`
	SessionName        string    `json:"session_name"`
	RestaurantName     string    `json:"restaurant_name"`
	RestaurantImageURL *string   `json:"restaurant_image_url"`
	RestaurantRating   *float64  `json:"restaurant_rating"`
	MatchedAt          time.Time `json:"matched_at"`
}
