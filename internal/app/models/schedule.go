package models

import (
	"time"

	"github.com/google/uuid"
)

// Schedule is a persisted trip plan. Every saved schedule has at least one
// day and exactly one share link.
type Schedule struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	Days      []Day          `json:"days"`
	Hotel     *HotelSnapshot `json:"hotel,omitempty"`
	ShareLink ShareLink      `json:"share_link"`
}

// Day is one calendar day of a schedule, ordered by DayIndex from 0.
type Day struct {
	ID         uuid.UUID       `json:"id"`
	ScheduleID uuid.UUID       `json:"schedule_id"`
	DayIndex   int             `json:"day_index"`
	Date       string          `json:"date"` // ISO calendar date, YYYY-MM-DD
	Items      []ItineraryItem `json:"items"`
}

// ItineraryItem is one slot within a day. At least one of Food or Place
// must be set; items with neither are dropped during assembly.
type ItineraryItem struct {
	ID         uuid.UUID   `json:"id"`
	DayID      uuid.UUID   `json:"day_id"`
	ScheduleID uuid.UUID   `json:"schedule_id"`
	Order      int         `json:"order"`
	Timeslot   string      `json:"timeslot,omitempty"`
	Food       *FoodEntry  `json:"food,omitempty"`
	Place      *PlaceEntry `json:"place,omitempty"`
}

// FoodEntry is the food half of an itinerary item.
type FoodEntry struct {
	Title   string  `json:"title"`
	Rating  float64 `json:"rating"`
	Price   string  `json:"price,omitempty"`
	Address string  `json:"address,omitempty"`
	Phone   string  `json:"phone,omitempty"`
	Link    string  `json:"link,omitempty"`
	Image   string  `json:"image,omitempty"`
	Time    string  `json:"time,omitempty"`
}

// PlaceEntry is the place half of an itinerary item.
type PlaceEntry struct {
	Title       string  `json:"title"`
	Rating      float64 `json:"rating"`
	Description string  `json:"description,omitempty"`
	Address     string  `json:"address,omitempty"`
	Image       string  `json:"image,omitempty"`
	Link        string  `json:"link,omitempty"`
	Time        string  `json:"time,omitempty"`
}

// HotelSnapshot is a denormalized copy of a hotel record taken at save
// time. It is not a live reference into the hotel store.
type HotelSnapshot struct {
	Name           string    `json:"name"`
	Address        string    `json:"address,omitempty"`
	Description    string    `json:"description,omitempty"`
	Price          float64   `json:"price"`
	HotelClass     float64   `json:"hotel_class"`
	ImgOrigin      string    `json:"img_origin,omitempty"`
	LocationRating float64   `json:"location_rating"`
	Link           string    `json:"link,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ShareLink grants unauthenticated read access to a schedule. Tokens are
// random UUIDs, never derived from content, and never recycled.
type ShareLink struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity is a user activity scanned by the reminder job.
type Activity struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Title        string    `json:"title"`
	ActivityDate string    `json:"activity_date"` // YYYY-MM-DD
	Email        string    `json:"email"`
}
