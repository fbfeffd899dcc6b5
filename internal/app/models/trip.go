package models

import (
	"time"

	"github.com/google/uuid"
)

// TripContext is the TTL-bound staging state for an in-progress trip,
// mutated field by field before it is finalized into a Schedule.
type TripContext struct {
	Province       string `json:"province,omitempty"`
	StartDate      string `json:"start_date,omitempty"`
	EndDate        string `json:"end_date,omitempty"`
	Budget         string `json:"budget,omitempty"`
	SelectedFlight string `json:"selected_flight,omitempty"`
	SelectedHotel  string `json:"selected_hotel,omitempty"`
}

// CreateScheduleRequest is the planning request contract.
type CreateScheduleRequest struct {
	UserID     uuid.UUID      `json:"user_id"`
	Name       string         `json:"name"`
	Province   string         `json:"province" binding:"required"`
	StartDate  string         `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate    string         `json:"end_date" binding:"required"`   // YYYY-MM-DD
	FlightInfo string         `json:"flight_info,omitempty"`
	HotelInfo  *HotelSnapshot `json:"hotel_info,omitempty"`
}

// CreateScheduleResponse is the planning response contract.
type CreateScheduleResponse struct {
	Schedule  *Schedule      `json:"schedule,omitempty"`
	Hotel     *HotelSnapshot `json:"hotel,omitempty"`
	Flight    string         `json:"flight,omitempty"`
	Province  string         `json:"province"`
	Timestamp time.Time      `json:"timestamp"`
	// Message carries the descriptive "no matches" signal when nothing
	// could be planned for the requested location.
	Message string `json:"message,omitempty"`
}
