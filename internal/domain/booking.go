package domain

import "time"

// BookingStatus represents the current status of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed" // reserved, never assigned
)

// Booking represents a passenger's reservation of one seat on a ride.
type Booking struct {
	ID                int64         `json:"id"`
	RideID            int64         `json:"ride_id"`
	PassengerID       int64         `json:"passenger_telegram_id"`
	PassengerName     string        `json:"passenger_name"`
	PassengerUsername string        `json:"passenger_username,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	Status            BookingStatus `json:"status"`
}

// Passenger returns the identity of the booking holder.
func (b *Booking) Passenger() Passenger {
	return Passenger{
		ID:       b.PassengerID,
		Name:     b.PassengerName,
		Username: b.PassengerUsername,
	}
}

// BookingView is a booking joined with the display fields of its ride.
// Ride fields are zero when the ride no longer exists.
type BookingView struct {
	Booking
	RideRoute      string   `json:"ride_route"`
	RideDate       string   `json:"ride_date,omitempty"`
	RideTime       string   `json:"ride_time"`
	RidePrice      float64  `json:"ride_price"`
	DriverName     string   `json:"driver_name"`
	DriverUsername string   `json:"driver_username"`
	CarInfo        string   `json:"car_info"`
	CarNumber      string   `json:"car_number"`
	Description    string   `json:"description"`
	LocationLat    *float64 `json:"location_lat"`
	LocationLon    *float64 `json:"location_lon"`
}

// NewBookingView joins a booking with its ride. ride may be nil.
func NewBookingView(b *Booking, ride *Ride) BookingView {
	view := BookingView{Booking: *b}
	if ride == nil {
		return view
	}
	view.RideRoute = ride.Route
	view.RideDate = ride.DepartureDate
	view.RideTime = ride.DepartureTime
	view.RidePrice = ride.Price
	view.DriverName = ride.DriverName
	view.DriverUsername = ride.TelegramUsername
	view.CarInfo = ride.CarInfo
	view.CarNumber = ride.CarNumber
	view.Description = ride.Description
	c := ride.Clone()
	view.LocationLat = c.LocationLat
	view.LocationLon = c.LocationLon
	return view
}
