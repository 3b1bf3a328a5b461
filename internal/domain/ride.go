package domain

import "time"

// Ride represents a trip posted by a driver.
//
// JSON names follow the persisted document layout so existing documents
// load without migration.
type Ride struct {
	ID               int64     `json:"id"`
	DriverID         int64     `json:"driver_telegram_id"`
	DriverName       string    `json:"driver_name"`
	Route            string    `json:"route"`
	DepartureDate    string    `json:"departure_date,omitempty"` // YYYY-MM-DD, optional
	DepartureTime    string    `json:"departure_time"`           // HH:MM
	TotalSeats       int       `json:"total_seats"`
	AvailableSeats   int       `json:"available_seats"`
	BookingsCount    int       `json:"bookings_count"`
	Price            float64   `json:"price"`
	CarInfo          string    `json:"car_info,omitempty"`
	CarNumber        string    `json:"car_number,omitempty"`
	TelegramUsername string    `json:"telegram_username,omitempty"`
	CarPhoto         string    `json:"car_photo,omitempty"`
	Description      string    `json:"description,omitempty"`
	LocationLat      *float64  `json:"location_lat"`
	LocationLon      *float64  `json:"location_lon"`
	CreatedAt        time.Time `json:"created_at"`
	IsActive         bool      `json:"is_active"`
}

// Clone returns a deep copy of the ride.
func (r *Ride) Clone() *Ride {
	c := *r
	if r.LocationLat != nil {
		lat := *r.LocationLat
		c.LocationLat = &lat
	}
	if r.LocationLon != nil {
		lon := *r.LocationLon
		c.LocationLon = &lon
	}
	return &c
}

// Passenger identifies a passenger holding a booking.
type Passenger struct {
	ID       int64  `json:"telegram_id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
}
