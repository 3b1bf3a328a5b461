package service

import "errors"

var (
	// ErrInvalidDriverID is returned when the driver id is missing.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidRoute is returned when the route is empty.
	ErrInvalidRoute = errors.New("route is required")

	// ErrInvalidDepartureTime is returned when the departure time is empty.
	ErrInvalidDepartureTime = errors.New("departure time is required")

	// ErrInvalidSeats is returned when the seat count is not positive.
	ErrInvalidSeats = errors.New("seat count must be positive")

	// ErrInvalidRideID is returned when a booking names a non-positive ride id.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidPassengerID is returned when the passenger id is missing.
	ErrInvalidPassengerID = errors.New("invalid passenger id")

	// ErrNoSeatsAvailable is returned when booking a ride with no free seats.
	ErrNoSeatsAvailable = errors.New("no seats available")

	// ErrPersistence wraps failures of the underlying dataset store.
	ErrPersistence = errors.New("dataset store failure")

	// ErrSweepInProgress is returned when a sweep is requested while another is running.
	ErrSweepInProgress = errors.New("expiry sweep already in progress")
)
