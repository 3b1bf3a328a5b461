package service

import (
	"context"

	"dormride/internal/domain"
	"dormride/internal/repository"
)

// CreateBookingRequest contains the parameters for reserving a seat.
type CreateBookingRequest struct {
	RideID            int64
	PassengerID       int64
	PassengerName     string
	PassengerUsername string // Optional
}

// CreateBooking reserves one seat on an active ride.
//
// A ride that becomes full stays active: its driver keeps seeing it, and
// passenger listings hide it through the free-seat filter.
func (s *RideService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*domain.Booking, error) {
	if req.RideID <= 0 {
		return nil, ErrInvalidRideID
	}
	if req.PassengerID == 0 {
		return nil, ErrInvalidPassengerID
	}

	var (
		created *domain.Booking
		ride    *domain.Ride
	)
	err := s.mutate(ctx, func(ds *domain.Dataset) error {
		r := ds.FindRide(req.RideID)
		if r == nil || !r.IsActive {
			return repository.ErrNotFound
		}
		if r.AvailableSeats <= 0 {
			return ErrNoSeatsAvailable
		}

		booking := &domain.Booking{
			ID:                ds.AllocateBookingID(),
			RideID:            r.ID,
			PassengerID:       req.PassengerID,
			PassengerName:     req.PassengerName,
			PassengerUsername: req.PassengerUsername,
			CreatedAt:         s.config.Clock(),
			Status:            domain.BookingStatusPending,
		}
		ds.Bookings = append(ds.Bookings, booking)
		ds.Recount(r)

		b := *booking
		created = &b
		ride = r.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "booking created",
		"booking_id", created.ID, "ride_id", ride.ID, "passenger_id", created.PassengerID, "available_seats", ride.AvailableSeats)

	if s.notificationService != nil {
		if err := s.notificationService.NotifyBookingCreated(ctx, ride, created); err != nil {
			s.logger.ErrorContext(ctx, "notify booking created failed", "booking_id", created.ID, "error", err)
		}
	}
	return created, nil
}

// ListBookingsByRide returns every booking on a ride in insertion order.
func (s *RideService) ListBookingsByRide(ctx context.Context, rideID int64) []*domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := make([]*domain.Booking, 0)
	for _, b := range s.data.BookingsForRide(rideID) {
		c := *b
		bookings = append(bookings, &c)
	}
	return bookings
}

// ListBookingsByUser returns a passenger's bookings joined with the display
// fields of their rides.
func (s *RideService) ListBookingsByUser(ctx context.Context, passengerID int64) []domain.BookingView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]domain.BookingView, 0)
	for _, b := range s.data.Bookings {
		if b.PassengerID != passengerID {
			continue
		}
		views = append(views, domain.NewBookingView(b, s.data.FindRide(b.RideID)))
	}
	return views
}

// AllBookings returns every live booking.
func (s *RideService) AllBookings(ctx context.Context) []*domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := make([]*domain.Booking, 0, len(s.data.Bookings))
	for _, b := range s.data.Bookings {
		c := *b
		bookings = append(bookings, &c)
	}
	return bookings
}

// DeleteBooking cancels a booking and frees its seat. Returns the number
// of bookings removed, so repeated calls with the same id return 0.
func (s *RideService) DeleteBooking(ctx context.Context, id int64) (int, error) {
	var (
		removed *domain.Booking
		ride    *domain.Ride
	)
	err := s.mutate(ctx, func(ds *domain.Dataset) error {
		b := ds.FindBooking(id)
		if b == nil {
			return errNoChange
		}
		c := *b
		removed = &c
		ds.RemoveBooking(id)
		if r := ds.FindRide(b.RideID); r != nil {
			ride = r.Clone()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if removed == nil {
		return 0, nil
	}

	s.logger.InfoContext(ctx, "booking cancelled", "booking_id", id, "ride_id", removed.RideID)

	if s.notificationService != nil && ride != nil && ride.IsActive {
		if err := s.notificationService.NotifyBookingCancelled(ctx, ride, removed); err != nil {
			s.logger.ErrorContext(ctx, "notify booking cancelled failed", "booking_id", id, "error", err)
		}
	}
	return 1, nil
}
