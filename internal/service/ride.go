package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dormride/internal/domain"
	"dormride/internal/repository"
)

// errNoChange aborts a mutation without saving. It never leaves the package.
var errNoChange = errors.New("no change")

// RideServiceConfig contains tunables for the ride service.
type RideServiceConfig struct {
	Location    *time.Location   // zone departure dates and times are written in
	GracePeriod time.Duration    // how long after departure a ride stays listed
	Clock       func() time.Time // current time source
}

// DefaultRideServiceConfig returns the default ride service configuration.
func DefaultRideServiceConfig() RideServiceConfig {
	return RideServiceConfig{
		Location:    time.Local,
		GracePeriod: 20 * time.Minute,
		Clock:       time.Now,
	}
}

// RideService owns the canonical in-memory dataset and is the only
// component allowed to change seat counts.
//
// Every mutation holds the write lock across clone, mutate, save and swap,
// so the in-memory state only advances once the store accepted it.
type RideService struct {
	mu   sync.RWMutex
	data *domain.Dataset

	store               repository.DatasetStore
	notificationService *NotificationService
	logger              *slog.Logger
	config              RideServiceConfig
}

// NewRideService creates a new RideService with an empty dataset. Call Load
// before serving requests.
func NewRideService(
	store repository.DatasetStore,
	notificationService *NotificationService,
	logger *slog.Logger,
	config RideServiceConfig,
) *RideService {
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &RideService{
		data:                domain.NewDataset(),
		store:               store,
		notificationService: notificationService,
		logger:              logger.With("component", "ride_service"),
		config:              config,
	}
}

// Load reads the dataset from the store. When strict is false a load
// failure is logged and the service starts with an empty dataset.
func (s *RideService) Load(ctx context.Context, strict bool) error {
	ds, err := s.store.Load(ctx)
	if err != nil {
		if strict {
			return fmt.Errorf("%w: load: %w", ErrPersistence, err)
		}
		s.logger.ErrorContext(ctx, "load dataset failed, starting empty", "error", err)
		ds = domain.NewDataset()
	}
	ds.Normalize()

	s.mu.Lock()
	s.data = ds
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "dataset loaded", "rides", len(ds.Rides), "bookings", len(ds.Bookings))
	return nil
}

// mutate applies fn to a copy of the dataset and persists it. The copy
// replaces the canonical state only after a successful save. fn returning
// errNoChange skips the save and reports success.
func (s *RideService) mutate(ctx context.Context, fn func(ds *domain.Dataset) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}

	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("%w: save: %w", ErrPersistence, err)
	}
	s.data = next
	return nil
}

// CreateRideRequest contains the parameters for posting a ride.
type CreateRideRequest struct {
	DriverID         int64
	DriverName       string
	Route            string
	DepartureDate    string // Optional: YYYY-MM-DD
	DepartureTime    string
	Seats            int
	Price            float64
	CarInfo          string
	CarNumber        string
	TelegramUsername string
	CarPhoto         string
	Description      string
	LocationLat      *float64
	LocationLon      *float64
}

// validateCreateRequest validates the create ride request.
func validateCreateRequest(req CreateRideRequest) error {
	if req.DriverID == 0 {
		return ErrInvalidDriverID
	}

	if req.Route == "" {
		return ErrInvalidRoute
	}

	if req.DepartureTime == "" {
		return ErrInvalidDepartureTime
	}

	if req.Seats <= 0 {
		return ErrInvalidSeats
	}

	return nil
}

// CreateRide posts a new active ride with all seats free.
func (s *RideService) CreateRide(ctx context.Context, req CreateRideRequest) (*domain.Ride, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	var created *domain.Ride
	err := s.mutate(ctx, func(ds *domain.Dataset) error {
		ride := &domain.Ride{
			ID:               ds.AllocateRideID(),
			DriverID:         req.DriverID,
			DriverName:       req.DriverName,
			Route:            req.Route,
			DepartureDate:    req.DepartureDate,
			DepartureTime:    req.DepartureTime,
			TotalSeats:       req.Seats,
			AvailableSeats:   req.Seats,
			BookingsCount:    0,
			Price:            req.Price,
			CarInfo:          req.CarInfo,
			CarNumber:        req.CarNumber,
			TelegramUsername: req.TelegramUsername,
			CarPhoto:         req.CarPhoto,
			Description:      req.Description,
			LocationLat:      req.LocationLat,
			LocationLon:      req.LocationLon,
			CreatedAt:        s.config.Clock(),
			IsActive:         true,
		}
		ds.Rides = append(ds.Rides, ride)
		created = ride.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "ride created", "ride_id", created.ID, "driver_id", created.DriverID, "seats", created.TotalSeats)
	return created, nil
}

// GetRide returns the active ride with the given id, or nil when it does
// not exist or is no longer active. Ids are never zero or negative, so
// such lookups return nil as well.
func (s *RideService) GetRide(ctx context.Context, id int64) (*domain.Ride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ride := s.data.FindRide(id)
	if ride == nil || !ride.IsActive {
		return nil, nil
	}
	return ride.Clone(), nil
}

// ListActiveRides returns every active ride in insertion order, including
// rides with no free seats.
func (s *RideService) ListActiveRides(ctx context.Context) []*domain.Ride {
	return s.filterRides(func(r *domain.Ride) bool { return r.IsActive })
}

// ListRidesByDriver returns the active rides posted by a driver.
func (s *RideService) ListRidesByDriver(ctx context.Context, driverID int64) []*domain.Ride {
	return s.filterRides(func(r *domain.Ride) bool {
		return r.IsActive && r.DriverID == driverID
	})
}

// AllRides returns every ride, including inactive ones.
func (s *RideService) AllRides(ctx context.Context) []*domain.Ride {
	return s.filterRides(func(*domain.Ride) bool { return true })
}

func (s *RideService) filterRides(keep func(*domain.Ride) bool) []*domain.Ride {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rides := make([]*domain.Ride, 0, len(s.data.Rides))
	for _, r := range s.data.Rides {
		if keep(r) {
			rides = append(rides, r.Clone())
		}
	}
	return rides
}

// DeleteRideResult reports the outcome of closing a ride.
type DeleteRideResult struct {
	Affected   int
	Passengers []domain.Passenger
}

// DeleteRide deactivates a ride and removes all its bookings. Passengers
// who held bookings are returned and notified. Deleting an unknown or
// already inactive ride affects nothing.
func (s *RideService) DeleteRide(ctx context.Context, id int64) (*DeleteRideResult, error) {
	result := &DeleteRideResult{Passengers: []domain.Passenger{}}
	var closed *domain.Ride
	err := s.mutate(ctx, func(ds *domain.Dataset) error {
		ride := ds.FindRide(id)
		if ride == nil || !ride.IsActive {
			return errNoChange
		}
		for _, b := range ds.CloseRide(ride) {
			result.Passengers = append(result.Passengers, b.Passenger())
		}
		result.Affected = 1
		closed = ride.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if closed == nil {
		return result, nil
	}

	s.logger.InfoContext(ctx, "ride deleted", "ride_id", id, "passengers", len(result.Passengers))

	if s.notificationService != nil {
		if err := s.notificationService.NotifyRideCancelled(ctx, closed, result.Passengers); err != nil {
			s.logger.ErrorContext(ctx, "notify ride cancelled failed", "ride_id", id, "error", err)
		}
	}
	return result, nil
}
