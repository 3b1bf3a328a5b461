package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"dormride/internal/domain"
	"dormride/internal/redis"
)

// departureLayouts are the accepted "date time" forms of a ride schedule.
var departureLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// departureAt parses a ride's schedule in loc. ok is false when the ride
// has no date or the fields do not parse; such rides never expire.
func departureAt(r *domain.Ride, loc *time.Location) (time.Time, bool) {
	if r.DepartureDate == "" || r.DepartureTime == "" {
		return time.Time{}, false
	}
	value := r.DepartureDate + " " + r.DepartureTime
	for _, layout := range departureLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// expiredRide pairs a swept ride with the passengers whose bookings went with it.
type expiredRide struct {
	ride       *domain.Ride
	passengers []domain.Passenger
}

// SweepExpired deactivates every active ride whose departure plus the grace
// period has passed and removes its bookings. The dataset is saved once,
// and only when something expired. Returns the number of rides swept.
func (s *RideService) SweepExpired(ctx context.Context) (int, error) {
	now := s.config.Clock()

	var expired []expiredRide
	err := s.mutate(ctx, func(ds *domain.Dataset) error {
		for _, r := range ds.Rides {
			if !r.IsActive {
				continue
			}
			departure, ok := departureAt(r, s.config.Location)
			if !ok || !now.After(departure.Add(s.config.GracePeriod)) {
				continue
			}

			e := expiredRide{passengers: []domain.Passenger{}}
			for _, b := range ds.CloseRide(r) {
				e.passengers = append(e.passengers, b.Passenger())
			}
			e.ride = r.Clone()
			expired = append(expired, e)
		}
		if len(expired) == 0 {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, e := range expired {
		s.logger.InfoContext(ctx, "ride expired", "ride_id", e.ride.ID, "passengers", len(e.passengers))
		if s.notificationService == nil {
			continue
		}
		if err := s.notificationService.NotifyRideExpired(ctx, e.ride, e.passengers); err != nil {
			s.logger.ErrorContext(ctx, "notify ride expired failed", "ride_id", e.ride.ID, "error", err)
		}
	}
	return len(expired), nil
}

const sweepLockTTL = time.Minute

// ExpirySweeper runs SweepExpired on a fixed interval and on demand,
// never letting two sweeps overlap.
type ExpirySweeper struct {
	rideService *RideService
	lockStore   redis.LockStoreInterface // Optional: coordinates replicas
	nrApp       *newrelic.Application    // Optional
	interval    time.Duration
	logger      *slog.Logger

	running atomic.Bool
}

// NewExpirySweeper creates a new ExpirySweeper. lockStore and nrApp may be nil.
func NewExpirySweeper(
	rideService *RideService,
	lockStore redis.LockStoreInterface,
	nrApp *newrelic.Application,
	interval time.Duration,
	logger *slog.Logger,
) *ExpirySweeper {
	return &ExpirySweeper{
		rideService: rideService,
		lockStore:   lockStore,
		nrApp:       nrApp,
		interval:    interval,
		logger:      logger.With("component", "expiry_sweeper"),
	}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *ExpirySweeper) Run(ctx context.Context) {
	s.logger.InfoContext(ctx, "sweeper started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil && !errors.Is(err, ErrSweepInProgress) {
			s.logger.ErrorContext(ctx, "sweep failed", "error", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

// Sweep performs one sweep. It returns ErrSweepInProgress when another
// sweep is running in this process or, with a lock store, in any replica.
func (s *ExpirySweeper) Sweep(ctx context.Context) (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		return 0, ErrSweepInProgress
	}
	defer s.running.Store(false)

	txn := s.nrApp.StartTransaction("expiry-sweep")
	defer txn.End()
	ctx = newrelic.NewContext(ctx, txn)

	if s.lockStore != nil {
		locked, err := s.lockStore.AcquireSweepLock(ctx, sweepLockTTL)
		if err != nil {
			txn.NoticeError(err)
			return 0, err
		}
		if !locked {
			return 0, ErrSweepInProgress
		}
		defer func() {
			if err := s.lockStore.ReleaseSweepLock(context.WithoutCancel(ctx)); err != nil {
				s.logger.ErrorContext(ctx, "release sweep lock failed", "error", err)
			}
		}()
	}

	count, err := s.rideService.SweepExpired(ctx)
	if err != nil {
		txn.NoticeError(err)
		return 0, err
	}

	txn.AddAttribute("swept_rides", count)
	if count > 0 {
		s.logger.InfoContext(ctx, "sweep finished", "swept", count)
	}
	return count, nil
}
