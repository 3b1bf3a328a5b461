package tests

import (
	"context"
	"errors"
	"testing"

	"dormride/internal/domain"
	"dormride/internal/service"
)

// ──────────────────────────────────────────────
// 1. RIDE CREATION
// ──────────────────────────────────────────────

func TestRideCreation_ValidInput_Succeeds(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	ride, err := env.rides.CreateRide(ctx, rideRequest(100, 3))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if ride.ID != 1 {
		t.Errorf("expected first ride id 1, got %d", ride.ID)
	}
	if !ride.IsActive {
		t.Error("expected new ride to be active")
	}
	if ride.TotalSeats != 3 || ride.AvailableSeats != 3 || ride.BookingsCount != 0 {
		t.Errorf("unexpected counters: total=%d available=%d bookings=%d",
			ride.TotalSeats, ride.AvailableSeats, ride.BookingsCount)
	}
	if !ride.CreatedAt.Equal(testNow) {
		t.Errorf("expected created_at %v, got %v", testNow, ride.CreatedAt)
	}

	stored := env.store.Stored()
	if stored == nil || len(stored.Rides) != 1 {
		t.Fatal("expected ride to be persisted")
	}
}

func TestRideCreation_InvalidInput_Fails(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mutate  func(*service.CreateRideRequest)
		wantErr error
	}{
		{
			name:    "missing driver",
			mutate:  func(r *service.CreateRideRequest) { r.DriverID = 0 },
			wantErr: service.ErrInvalidDriverID,
		},
		{
			name:    "empty route",
			mutate:  func(r *service.CreateRideRequest) { r.Route = "" },
			wantErr: service.ErrInvalidRoute,
		},
		{
			name:    "empty departure time",
			mutate:  func(r *service.CreateRideRequest) { r.DepartureTime = "" },
			wantErr: service.ErrInvalidDepartureTime,
		},
		{
			name:    "zero seats",
			mutate:  func(r *service.CreateRideRequest) { r.Seats = 0 },
			wantErr: service.ErrInvalidSeats,
		},
		{
			name:    "negative seats",
			mutate:  func(r *service.CreateRideRequest) { r.Seats = -2 },
			wantErr: service.ErrInvalidSeats,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv()
			req := rideRequest(100, 3)
			tc.mutate(&req)

			_, err := env.rides.CreateRide(context.Background(), req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
			if env.store.Saves() != 0 {
				t.Error("expected nothing to be saved for an invalid ride")
			}
		})
	}
}

func TestRideCreation_WithoutDate_Succeeds(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	req := rideRequest(100, 2)
	req.DepartureDate = ""

	ride, err := env.rides.CreateRide(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if ride.DepartureDate != "" {
		t.Errorf("expected empty date, got %q", ride.DepartureDate)
	}
}

// ──────────────────────────────────────────────
// 2. LOOKUPS AND LISTINGS
// ──────────────────────────────────────────────

func TestGetRide_UnknownOrInactive_ReturnsNil(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	ride, err := env.rides.GetRide(ctx, 42)
	if err != nil || ride != nil {
		t.Fatalf("expected nil ride for unknown id, got %v, %v", ride, err)
	}

	created, _ := env.rides.CreateRide(ctx, rideRequest(100, 1))
	if _, err := env.rides.DeleteRide(ctx, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	ride, err = env.rides.GetRide(ctx, created.ID)
	if err != nil || ride != nil {
		t.Errorf("expected nil ride after delete, got %v, %v", ride, err)
	}
}

func TestGetRide_NonPositiveID_ReturnsNil(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()
	env.rides.CreateRide(ctx, rideRequest(100, 1))

	for _, id := range []int64{0, -5} {
		ride, err := env.rides.GetRide(ctx, id)
		if err != nil || ride != nil {
			t.Errorf("GetRide(%d): expected nil, nil, got %v, %v", id, ride, err)
		}
	}
}

func TestGetRide_ReturnsCopy(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	lat := 55.75
	req := rideRequest(100, 2)
	req.LocationLat = &lat
	created, _ := env.rides.CreateRide(ctx, req)

	got, _ := env.rides.GetRide(ctx, created.ID)
	got.AvailableSeats = 0
	*got.LocationLat = 0

	again, _ := env.rides.GetRide(ctx, created.ID)
	if again.AvailableSeats != 2 || *again.LocationLat != 55.75 {
		t.Error("expected caller mutations not to leak into the service state")
	}
}

func TestListRides_ActiveAndByDriver(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	r1, _ := env.rides.CreateRide(ctx, rideRequest(100, 2))
	r2, _ := env.rides.CreateRide(ctx, rideRequest(200, 2))
	r3, _ := env.rides.CreateRide(ctx, rideRequest(100, 2))
	if _, err := env.rides.DeleteRide(ctx, r3.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	active := env.rides.ListActiveRides(ctx)
	if len(active) != 2 || active[0].ID != r1.ID || active[1].ID != r2.ID {
		t.Errorf("expected rides [%d %d] in insertion order, got %v", r1.ID, r2.ID, rideIDs(active))
	}

	byDriver := env.rides.ListRidesByDriver(ctx, 100)
	if len(byDriver) != 1 || byDriver[0].ID != r1.ID {
		t.Errorf("expected only ride %d for driver 100, got %v", r1.ID, rideIDs(byDriver))
	}

	if all := env.rides.AllRides(ctx); len(all) != 3 {
		t.Errorf("expected 3 rides including inactive, got %d", len(all))
	}

	if empty := env.rides.ListRidesByDriver(ctx, 999); empty == nil || len(empty) != 0 {
		t.Error("expected empty non-nil slice for unknown driver")
	}
}

func TestListActiveRides_IncludesFullRides(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	ride, _ := env.rides.CreateRide(ctx, rideRequest(100, 1))
	if _, err := env.rides.CreateBooking(ctx, bookingRequest(ride.ID, 1)); err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	active := env.rides.ListActiveRides(ctx)
	if len(active) != 1 || active[0].AvailableSeats != 0 || !active[0].IsActive {
		t.Errorf("expected full ride to stay active, got %+v", active)
	}
}

// ──────────────────────────────────────────────
// 3. RIDE DELETION
// ──────────────────────────────────────────────

func TestDeleteRide_RemovesBookingsAndReturnsPassengers(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	ride, _ := env.rides.CreateRide(ctx, rideRequest(100, 3))
	env.rides.CreateBooking(ctx, bookingRequest(ride.ID, 1))
	env.rides.CreateBooking(ctx, bookingRequest(ride.ID, 2))

	result, err := env.rides.DeleteRide(ctx, ride.ID)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if result.Affected != 1 {
		t.Errorf("expected 1 affected, got %d", result.Affected)
	}
	if len(result.Passengers) != 2 || result.Passengers[0].ID != 1 || result.Passengers[1].ID != 2 {
		t.Errorf("unexpected passengers: %+v", result.Passengers)
	}

	if got, _ := env.rides.GetRide(ctx, ride.ID); got != nil {
		t.Error("expected ride to be gone from lookups")
	}
	if bookings := env.rides.ListBookingsByRide(ctx, ride.ID); len(bookings) != 0 {
		t.Errorf("expected no bookings, got %d", len(bookings))
	}

	stored := env.store.Stored()
	if len(stored.Bookings) != 0 {
		t.Errorf("expected bookings hard-deleted from the document, got %d", len(stored.Bookings))
	}
	if r := stored.FindRide(ride.ID); r == nil || r.IsActive {
		t.Error("expected ride to be kept as inactive in the document")
	}
}

func TestDeleteRide_UnknownOrRepeated_AffectsNothing(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	result, err := env.rides.DeleteRide(ctx, 77)
	if err != nil || result.Affected != 0 {
		t.Errorf("expected 0 affected for unknown ride, got %+v, %v", result, err)
	}

	ride, _ := env.rides.CreateRide(ctx, rideRequest(100, 1))
	env.rides.DeleteRide(ctx, ride.ID)
	saves := env.store.Saves()

	result, err = env.rides.DeleteRide(ctx, ride.ID)
	if err != nil || result.Affected != 0 {
		t.Errorf("expected 0 affected on repeat, got %+v, %v", result, err)
	}
	if env.store.Saves() != saves {
		t.Error("expected no save for a no-op delete")
	}
}

// ──────────────────────────────────────────────
// 4. IDS AND PERSISTENCE
// ──────────────────────────────────────────────

func TestIDs_StrictlyIncreaseAfterDeletion(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	ride, _ := env.rides.CreateRide(ctx, rideRequest(100, 5))
	b1, _ := env.rides.CreateBooking(ctx, bookingRequest(ride.ID, 1))
	b2, _ := env.rides.CreateBooking(ctx, bookingRequest(ride.ID, 2))

	env.rides.DeleteBooking(ctx, b2.ID)
	env.rides.DeleteBooking(ctx, b1.ID)

	b3, err := env.rides.CreateBooking(ctx, bookingRequest(ride.ID, 3))
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	if b3.ID <= b2.ID {
		t.Errorf("expected booking id above %d, got %d", b2.ID, b3.ID)
	}

	env.rides.DeleteRide(ctx, ride.ID)
	next, _ := env.rides.CreateRide(ctx, rideRequest(100, 1))
	if next.ID <= ride.ID {
		t.Errorf("expected ride id above %d, got %d", ride.ID, next.ID)
	}
}

func TestIDs_SurviveReload(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	ride, _ := env.rides.CreateRide(ctx, rideRequest(100, 2))
	b, _ := env.rides.CreateBooking(ctx, bookingRequest(ride.ID, 1))
	env.rides.DeleteBooking(ctx, b.ID)

	reloaded := service.NewRideService(env.store, nil, NewTestLogger(), service.DefaultRideServiceConfig())
	if err := reloaded.Load(ctx, true); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	again, err := reloaded.CreateBooking(ctx, bookingRequest(ride.ID, 2))
	if err != nil {
		t.Fatalf("booking after reload failed: %v", err)
	}
	if again.ID <= b.ID {
		t.Errorf("expected deleted booking id %d not to be reused, got %d", b.ID, again.ID)
	}
}

func TestLoad_RecomputesCountersFromBookings(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	ds := domain.NewDataset()
	ds.Rides = append(ds.Rides, &domain.Ride{
		ID: 4, DriverID: 100, Route: "nvk-guk", DepartureTime: "09:00",
		TotalSeats: 3, AvailableSeats: 3, BookingsCount: 0, IsActive: true,
	})
	ds.Bookings = append(ds.Bookings,
		&domain.Booking{ID: 9, RideID: 4, PassengerID: 1},
		&domain.Booking{ID: 11, RideID: 4, PassengerID: 2},
	)
	ds.NextRideID, ds.NextBookingID = 0, 0
	env.store.Seed(ds)

	if err := env.rides.Load(ctx, true); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	ride, _ := env.rides.GetRide(ctx, 4)
	if ride.BookingsCount != 2 || ride.AvailableSeats != 1 {
		t.Errorf("expected counters 2/1, got %d/%d", ride.BookingsCount, ride.AvailableSeats)
	}

	next, _ := env.rides.CreateRide(ctx, rideRequest(100, 1))
	if next.ID != 5 {
		t.Errorf("expected next ride id 5, got %d", next.ID)
	}
}

func TestLoad_SettlesInactiveRidesWithBookings(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	ds := domain.NewDataset()
	ds.Rides = append(ds.Rides,
		// Deactivated when its only seat was booked.
		&domain.Ride{ID: 1, DriverID: 100, Route: "nvk-guk", DepartureTime: "18:30", TotalSeats: 1, IsActive: false},
		// Closed by the driver while a booking remained.
		&domain.Ride{ID: 2, DriverID: 100, Route: "guk-nvk", DepartureTime: "19:00", TotalSeats: 3, IsActive: false},
	)
	ds.Bookings = append(ds.Bookings,
		&domain.Booking{ID: 1, RideID: 1, PassengerID: 7},
		&domain.Booking{ID: 2, RideID: 2, PassengerID: 7},
	)
	env.store.Seed(ds)

	if err := env.rides.Load(ctx, true); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if views := env.rides.ListBookingsByUser(ctx, 7); len(views) != 1 || views[0].RideID != 1 {
		t.Fatalf("expected only the booking on ride 1, got %+v", views)
	}
	if bookings := env.rides.ListBookingsByRide(ctx, 2); len(bookings) != 0 {
		t.Errorf("expected closed ride to have no bookings, got %d", len(bookings))
	}
	if rides := env.rides.ListRidesByDriver(ctx, 100); len(rides) != 1 || rides[0].ID != 1 {
		t.Errorf("expected driver to see only ride 1, got %v", rideIDs(rides))
	}

	if _, err := env.rides.DeleteBooking(ctx, 1); err != nil {
		t.Fatalf("delete booking failed: %v", err)
	}
	ride, _ := env.rides.GetRide(ctx, 1)
	if ride == nil || ride.AvailableSeats != 1 || ride.BookingsCount != 0 {
		t.Errorf("expected ride 1 bookable again with 1 seat, got %+v", ride)
	}

	next, err := env.rides.CreateBooking(ctx, bookingRequest(1, 8))
	if err != nil {
		t.Fatalf("booking the freed seat failed: %v", err)
	}
	if next.ID != 3 {
		t.Errorf("expected booking id 3, got %d", next.ID)
	}
}

func TestLoad_FailurePolicy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	strict := newTestEnv()
	strict.store.SetLoadError(errors.New("connection refused"))
	if err := strict.rides.Load(ctx, true); !errors.Is(err, service.ErrPersistence) {
		t.Errorf("expected ErrPersistence in strict mode, got %v", err)
	}

	lenient := newTestEnv()
	lenient.store.SetLoadError(errors.New("connection refused"))
	if err := lenient.rides.Load(ctx, false); err != nil {
		t.Errorf("expected lenient load to succeed, got %v", err)
	}
	if rides := lenient.rides.ListActiveRides(ctx); len(rides) != 0 {
		t.Errorf("expected empty dataset, got %d rides", len(rides))
	}
}

func TestFailedSave_LeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	ctx := context.Background()

	ride, _ := env.rides.CreateRide(ctx, rideRequest(100, 2))

	env.store.SetSaveError(errors.New("disk full"))

	if _, err := env.rides.CreateBooking(ctx, bookingRequest(ride.ID, 1)); !errors.Is(err, service.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if _, err := env.rides.CreateRide(ctx, rideRequest(100, 1)); !errors.Is(err, service.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if _, err := env.rides.DeleteRide(ctx, ride.ID); !errors.Is(err, service.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	got, _ := env.rides.GetRide(ctx, ride.ID)
	if got == nil || got.AvailableSeats != 2 || got.BookingsCount != 0 {
		t.Fatalf("expected ride untouched, got %+v", got)
	}
	if n := len(env.rides.ListBookingsByRide(ctx, ride.ID)); n != 0 {
		t.Errorf("expected no bookings, got %d", n)
	}
	if n := len(env.rides.AllRides(ctx)); n != 1 {
		t.Errorf("expected 1 ride, got %d", n)
	}
	if n := len(env.publisher.Messages()); n != 0 {
		t.Errorf("expected no notifications for failed writes, got %d", n)
	}

	env.store.SetSaveError(nil)

	b, err := env.rides.CreateBooking(ctx, bookingRequest(ride.ID, 1))
	if err != nil {
		t.Fatalf("expected booking to succeed after recovery, got %v", err)
	}
	if b.ID != 1 {
		t.Errorf("expected failed attempts not to consume ids, got booking id %d", b.ID)
	}
}

func rideIDs(rides []*domain.Ride) []int64 {
	ids := make([]int64, 0, len(rides))
	for _, r := range rides {
		ids = append(ids, r.ID)
	}
	return ids
}
