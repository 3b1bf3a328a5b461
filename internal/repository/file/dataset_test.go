package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dormride/internal/domain"
	"dormride/internal/repository"
)

func TestDatasetStore_LoadMissingFile(t *testing.T) {
	store := NewDatasetStore(filepath.Join(t.TempDir(), "database.json"))

	ds, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds.Rides) != 0 || len(ds.Bookings) != 0 {
		t.Error("expected empty dataset for missing file")
	}
}

func TestDatasetStore_SaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "database.json")
	store := NewDatasetStore(path)
	ctx := context.Background()

	ds := domain.NewDataset()
	ds.Rides = append(ds.Rides, &domain.Ride{
		ID:            ds.AllocateRideID(),
		DriverID:      7,
		Route:         "nvk-guk",
		DepartureDate: "2026-10-18",
		DepartureTime: "08:15",
		TotalSeats:    3,
		IsActive:      true,
	})
	ds.Bookings = append(ds.Bookings, &domain.Booking{
		ID:          ds.AllocateBookingID(),
		RideID:      1,
		PassengerID: 99,
		Status:      domain.BookingStatusPending,
	})

	if err := store.Save(ctx, ds); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Rides) != 1 || len(loaded.Bookings) != 1 {
		t.Fatalf("expected 1 ride and 1 booking, got %d and %d", len(loaded.Rides), len(loaded.Bookings))
	}
	if loaded.NextRideID != 2 || loaded.NextBookingID != 2 {
		t.Errorf("id sequences not persisted: ride=%d booking=%d", loaded.NextRideID, loaded.NextBookingID)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the dataset file to remain, found %d entries", len(entries))
	}
}

func TestDatasetStore_LoadLegacyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.json")
	legacy := `{
  "rides": [
    {"id": 4, "driver_name": "Ivan", "driver_telegram_id": 5, "route": "guk-nvk",
     "departure_time": "18:00", "available_seats": 1, "total_seats": 2, "price": 150,
     "car_info": null, "location_lat": null, "location_lon": null,
     "created_at": "2025-03-01T10:00:00.000Z", "is_active": true, "bookings_count": 1}
  ],
  "bookings": [
    {"id": 9, "ride_id": 4, "passenger_telegram_id": 6, "passenger_name": "Olga",
     "passenger_username": null, "created_at": "2025-03-01T11:00:00.000Z", "status": "pending"}
  ]
}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := NewDatasetStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ds.Normalize()

	if ds.NextRideID != 5 || ds.NextBookingID != 10 {
		t.Errorf("expected sequences 5/10, got %d/%d", ds.NextRideID, ds.NextBookingID)
	}
	if ds.Rides[0].AvailableSeats != 1 || ds.Rides[0].BookingsCount != 1 {
		t.Errorf("unexpected counters: %+v", ds.Rides[0])
	}
}

func TestDatasetStore_LoadLegacyInactiveRides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.json")
	legacy := `{
  "rides": [
    {"id": 1, "driver_telegram_id": 5, "route": "nvk-guk", "departure_time": "08:00",
     "available_seats": 0, "total_seats": 1, "bookings_count": 1, "is_active": false},
    {"id": 2, "driver_telegram_id": 5, "route": "guk-nvk", "departure_time": "19:00",
     "available_seats": 2, "total_seats": 3, "bookings_count": 1, "is_active": false}
  ],
  "bookings": [
    {"id": 1, "ride_id": 1, "passenger_telegram_id": 6, "status": "pending"},
    {"id": 2, "ride_id": 2, "passenger_telegram_id": 6, "status": "pending"}
  ]
}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := NewDatasetStore(path).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ds.Normalize()

	if r := ds.FindRide(1); !r.IsActive || r.AvailableSeats != 0 {
		t.Errorf("expected full ride reactivated, got %+v", r)
	}
	if r := ds.FindRide(2); r.IsActive || r.BookingsCount != 0 {
		t.Errorf("expected closed ride without bookings, got %+v", r)
	}
	if len(ds.Bookings) != 1 || ds.Bookings[0].ID != 1 {
		t.Errorf("expected only booking 1 kept, got %+v", ds.Bookings)
	}
}

func TestDatasetStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewDatasetStore(path).Load(context.Background()); !errors.Is(err, repository.ErrCorruptDocument) {
		t.Errorf("expected ErrCorruptDocument, got %v", err)
	}
}
