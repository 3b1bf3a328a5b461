package tests

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"dormride/internal/domain"
	"dormride/internal/events"
	"dormride/internal/redis"
	"dormride/internal/repository"
	"dormride/internal/service"
)

// ──────────────────────────────────────────────
// MOCK DATASET STORE
// ──────────────────────────────────────────────

// MockDatasetStore is an in-memory implementation of DatasetStore.
type MockDatasetStore struct {
	mu   sync.RWMutex
	data *domain.Dataset

	// Counters for verification
	LoadCallCount int32
	SaveCallCount int32

	// Error injection
	loadError error
	saveError error

	// Called inside Save before the document is stored.
	saveHook func()
}

// NewMockDatasetStore creates a new mock dataset store holding nothing.
func NewMockDatasetStore() *MockDatasetStore {
	return &MockDatasetStore{}
}

// Seed replaces the stored document.
func (m *MockDatasetStore) Seed(ds *domain.Dataset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = ds.Clone()
}

// SetLoadError makes every Load fail with err.
func (m *MockDatasetStore) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadError = err
}

// SetSaveError makes every Save fail with err. nil restores normal saves.
func (m *MockDatasetStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetSaveHook installs fn to run at the start of every Save.
func (m *MockDatasetStore) SetSaveHook(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveHook = fn
}

func (m *MockDatasetStore) Load(ctx context.Context) (*domain.Dataset, error) {
	atomic.AddInt32(&m.LoadCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.loadError != nil {
		return nil, m.loadError
	}
	if m.data == nil {
		return domain.NewDataset(), nil
	}
	return m.data.Clone(), nil
}

func (m *MockDatasetStore) Save(ctx context.Context, ds *domain.Dataset) error {
	atomic.AddInt32(&m.SaveCallCount, 1)

	m.mu.RLock()
	hook, saveErr := m.saveHook, m.saveError
	m.mu.RUnlock()

	if hook != nil {
		hook()
	}
	if saveErr != nil {
		return saveErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = ds.Clone()
	return nil
}

// Stored returns a copy of the last saved document, or nil.
func (m *MockDatasetStore) Stored() *domain.Dataset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return nil
	}
	return m.data.Clone()
}

// Saves returns the number of Save calls so far.
func (m *MockDatasetStore) Saves() int {
	return int(atomic.LoadInt32(&m.SaveCallCount))
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER
// ──────────────────────────────────────────────

// PublishedMessage is one message captured by MockPublisher.
type PublishedMessage struct {
	RoutingKey string
	Body       []byte
}

// MockPublisher captures published messages.
type MockPublisher struct {
	mu       sync.Mutex
	messages []PublishedMessage

	PublishCallCount int32
	PublishError     error
	Closed           bool
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	atomic.AddInt32(&m.PublishCallCount, 1)
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, PublishedMessage{RoutingKey: routingKey, Body: append([]byte(nil), body...)})
	return nil
}

func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Messages returns the captured messages in publish order.
func (m *MockPublisher) Messages() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PublishedMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

// Notifications decodes the captured messages.
func (m *MockPublisher) Notifications() []service.Notification {
	var out []service.Notification
	for _, msg := range m.Messages() {
		var n service.Notification
		if err := json.Unmarshal(msg.Body, &n); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// NotificationsOfType returns the decoded notifications of one type.
func (m *MockPublisher) NotificationsOfType(kind service.NotificationType) []service.Notification {
	var out []service.Notification
	for _, n := range m.Notifications() {
		if n.Type == kind {
			out = append(out, n)
		}
	}
	return out
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu   sync.Mutex
	held bool

	AcquireCallCount int32
	ReleaseCallCount int32
	AcquireError     error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{}
}

// Hold simulates another replica holding the sweep lock.
func (m *MockLockStore) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held = true
}

func (m *MockLockStore) AcquireSweepLock(ctx context.Context, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held {
		return false, nil
	}
	m.held = true
	return true, nil
}

func (m *MockLockStore) ReleaseSweepLock(ctx context.Context) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held = false
	return nil
}

// IsHeld reports whether the lock is currently held.
func (m *MockLockStore) IsHeld() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}

// ──────────────────────────────────────────────
// FAKE CLOCK
// ──────────────────────────────────────────────

// FakeClock is a manually advanced time source.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock stopped at now.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ──────────────────────────────────────────────
// HELPERS
// ──────────────────────────────────────────────

// testNow is the reference instant used by tests: 2026-10-18 12:00 UTC.
var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

// NewTestLogger returns a logger that discards everything.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnv bundles a ride service with its mocks.
type testEnv struct {
	store     *MockDatasetStore
	publisher *MockPublisher
	clock     *FakeClock
	rides     *service.RideService
}

// newTestEnv builds a ride service over fresh mocks with times in UTC.
func newTestEnv() *testEnv {
	env := &testEnv{
		store:     NewMockDatasetStore(),
		publisher: NewMockPublisher(),
		clock:     NewFakeClock(testNow),
	}
	logger := NewTestLogger()
	env.rides = service.NewRideService(
		env.store,
		service.NewNotificationService(env.publisher, logger),
		logger,
		service.RideServiceConfig{
			Location:    time.UTC,
			GracePeriod: 20 * time.Minute,
			Clock:       env.clock.Now,
		},
	)
	return env
}

// rideRequest returns a valid ride request for driverID with the given seats.
func rideRequest(driverID int64, seats int) service.CreateRideRequest {
	return service.CreateRideRequest{
		DriverID:         driverID,
		DriverName:       "Ivan",
		Route:            "nvk-guk",
		DepartureDate:    "2026-10-18",
		DepartureTime:    "18:30",
		Seats:            seats,
		Price:            150,
		CarInfo:          "Kia Rio",
		CarNumber:        "A123BC",
		TelegramUsername: "ivan_drives",
	}
}

// bookingRequest returns a booking request for passengerID on rideID.
func bookingRequest(rideID, passengerID int64) service.CreateBookingRequest {
	return service.CreateBookingRequest{
		RideID:            rideID,
		PassengerID:       passengerID,
		PassengerName:     "Passenger",
		PassengerUsername: "p_user",
	}
}

// Ensure mocks implement interfaces.
var (
	_ repository.DatasetStore  = (*MockDatasetStore)(nil)
	_ events.Publisher         = (*MockPublisher)(nil)
	_ redis.LockStoreInterface = (*MockLockStore)(nil)
)
