package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dormride/internal/domain"
	"dormride/internal/events"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationBookingCreated   NotificationType = "BOOKING_CREATED"
	NotificationBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotificationRideCancelled    NotificationType = "RIDE_CANCELLED"
	NotificationRideExpired      NotificationType = "RIDE_EXPIRED"
)

// Notification represents a message for the chat bot to deliver.
type Notification struct {
	ID          string           `json:"id"`
	Type        NotificationType `json:"type"`
	RecipientID int64            `json:"recipient_id"` // chat id of the driver or passenger
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Data        map[string]any   `json:"data,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NotificationService turns ride events into notifications and hands them
// to the configured publisher.
type NotificationService struct {
	publisher events.Publisher
	logger    *slog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(publisher events.Publisher, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		publisher: publisher,
		logger:    logger.With("component", "notifications"),
	}
}

// routeLabel renders the well-known dormitory routes for humans.
func routeLabel(route string) string {
	switch route {
	case "nvk-guk":
		return "NVK → GUK"
	case "guk-nvk":
		return "GUK → NVK"
	default:
		return route
	}
}

// schedule renders a ride's date and time.
func schedule(ride *domain.Ride) string {
	if ride.DepartureDate == "" {
		return ride.DepartureTime
	}
	if d, err := time.Parse("2006-01-02", ride.DepartureDate); err == nil {
		return d.Format("02.01") + ", " + ride.DepartureTime
	}
	return ride.DepartureDate + ", " + ride.DepartureTime
}

// NotifyBookingCreated tells the driver that a passenger reserved a seat.
func (s *NotificationService) NotifyBookingCreated(ctx context.Context, ride *domain.Ride, booking *domain.Booking) error {
	passenger := booking.PassengerName
	if booking.PassengerUsername != "" {
		passenger += " (@" + booking.PassengerUsername + ")"
	}

	notification := Notification{
		Type:        NotificationBookingCreated,
		RecipientID: ride.DriverID,
		Title:       "New booking",
		Message: fmt.Sprintf("Passenger %s booked a seat.\nRoute: %s\nTime: %s\nSeats left: %d/%d",
			passenger, routeLabel(ride.Route), schedule(ride), ride.AvailableSeats, ride.TotalSeats),
		Data: map[string]any{
			"ride_id":            ride.ID,
			"booking_id":         booking.ID,
			"passenger_id":       booking.PassengerID,
			"passenger_username": booking.PassengerUsername,
		},
	}
	return s.send(ctx, notification)
}

// NotifyBookingCancelled tells the driver that a passenger gave up a seat.
func (s *NotificationService) NotifyBookingCancelled(ctx context.Context, ride *domain.Ride, booking *domain.Booking) error {
	notification := Notification{
		Type:        NotificationBookingCancelled,
		RecipientID: ride.DriverID,
		Title:       "Booking cancelled",
		Message: fmt.Sprintf("Passenger %s cancelled their booking.\nRoute: %s\nTime: %s\nSeats left: %d/%d",
			booking.PassengerName, routeLabel(ride.Route), schedule(ride), ride.AvailableSeats, ride.TotalSeats),
		Data: map[string]any{
			"ride_id":      ride.ID,
			"booking_id":   booking.ID,
			"passenger_id": booking.PassengerID,
		},
	}
	return s.send(ctx, notification)
}

// NotifyRideCancelled tells every booked passenger that the driver closed the ride.
func (s *NotificationService) NotifyRideCancelled(ctx context.Context, ride *domain.Ride, passengers []domain.Passenger) error {
	message := fmt.Sprintf("The ride was closed by the driver.\nDriver: %s\nRoute: %s\nTime: %s",
		ride.DriverName, routeLabel(ride.Route), schedule(ride))
	return s.fanOut(ctx, NotificationRideCancelled, "Ride cancelled", message, ride, passengers)
}

// NotifyRideExpired tells every booked passenger that the ride left the listing.
func (s *NotificationService) NotifyRideExpired(ctx context.Context, ride *domain.Ride, passengers []domain.Passenger) error {
	message := fmt.Sprintf("The ride has departed and was removed.\nRoute: %s\nTime: %s",
		routeLabel(ride.Route), schedule(ride))
	return s.fanOut(ctx, NotificationRideExpired, "Ride finished", message, ride, passengers)
}

// fanOut sends one notification per passenger and keeps going past
// individual failures.
func (s *NotificationService) fanOut(
	ctx context.Context,
	kind NotificationType,
	title, message string,
	ride *domain.Ride,
	passengers []domain.Passenger,
) error {
	var errs []error
	for _, p := range passengers {
		err := s.send(ctx, Notification{
			Type:        kind,
			RecipientID: p.ID,
			Title:       title,
			Message:     message,
			Data: map[string]any{
				"ride_id":   ride.ID,
				"driver_id": ride.DriverID,
			},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("passenger %d: %w", p.ID, err))
		}
	}
	return errors.Join(errs...)
}

// send stamps and publishes a notification.
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	notification.ID = uuid.New().String()
	notification.CreatedAt = time.Now()

	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	routingKey := events.RoutingKey(string(notification.Type))
	if err := s.publisher.Publish(ctx, routingKey, body); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	s.logger.DebugContext(ctx, "notification sent",
		"type", notification.Type, "recipient_id", notification.RecipientID, "id", notification.ID)
	return nil
}
