package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dormride/internal/domain"
	"dormride/internal/service"
)

// BookingHandler handles HTTP requests for seat bookings.
type BookingHandler struct {
	rideService *service.RideService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(rideService *service.RideService) *BookingHandler {
	return &BookingHandler{rideService: rideService}
}

// CreateBookingRequest is the HTTP request body for reserving a seat.
type CreateBookingRequest struct {
	RideID            int64  `json:"ride_id"`
	PassengerID       int64  `json:"passenger_telegram_id"`
	PassengerName     string `json:"passenger_name"`
	PassengerUsername string `json:"passenger_username,omitempty"`
}

// CreateBookingResponse is the HTTP response for reserving a seat.
type CreateBookingResponse struct {
	Success   bool            `json:"success"`
	BookingID int64           `json:"bookingId"`
	Booking   *domain.Booking `json:"booking"`
}

// BookingsResponse wraps the bookings of one ride.
type BookingsResponse struct {
	Success  bool              `json:"success"`
	Bookings []*domain.Booking `json:"bookings"`
}

// BookingViewsResponse wraps a passenger's bookings with their ride details.
type BookingViewsResponse struct {
	Success  bool                 `json:"success"`
	Bookings []domain.BookingView `json:"bookings"`
}

// DeleteResponse reports how many records a delete removed.
type DeleteResponse struct {
	Success bool `json:"success"`
	Deleted int  `json:"deleted"`
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	booking, err := h.rideService.CreateBooking(c.Request.Context(), service.CreateBookingRequest{
		RideID:            req.RideID,
		PassengerID:       req.PassengerID,
		PassengerName:     req.PassengerName,
		PassengerUsername: req.PassengerUsername,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CreateBookingResponse{Success: true, BookingID: booking.ID, Booking: booking})
}

// DeleteBooking handles DELETE /v1/bookings/:id
//
// Cancelling an unknown booking succeeds with deleted=0.
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	deleted, err := h.rideService.DeleteBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, DeleteResponse{Success: true, Deleted: deleted})
}

// ListByRide handles GET /v1/rides/:id/bookings
func (h *BookingHandler) ListByRide(c *gin.Context) {
	rideID, ok := paramID(c, "id")
	if !ok {
		return
	}

	bookings := h.rideService.ListBookingsByRide(c.Request.Context(), rideID)
	respondJSON(c, http.StatusOK, BookingsResponse{Success: true, Bookings: bookings})
}

// ListByPassenger handles GET /v1/passengers/:id/bookings
func (h *BookingHandler) ListByPassenger(c *gin.Context) {
	passengerID, ok := paramID(c, "id")
	if !ok {
		return
	}

	views := h.rideService.ListBookingsByUser(c.Request.Context(), passengerID)
	respondJSON(c, http.StatusOK, BookingViewsResponse{Success: true, Bookings: views})
}
