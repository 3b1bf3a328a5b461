package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dormride/internal/domain"
	"dormride/internal/service"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{
		rideService: rideService,
	}
}

// CreateRideRequest is the HTTP request body for posting a ride.
type CreateRideRequest struct {
	DriverID         int64    `json:"driver_telegram_id"`
	DriverName       string   `json:"driver_name"`
	Route            string   `json:"route"`
	DepartureDate    string   `json:"departure_date,omitempty"`
	DepartureTime    string   `json:"departure_time"`
	AvailableSeats   int      `json:"available_seats"`
	TotalSeats       int      `json:"total_seats,omitempty"` // takes precedence over available_seats
	Price            float64  `json:"price"`
	CarInfo          string   `json:"car_info,omitempty"`
	CarNumber        string   `json:"car_number,omitempty"`
	TelegramUsername string   `json:"telegram_username,omitempty"`
	CarPhoto         string   `json:"car_photo,omitempty"`
	Description      string   `json:"description,omitempty"`
	LocationLat      *float64 `json:"location_lat,omitempty"`
	LocationLon      *float64 `json:"location_lon,omitempty"`
}

// CreateRideResponse is the HTTP response for posting a ride.
type CreateRideResponse struct {
	Success bool         `json:"success"`
	RideID  int64        `json:"rideId"`
	Ride    *domain.Ride `json:"ride"`
}

// RideResponse wraps a single ride.
type RideResponse struct {
	Success bool         `json:"success"`
	Ride    *domain.Ride `json:"ride"`
}

// RidesResponse wraps a list of rides.
type RidesResponse struct {
	Success bool           `json:"success"`
	Rides   []*domain.Ride `json:"rides"`
}

// DeleteRideResponse reports which passengers lost their bookings.
type DeleteRideResponse struct {
	Success    bool               `json:"success"`
	Passengers []domain.Passenger `json:"passengers"`
}

// CreateRide handles POST /v1/rides
func (h *RideHandler) CreateRide(c *gin.Context) {
	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	seats := req.AvailableSeats
	if req.TotalSeats > 0 {
		seats = req.TotalSeats
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), service.CreateRideRequest{
		DriverID:         req.DriverID,
		DriverName:       req.DriverName,
		Route:            req.Route,
		DepartureDate:    req.DepartureDate,
		DepartureTime:    req.DepartureTime,
		Seats:            seats,
		Price:            req.Price,
		CarInfo:          req.CarInfo,
		CarNumber:        req.CarNumber,
		TelegramUsername: req.TelegramUsername,
		CarPhoto:         req.CarPhoto,
		Description:      req.Description,
		LocationLat:      req.LocationLat,
		LocationLon:      req.LocationLon,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CreateRideResponse{Success: true, RideID: ride.ID, Ride: ride})
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	ride, err := h.rideService.GetRide(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if ride == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ride not found"})
		return
	}

	respondJSON(c, http.StatusOK, RideResponse{Success: true, Ride: ride})
}

// ListAvailable handles GET /v1/rides
//
// Passengers only see rides that still have a free seat.
func (h *RideHandler) ListAvailable(c *gin.Context) {
	rides := make([]*domain.Ride, 0)
	for _, r := range h.rideService.ListActiveRides(c.Request.Context()) {
		if r.AvailableSeats > 0 {
			rides = append(rides, r)
		}
	}

	respondJSON(c, http.StatusOK, RidesResponse{Success: true, Rides: rides})
}

// ListByDriver handles GET /v1/drivers/:id/rides
func (h *RideHandler) ListByDriver(c *gin.Context) {
	driverID, ok := paramID(c, "id")
	if !ok {
		return
	}

	rides := h.rideService.ListRidesByDriver(c.Request.Context(), driverID)
	respondJSON(c, http.StatusOK, RidesResponse{Success: true, Rides: rides})
}

// DeleteRide handles DELETE /v1/rides/:id
func (h *RideHandler) DeleteRide(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	result, err := h.rideService.DeleteRide(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if result.Affected == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ride not found"})
		return
	}

	respondJSON(c, http.StatusOK, DeleteRideResponse{Success: true, Passengers: result.Passengers})
}
