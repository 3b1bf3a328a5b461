package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dormride/internal/service"
)

// AdminHandler serves the operator endpoints.
type AdminHandler struct {
	rideService *service.RideService
	sweeper     *service.ExpirySweeper
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(rideService *service.RideService, sweeper *service.ExpirySweeper) *AdminHandler {
	return &AdminHandler{
		rideService: rideService,
		sweeper:     sweeper,
	}
}

// CleanupResponse reports the result of an on-demand sweep.
type CleanupResponse struct {
	Success      bool `json:"success"`
	DeletedCount int  `json:"deleted_count"`
}

// AllRides handles GET /v1/admin/rides
func (h *AdminHandler) AllRides(c *gin.Context) {
	respondJSON(c, http.StatusOK, RidesResponse{Success: true, Rides: h.rideService.AllRides(c.Request.Context())})
}

// AllBookings handles GET /v1/admin/bookings
func (h *AdminHandler) AllBookings(c *gin.Context) {
	respondJSON(c, http.StatusOK, BookingsResponse{Success: true, Bookings: h.rideService.AllBookings(c.Request.Context())})
}

// Cleanup handles POST /v1/admin/cleanup
func (h *AdminHandler) Cleanup(c *gin.Context) {
	count, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CleanupResponse{Success: true, DeletedCount: count})
}
