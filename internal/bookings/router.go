package bookings

import "github.com/gin-gonic/gin"

// SetupBookingRoutes configures all booking-related routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	shows := rg.Group("/shows")
	{
		shows.POST("/:id/bookings", controller.Reserve)            // POST /api/v1/shows/:id/bookings
		shows.GET("/:id/availability", controller.GetAvailability) // GET /api/v1/shows/:id/availability
	}

	bookings := rg.Group("/bookings")
	{
		bookings.GET("/:id", controller.GetBooking) // GET /api/v1/bookings/:id
	}
}

// Route definitions for reference:
//
// RESERVATION
// POST   /api/v1/shows/:id/bookings       - Reserve seats, all or nothing
// Request body: { "seats": [3, 4], "user_name": "Asha" }
// 201 with the confirmed seats, 409 with the seats already taken
//
// LOOKUPS
// GET    /api/v1/bookings/:id             - Booking with show name, start time and seats
// GET    /api/v1/shows/:id/availability   - Reserved and available seat numbers
