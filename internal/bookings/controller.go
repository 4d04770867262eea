package bookings

import (
	"errors"
	"net/http"

	"ticketing/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

// Reserve handles POST /api/v1/shows/:id/bookings
func (c *Controller) Reserve(ctx *gin.Context) {
	showID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid show ID", nil, err.Error())
		return
	}

	var req ReserveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	outcome, err := c.service.Reserve(ctx.Request.Context(), showID, req.Seats, req.UserName)
	if err != nil {
		var rangeErr *InvalidSeatRangeError
		switch {
		case errors.Is(err, ErrShowNotFound):
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Show not found", nil, nil)
		case errors.As(err, &rangeErr):
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid seat numbers", nil, gin.H{
				"invalid_seats": rangeErr.Seats,
				"total_seats":   rangeErr.TotalSeats,
			})
		case errors.Is(err, ErrNoSeatsRequested):
			response.RespondJSON(ctx, "error", http.StatusBadRequest, err.Error(), nil, nil)
		default:
			_ = ctx.Error(err)
			response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Reservation failed, please retry", nil, nil)
		}
		return
	}

	if !outcome.Confirmed() {
		response.RespondJSON(ctx, "error", http.StatusConflict, outcome.Reason, outcome, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking confirmed", outcome, nil)
}

// GetBooking handles GET /api/v1/bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	details, err := c.service.GetBooking(ctx.Request.Context(), bookingID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Booking not found", nil, nil)
			return
		}
		_ = ctx.Error(err)
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to load booking", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", details, nil)
}

// GetAvailability handles GET /api/v1/shows/:id/availability
func (c *Controller) GetAvailability(ctx *gin.Context) {
	showID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid show ID", nil, err.Error())
		return
	}

	availability, err := c.service.GetShowAvailability(ctx.Request.Context(), showID)
	if err != nil {
		if errors.Is(err, ErrShowNotFound) {
			response.RespondJSON(ctx, "error", http.StatusNotFound, "Show not found", nil, nil)
			return
		}
		_ = ctx.Error(err)
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to load availability", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability retrieved successfully", availability, nil)
}
