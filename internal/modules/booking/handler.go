package booking

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tutorbook/internal/domain"
	"tutorbook/internal/middleware"
	"tutorbook/internal/pkg/response"
	"tutorbook/internal/pkg/retry"
	"tutorbook/internal/pkg/validator"
	"tutorbook/internal/repository"
)

type Handler struct {
	service *Service
	log     *slog.Logger
}

func NewHandler(service *Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes expects rg to be behind JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	{
		bookings.POST("", middleware.RequireRole(domain.RoleStudent), h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/complete", middleware.RequireRole(domain.RoleTutor), h.CompleteBooking)
		bookings.POST("/:id/cancel", middleware.RequireRole(domain.RoleStudent, domain.RoleTutor), h.CancelBooking)
	}
}

func actorFrom(c *gin.Context) Actor {
	return Actor{
		UserID: c.GetInt64(middleware.UserIDKey),
		Role:   domain.UserRole(c.GetString(middleware.RoleKey)),
	}
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking request", errs)
		return
	}

	studentID := c.GetInt64(middleware.UserIDKey)
	b, err := retry.Once(c.Request.Context(), retry.DefaultBackoff, func(ctx context.Context) (*domain.Booking, error) {
		return h.service.Create(ctx, studentID, req)
	})
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, BookingResponse{Booking: b})
}

func (h *Handler) ListBookings(c *gin.Context) {
	var q ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}
	if errs := validator.Validate(q); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters", errs)
		return
	}

	list, err := h.service.ListForUser(c.Request.Context(), actorFrom(c), q)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	limit := q.Limit
	if limit == 0 {
		limit = repository.DefaultListLimit
	}
	response.Success(c, http.StatusOK, BookingListResponse{Bookings: list, Limit: limit, Offset: q.Offset})
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	b, err := h.service.Get(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, BookingResponse{Booking: b})
}

func (h *Handler) CompleteBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	tutorUserID := c.GetInt64(middleware.UserIDKey)
	b, err := retry.Once(c.Request.Context(), retry.DefaultBackoff, func(ctx context.Context) (*domain.Booking, error) {
		return h.service.Complete(ctx, id, tutorUserID)
	})
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, BookingResponse{Booking: b})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req CancelBookingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
			return
		}
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid cancel request", errs)
		return
	}

	actor := actorFrom(c)
	b, err := retry.Once(c.Request.Context(), retry.DefaultBackoff, func(ctx context.Context) (*domain.Booking, error) {
		return h.service.Cancel(ctx, id, actor, req.Reason)
	})
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, BookingResponse{Booking: b})
}
