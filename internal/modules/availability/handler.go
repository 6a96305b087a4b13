package availability

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tutorbook/internal/domain"
	"tutorbook/internal/middleware"
	"tutorbook/internal/pkg/response"
	"tutorbook/internal/pkg/validator"
)

type Handler struct {
	service *Service
	log     *slog.Logger
}

func NewHandler(service *Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes mounts the public read route on public and the tutor
// writes on protected.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/tutors/:id/availability", h.GetTutorAvailability)

	windows := protected.Group("/availability", middleware.RequireRole(domain.RoleTutor))
	{
		windows.POST("", h.CreateWindow)
		windows.PUT("/:id", h.UpdateWindow)
		windows.DELETE("/:id", h.DeactivateWindow)
	}
}

func pathID(c *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+what+" ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) GetTutorAvailability(c *gin.Context) {
	tutorID, ok := pathID(c, "tutor")
	if !ok {
		return
	}

	var (
		windows []domain.AvailabilityWindow
		err     error
	)
	if raw := c.Query("day"); raw != "" {
		day, convErr := strconv.Atoi(raw)
		if convErr != nil || day < 0 || day > 6 {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "day must be 0-6")
			return
		}
		windows, err = h.service.FindWindows(c.Request.Context(), tutorID, time.Weekday(day))
	} else {
		windows, err = h.service.ListWindows(c.Request.Context(), tutorID)
	}
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"windows": windows})
}

func (h *Handler) CreateWindow(c *gin.Context) {
	var req WindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid availability window", errs)
		return
	}

	w, err := h.service.CreateWindow(c.Request.Context(), c.GetInt64(middleware.UserIDKey), *req.DayOfWeek, req.StartTime, req.EndTime)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"window": w})
}

func (h *Handler) UpdateWindow(c *gin.Context) {
	id, ok := pathID(c, "window")
	if !ok {
		return
	}

	var req UpdateWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid availability window", errs)
		return
	}

	w, err := h.service.UpdateWindow(c.Request.Context(), c.GetInt64(middleware.UserIDKey), id,
		*req.DayOfWeek, req.StartTime, req.EndTime, *req.IsActive)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"window": w})
}

func (h *Handler) DeactivateWindow(c *gin.Context) {
	id, ok := pathID(c, "window")
	if !ok {
		return
	}

	w, err := h.service.DeactivateWindow(c.Request.Context(), c.GetInt64(middleware.UserIDKey), id)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"window": w})
}
