package tutor

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

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

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/tutors/:id", h.GetProfile)

	tutors := protected.Group("/tutors", middleware.RequireRole(domain.RoleTutor))
	{
		tutors.POST("", h.CreateProfile)
		tutors.GET("/me", h.GetMyProfile)
		tutors.PATCH("/me", h.UpdateProfile)
		tutors.GET("/me/stats", h.GetStats)
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, ErrProfileExists) {
		response.Error(c, http.StatusConflict, "PROFILE_EXISTS", "Tutor profile already exists")
		return
	}
	response.FromError(c, h.log, err)
}

func (h *Handler) CreateProfile(c *gin.Context) {
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid tutor profile", errs)
		return
	}

	p, err := h.service.CreateProfile(c.Request.Context(),
		c.GetInt64(middleware.UserIDKey), domain.UserRole(c.GetString(middleware.RoleKey)), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"tutor": p})
}

func (h *Handler) GetProfile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid tutor ID")
		return
	}

	p, err := h.service.GetProfile(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tutor": p})
}

func (h *Handler) GetMyProfile(c *gin.Context) {
	p, err := h.service.ProfileByUser(c.Request.Context(), c.GetInt64(middleware.UserIDKey))
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tutor": p})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid tutor profile", errs)
		return
	}

	p, err := h.service.UpdateProfile(c.Request.Context(), c.GetInt64(middleware.UserIDKey), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tutor": p})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), c.GetInt64(middleware.UserIDKey))
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}
