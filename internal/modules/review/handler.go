package review

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
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	if public != nil {
		public.GET("/tutors/:id/reviews", h.ListForTutor)
	}

	if protected != nil {
		protected.POST("/reviews", middleware.RequireRole(domain.RoleStudent), h.Create)
	}
}

// Create attaches a review to a completed booking.
// @Summary		Review a completed session
// @Tags		Reviews
// @Security	BearerAuth
// @Param		request	body	CreateReviewRequest	true	"booking_id, rating 1-5, comment"
// @Success		201	{object}	map[string]interface{}
// @Failure		400	{object}	map[string]interface{}
// @Failure		403	{object}	map[string]interface{}
// @Failure		409	{object}	map[string]interface{}	"ALREADY_REVIEWED or BOOKING_NOT_COMPLETED"
// @Router		/reviews [POST]
func (h *Handler) Create(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid review", errs)
		return
	}

	studentID := c.GetInt64(middleware.UserIDKey)
	rv, err := retry.Once(c.Request.Context(), retry.DefaultBackoff, func(ctx context.Context) (*domain.Review, error) {
		return h.svc.AttachReview(ctx, studentID, req)
	})
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"review": rv})
}

// ListForTutor returns a page of the tutor's reviews.
// @Summary		Tutor reviews
// @Tags		Reviews
// @Param		id		path	int	true	"Tutor ID"
// @Param		limit	query	int	false	"Page size (max 100)"
// @Param		offset	query	int	false	"Offset"
// @Success		200	{object}	map[string]interface{}
// @Router		/tutors/{id}/reviews [GET]
func (h *Handler) ListForTutor(c *gin.Context) {
	tutorID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || tutorID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid tutor ID")
		return
	}

	var q ListReviewsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}
	if errs := validator.Validate(q); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters", errs)
		return
	}

	list, err := h.svc.ListForTutor(c.Request.Context(), tutorID, q.Limit, q.Offset)
	if err != nil {
		response.FromError(c, h.log, err)
		return
	}

	limit := q.Limit
	if limit == 0 {
		limit = repository.DefaultListLimit
	}
	response.Success(c, http.StatusOK, gin.H{"reviews": list, "limit": limit, "offset": q.Offset})
}
