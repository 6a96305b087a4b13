package review

type CreateReviewRequest struct {
	BookingID int64  `json:"booking_id" binding:"required" validate:"required,gt=0"`
	Rating    int    `json:"rating" binding:"required" validate:"required,gte=1,lte=5"`
	Comment   string `json:"comment,omitempty" validate:"max=2000"`
}

type ListReviewsQuery struct {
	Limit  int `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `form:"offset" validate:"omitempty,min=0"`
}
