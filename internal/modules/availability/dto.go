package availability

type WindowRequest struct {
	DayOfWeek *int   `json:"day_of_week" binding:"required" validate:"required,min=0,max=6"`
	StartTime string `json:"start_time" binding:"required" validate:"required,hhmm"`
	EndTime   string `json:"end_time" binding:"required" validate:"required,hhmm"`
}

type UpdateWindowRequest struct {
	WindowRequest
	IsActive *bool `json:"is_active" binding:"required" validate:"required"`
}
