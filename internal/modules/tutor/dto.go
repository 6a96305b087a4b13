package tutor

import "github.com/shopspring/decimal"

type CreateProfileRequest struct {
	Headline   string          `json:"headline" validate:"max=255"`
	Bio        string          `json:"bio" validate:"max=5000"`
	HourlyRate decimal.Decimal `json:"hourly_rate" binding:"required"`
}

// UpdateProfileRequest is a partial update; nil fields are left as they are.
type UpdateProfileRequest struct {
	Headline   *string          `json:"headline" validate:"omitempty,max=255"`
	Bio        *string          `json:"bio" validate:"omitempty,max=5000"`
	HourlyRate *decimal.Decimal `json:"hourly_rate"`
}
