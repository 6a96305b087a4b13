package booking

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tutorbook/internal/domain"
	"tutorbook/internal/pkg/timeutil"
)

var minutesPerHour = decimal.NewFromInt(60)

// Price returns hourlyRate × duration in hours, rounded half-up to cents.
func Price(hourlyRate decimal.Decimal, startTime, endTime string) (decimal.Decimal, error) {
	start, err := timeutil.ParseClock(startTime)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: start_time: %v", domain.ErrInvalidInput, err)
	}
	end, err := timeutil.ParseClock(endTime)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: end_time: %v", domain.ErrInvalidInput, err)
	}
	if end-start <= 0 {
		return decimal.Zero, domain.ErrInvalidDuration
	}
	if !hourlyRate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: hourly rate must be positive", domain.ErrInvalidInput)
	}

	minutes := decimal.NewFromInt(int64(end - start))
	return hourlyRate.Mul(minutes).Div(minutesPerHour).Round(2), nil
}
