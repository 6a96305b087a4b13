package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"tutorbook/internal/domain"
	"tutorbook/internal/pkg/logger"
	"tutorbook/internal/pkg/timeutil"
	"tutorbook/internal/repository"
)

type Service struct {
	store   *repository.Store
	timeout time.Duration
	now     func() time.Time
	log     *slog.Logger
}

func NewService(store *repository.Store, timeout time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{store: store, timeout: timeout, now: time.Now, log: log}
}

func validRate(rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return fmt.Errorf("%w: hourly_rate must be positive", domain.ErrInvalidInput)
	}
	if !rate.Equal(rate.Round(2)) {
		return fmt.Errorf("%w: hourly_rate has more than 2 decimals", domain.ErrInvalidInput)
	}
	return nil
}

// CreateProfile registers the tutor profile of a tutor-role user. A user has
// at most one profile.
func (s *Service) CreateProfile(ctx context.Context, userID int64, role domain.UserRole, req CreateProfileRequest) (*domain.TutorProfile, error) {
	const op = "tutor.Service.CreateProfile"

	if role != domain.RoleTutor {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrForbidden)
	}
	if err := validRate(req.HourlyRate); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.store.Tutors().GetByUserID(ctx, userID); err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrProfileExists)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}

	p := &domain.TutorProfile{
		UserID:        userID,
		Headline:      req.Headline,
		Bio:           req.Bio,
		HourlyRate:    req.HourlyRate,
		TotalEarnings: decimal.Zero,
	}
	if err := s.store.Tutors().Create(ctx, p); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, ErrProfileExists)
		}
		return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}

	s.log.Info("tutor profile created", slog.Int64("tutor_id", p.ID), slog.Int64("user_id", userID))
	return p, nil
}

func (s *Service) GetProfile(ctx context.Context, id int64) (*domain.TutorProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.store.Tutors().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTutorNotFound
		}
		return nil, repository.Classify(err)
	}
	return p, nil
}

func (s *Service) ProfileByUser(ctx context.Context, userID int64) (*domain.TutorProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.profileByUser(ctx, userID)
}

func (s *Service) profileByUser(ctx context.Context, userID int64) (*domain.TutorProfile, error) {
	p, err := s.store.Tutors().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTutorProfileNotFound
		}
		return nil, repository.Classify(err)
	}
	return p, nil
}

// UpdateProfile applies the non-nil fields of req. Aggregates are never
// touched here.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*domain.TutorProfile, error) {
	const op = "tutor.Service.UpdateProfile"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.profileByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.Headline != nil {
		p.Headline = *req.Headline
	}
	if req.Bio != nil {
		p.Bio = *req.Bio
	}
	if req.HourlyRate != nil {
		if err := validRate(*req.HourlyRate); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		p.HourlyRate = *req.HourlyRate
	}

	if err := s.store.Tutors().UpdateDetails(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}
	return p, nil
}

// Stats is the tutor dashboard: booking counts by status, upcoming sessions
// and the stored aggregates.
func (s *Service) Stats(ctx context.Context, userID int64) (*domain.TutorStats, error) {
	const op = "tutor.Service.Stats"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.profileByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	counts, err := s.store.Bookings().CountByStatus(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}

	today := timeutil.FormatDate(timeutil.Today(s.now()))
	upcoming, err := s.store.Bookings().CountUpcoming(ctx, p.ID, today)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}

	return &domain.TutorStats{
		TutorID:          p.ID,
		Confirmed:        counts[domain.BookingConfirmed],
		Completed:        counts[domain.BookingCompleted],
		Cancelled:        counts[domain.BookingCancelled],
		UpcomingSessions: upcoming,
		TotalSessions:    p.TotalSessions,
		TotalEarnings:    p.TotalEarnings,
		Rating:           p.Rating,
		TotalReviews:     p.TotalReviews,
	}, nil
}
