package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tutorbook/internal/domain"
	"tutorbook/internal/pkg/logger"
	"tutorbook/internal/repository"
)

// Recorder receives review events for metrics.
type Recorder interface {
	ReviewCreated()
}

type noopRecorder struct{}

func (noopRecorder) ReviewCreated() {}

// Service is the rating aggregator. It is the only writer of a tutor's
// rating and review count.
type Service struct {
	store   *repository.Store
	metrics Recorder
	timeout time.Duration
	log     *slog.Logger
}

func NewService(store *repository.Store, metrics Recorder, timeout time.Duration, log *slog.Logger) *Service {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{store: store, metrics: metrics, timeout: timeout, log: log}
}

// AttachReview stores the student's review of a completed booking and
// recomputes the tutor's aggregate in the same transaction.
func (s *Service) AttachReview(ctx context.Context, studentID int64, req CreateReviewRequest) (*domain.Review, error) {
	const op = "review.Service.AttachReview"

	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%s: %w: rating must be 1-5", op, domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		created *domain.Review
		agg     repository.RatingAggregate
	)
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		b, err := tx.Bookings().LockByID(ctx, req.BookingID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrBookingNotFound
			}
			return err
		}
		if b.StudentID != studentID {
			return domain.ErrForbidden
		}
		if b.Status != domain.BookingCompleted {
			return domain.ErrBookingNotCompleted
		}

		tutor, err := tx.Tutors().LockByID(ctx, b.TutorID)
		if err != nil {
			return err
		}

		exists, err := tx.Reviews().ExistsForBooking(ctx, b.ID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrAlreadyReviewed
		}

		rv := &domain.Review{
			StudentID: studentID,
			TutorID:   tutor.ID,
			BookingID: b.ID,
			Rating:    req.Rating,
			Comment:   req.Comment,
		}
		if err := tx.Reviews().Create(ctx, rv); err != nil {
			if repository.IsUniqueViolation(err) {
				return domain.ErrAlreadyReviewed
			}
			return err
		}

		agg, err = tx.Reviews().Aggregate(ctx, tutor.ID)
		if err != nil {
			return err
		}
		if err := tx.Tutors().SetRating(ctx, tutor.ID, agg.Average, agg.Count); err != nil {
			return err
		}

		created = rv
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}

	s.metrics.ReviewCreated()
	s.log.Info("review attached",
		slog.Int64("review_id", created.ID),
		slog.Int64("booking_id", created.BookingID),
		slog.Int64("tutor_id", created.TutorID),
		slog.Float64("rating", agg.Average),
		slog.Int("total_reviews", agg.Count),
	)
	return created, nil
}

// ListForTutor returns the tutor's reviews, newest first.
func (s *Service) ListForTutor(ctx context.Context, tutorID int64, limit, offset int) ([]domain.Review, error) {
	const op = "review.Service.ListForTutor"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.store.Reviews().ListByTutor(ctx, tutorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}
	return out, nil
}

// RecomputeAll re-derives every tutor's rating and review count from the
// review table and returns how many profiles changed.
func (s *Service) RecomputeAll(ctx context.Context) (int, error) {
	const op = "review.Service.RecomputeAll"

	ids, err := s.store.Tutors().ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}

	updated := 0
	for _, id := range ids {
		changed, err := s.recompute(ctx, id)
		if err != nil {
			return updated, fmt.Errorf("%s: tutor %d: %w", op, id, repository.Classify(err))
		}
		if changed {
			updated++
		}
	}
	return updated, nil
}

func (s *Service) recompute(ctx context.Context, tutorID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	changed := false
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		tutor, err := tx.Tutors().LockByID(ctx, tutorID)
		if err != nil {
			return err
		}
		agg, err := tx.Reviews().Aggregate(ctx, tutorID)
		if err != nil {
			return err
		}
		if tutor.TotalReviews == agg.Count && tutor.Rating == agg.Average {
			return nil
		}

		s.log.Warn("tutor rating drifted",
			slog.Int64("tutor_id", tutorID),
			slog.Float64("stored_rating", tutor.Rating),
			slog.Float64("actual_rating", agg.Average),
			slog.Int("stored_reviews", tutor.TotalReviews),
			slog.Int("actual_reviews", agg.Count),
		)
		changed = true
		return tx.Tutors().SetRating(ctx, tutorID, agg.Average, agg.Count)
	})
	return changed, err
}
