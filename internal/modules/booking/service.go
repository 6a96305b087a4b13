package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"tutorbook/internal/domain"
	"tutorbook/internal/pkg/lock"
	"tutorbook/internal/pkg/logger"
	"tutorbook/internal/pkg/timeutil"
	"tutorbook/internal/repository"
)

const (
	DefaultStoreTimeout = 5 * time.Second
	DefaultLockTTL      = 10 * time.Second
)

// Recorder receives booking lifecycle events for metrics.
type Recorder interface {
	BookingCreated()
	BookingRejected(reason string)
	BookingTransitioned(to domain.BookingStatus)
}

type noopRecorder struct{}

func (noopRecorder) BookingCreated()                          {}
func (noopRecorder) BookingRejected(string)                   {}
func (noopRecorder) BookingTransitioned(domain.BookingStatus) {}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID int64
	Role   domain.UserRole
}

type Options struct {
	StoreTimeout time.Duration
	LockTTL      time.Duration
	Now          func() time.Time
}

// Service is the booking lifecycle manager. It is the only writer of booking
// status and of the tutor session totals.
type Service struct {
	store   *repository.Store
	locker  lock.Locker
	metrics Recorder
	log     *slog.Logger
	now     func() time.Time
	timeout time.Duration
	lockTTL time.Duration
}

func NewService(store *repository.Store, locker lock.Locker, metrics Recorder, log *slog.Logger, opts Options) *Service {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	if log == nil {
		log = logger.Discard()
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = DefaultLockTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		store:   store,
		locker:  locker,
		metrics: metrics,
		log:     log,
		now:     opts.Now,
		timeout: opts.StoreTimeout,
		lockTTL: opts.LockTTL,
	}
}

func tutorLockKey(id int64) string   { return "booking:tutor:" + strconv.FormatInt(id, 10) }
func studentLockKey(id int64) string { return "booking:student:" + strconv.FormatInt(id, 10) }

// Create admits and persists a new CONFIRMED booking for studentID.
func (s *Service) Create(ctx context.Context, studentID int64, req CreateBookingRequest) (*domain.Booking, error) {
	const op = "booking.Service.Create"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("student_id", studentID),
		slog.Int64("tutor_id", req.TutorID),
		slog.String("session_date", req.SessionDate),
	)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	release, err := lock.AcquireAll(ctx, s.locker, s.lockTTL, tutorLockKey(req.TutorID), studentLockKey(studentID))
	if err != nil {
		log.Warn("booking locks not acquired", logger.Err(err))
		s.metrics.BookingRejected(rejectReason(err))
		return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}
	defer release()

	slot := Slot{
		TutorID:   req.TutorID,
		StudentID: studentID,
		Date:      req.SessionDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}

	var created *domain.Booking
	err = s.store.WithinTx(ctx, func(tx *repository.Store) error {
		tutor, err := tx.Tutors().LockByID(ctx, req.TutorID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrTutorNotFound
			}
			return err
		}
		if tutor.UserID == studentID {
			return fmt.Errorf("%w: tutors cannot book themselves", domain.ErrForbidden)
		}

		if _, err := tx.Users().LockByID(ctx, studentID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: unknown student", domain.ErrForbidden)
			}
			return err
		}

		var windows []domain.AvailabilityWindow
		if weekday, err := timeutil.Weekday(req.SessionDate); err == nil {
			windows, err = tx.Availability().FindActive(ctx, req.TutorID, weekday)
			if err != nil {
				return err
			}
		}

		existing, err := tx.Bookings().ListLiveOnDate(ctx, req.TutorID, studentID, req.SessionDate)
		if err != nil {
			return err
		}

		if err := CheckAdmissible(s.now(), slot, windows, existing); err != nil {
			return err
		}

		price, err := Price(tutor.HourlyRate, req.StartTime, req.EndTime)
		if err != nil {
			return err
		}

		b := &domain.Booking{
			StudentID:   studentID,
			TutorID:     req.TutorID,
			Subject:     req.Subject,
			SessionDate: req.SessionDate,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Price:       price,
			Status:      domain.BookingConfirmed,
			Notes:       req.Notes,
		}
		if err := tx.Bookings().Create(ctx, b); err != nil {
			if repository.IsUniqueViolation(err) {
				return &domain.DoubleBookingError{Party: "student", StartTime: req.StartTime, EndTime: req.EndTime}
			}
			return err
		}

		created = b
		return nil
	})
	if err != nil {
		err = repository.Classify(err)
		s.metrics.BookingRejected(rejectReason(err))
		log.Info("booking rejected", logger.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.BookingCreated()
	log.Info("booking created",
		slog.Int64("booking_id", created.ID),
		slog.String("price", created.Price.StringFixed(2)),
	)
	return created, nil
}

// Complete moves a CONFIRMED booking owned by the tutor to COMPLETED and
// adds it to the tutor's session totals.
func (s *Service) Complete(ctx context.Context, bookingID, tutorUserID int64) (*domain.Booking, error) {
	const op = "booking.Service.Complete"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var done *domain.Booking
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		profile, err := tx.Tutors().GetByUserID(ctx, tutorUserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: caller has no tutor profile", domain.ErrForbidden)
			}
			return err
		}

		b, err := lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.TutorID != profile.ID {
			return domain.ErrForbidden
		}
		if b.Status != domain.BookingConfirmed {
			return fmt.Errorf("%w: booking is %s", domain.ErrInvalidTransition, b.Status)
		}

		tutor, err := tx.Tutors().LockByID(ctx, b.TutorID)
		if err != nil {
			return err
		}

		now := s.now()
		b.Status = domain.BookingCompleted
		b.CompletedAt = &now
		if err := tx.Bookings().SaveTransition(ctx, b, domain.BookingConfirmed); err != nil {
			return err
		}

		if err := tx.Tutors().SetSessionTotals(ctx, tutor.ID, tutor.TotalSessions+1, tutor.TotalEarnings.Add(b.Price)); err != nil {
			return err
		}

		done = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}

	s.metrics.BookingTransitioned(domain.BookingCompleted)
	s.log.Info("booking completed",
		slog.String("op", op),
		slog.Int64("booking_id", done.ID),
		slog.Int64("tutor_id", done.TutorID),
	)
	return done, nil
}

// Cancel moves a CONFIRMED booking to CANCELLED. The booking's student and
// its tutor may both cancel; the side is recorded in CancelledBy.
func (s *Service) Cancel(ctx context.Context, bookingID int64, actor Actor, reason string) (*domain.Booking, error) {
	const op = "booking.Service.Cancel"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var done *domain.Booking
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		var tutorProfileID int64
		if actor.Role == domain.RoleTutor {
			profile, err := tx.Tutors().GetByUserID(ctx, actor.UserID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			if profile != nil {
				tutorProfileID = profile.ID
			}
		}

		b, err := lockBooking(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		var by domain.CancelledBy
		switch {
		case b.StudentID == actor.UserID:
			by = domain.CancelledByStudent
		case tutorProfileID != 0 && b.TutorID == tutorProfileID:
			by = domain.CancelledByTutor
		default:
			return domain.ErrForbidden
		}

		if b.Status != domain.BookingConfirmed {
			return fmt.Errorf("%w: booking is %s", domain.ErrInvalidTransition, b.Status)
		}

		now := s.now()
		b.Status = domain.BookingCancelled
		b.CancelledAt = &now
		b.CancelledBy = by
		b.CancellationReason = reason
		if err := tx.Bookings().SaveTransition(ctx, b, domain.BookingConfirmed); err != nil {
			return err
		}

		done = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}

	s.metrics.BookingTransitioned(domain.BookingCancelled)
	s.log.Info("booking cancelled",
		slog.String("op", op),
		slog.Int64("booking_id", done.ID),
		slog.String("cancelled_by", string(done.CancelledBy)),
	)
	return done, nil
}

// ListForUser returns the caller's bookings. Students see their own, tutors
// see bookings against their profile and admins see everything.
func (s *Service) ListForUser(ctx context.Context, actor Actor, q ListBookingsQuery) ([]domain.Booking, error) {
	const op = "booking.Service.ListForUser"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter, err := q.filter()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch actor.Role {
	case domain.RoleStudent:
		filter.StudentID = &actor.UserID
	case domain.RoleTutor:
		profile, err := s.store.Tutors().GetByUserID(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%s: %w", op, domain.ErrTutorProfileNotFound)
			}
			return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
		}
		filter.TutorID = &profile.ID
	case domain.RoleAdmin:
	default:
		return nil, fmt.Errorf("%s: %w", op, domain.ErrForbidden)
	}

	out, err := s.store.Bookings().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}
	return out, nil
}

// Get returns one booking visible to the caller.
func (s *Service) Get(ctx context.Context, bookingID int64, actor Actor) (*domain.Booking, error) {
	const op = "booking.Service.Get"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	b, err := s.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, domain.ErrBookingNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
	}

	switch {
	case actor.Role == domain.RoleAdmin:
		return b, nil
	case b.StudentID == actor.UserID:
		return b, nil
	case actor.Role == domain.RoleTutor:
		profile, err := s.store.Tutors().GetByUserID(ctx, actor.UserID)
		if err == nil && profile.ID == b.TutorID {
			return b, nil
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, repository.Classify(err))
		}
	}
	return nil, fmt.Errorf("%s: %w", op, domain.ErrForbidden)
}

func lockBooking(ctx context.Context, tx *repository.Store, id int64) (*domain.Booking, error) {
	b, err := tx.Bookings().LockByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrTransient):
		return "transient"
	case errors.Is(err, lock.ErrTimeout):
		return "transient"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrNoAvailability):
		return "no_availability"
	case errors.Is(err, domain.ErrOutsideWindow):
		return "outside_window"
	case errors.Is(err, domain.ErrDoubleBooking):
		return "double_booking"
	case errors.Is(err, domain.ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
