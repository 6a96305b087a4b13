package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tutorbook/internal/domain"
)

// ExactSlotIndex guards against two live bookings for the same
// (student, tutor, date, start, end) tuple.
const ExactSlotIndex = "idx_bookings_exact_slot"

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID                 int64           `gorm:"column:id;primaryKey"`
	StudentID          int64           `gorm:"column:student_id;not null;index:idx_bookings_student_date,priority:1;uniqueIndex:idx_bookings_exact_slot,priority:1,where:status <> 'CANCELLED'"`
	TutorID            int64           `gorm:"column:tutor_id;not null;index:idx_bookings_tutor_date,priority:1;uniqueIndex:idx_bookings_exact_slot,priority:2,where:status <> 'CANCELLED'"`
	Subject            string          `gorm:"column:subject;type:varchar(255);not null"`
	SessionDate        string          `gorm:"column:session_date;type:varchar(10);not null;index:idx_bookings_student_date,priority:2;index:idx_bookings_tutor_date,priority:2;uniqueIndex:idx_bookings_exact_slot,priority:3,where:status <> 'CANCELLED'"`
	StartTime          string          `gorm:"column:start_time;type:varchar(5);not null;uniqueIndex:idx_bookings_exact_slot,priority:4,where:status <> 'CANCELLED'"`
	EndTime            string          `gorm:"column:end_time;type:varchar(5);not null;uniqueIndex:idx_bookings_exact_slot,priority:5,where:status <> 'CANCELLED'"`
	Price              decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Status             string          `gorm:"column:status;type:varchar(16);not null;index"`
	Notes              *string         `gorm:"column:notes;type:text"`
	CreatedAt          time.Time       `gorm:"column:created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at"`
	CompletedAt        *time.Time      `gorm:"column:completed_at"`
	CancelledAt        *time.Time      `gorm:"column:cancelled_at"`
	CancelledBy        *string         `gorm:"column:cancelled_by;type:varchar(16)"`
	CancellationReason *string         `gorm:"column:cancellation_reason;type:text"`

	Student *userModel         `gorm:"foreignKey:StudentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Tutor   *tutorProfileModel `gorm:"foreignKey:TutorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) *domain.Booking {
	b := &domain.Booking{
		ID:          m.ID,
		StudentID:   m.StudentID,
		TutorID:     m.TutorID,
		Subject:     m.Subject,
		SessionDate: m.SessionDate,
		StartTime:   m.StartTime,
		EndTime:     m.EndTime,
		Price:       m.Price,
		Status:      domain.BookingStatus(m.Status),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		CompletedAt: m.CompletedAt,
		CancelledAt: m.CancelledAt,
	}
	if m.Notes != nil {
		b.Notes = *m.Notes
	}
	if m.CancelledBy != nil {
		b.CancelledBy = domain.CancelledBy(*m.CancelledBy)
	}
	if m.CancellationReason != nil {
		b.CancellationReason = *m.CancellationReason
	}
	return b
}

func toBookingModel(b *domain.Booking) bookingModel {
	return bookingModel{
		ID:                 b.ID,
		StudentID:          b.StudentID,
		TutorID:            b.TutorID,
		Subject:            b.Subject,
		SessionDate:        b.SessionDate,
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		Price:              b.Price,
		Status:             string(b.Status),
		Notes:              optional(b.Notes),
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		CompletedAt:        b.CompletedAt,
		CancelledAt:        b.CancelledAt,
		CancelledBy:        optional(string(b.CancelledBy)),
		CancellationReason: optional(b.CancellationReason),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	const op = "repository.BookingRepository.Create"

	m := toBookingModel(b)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	*b = *toDomainBooking(m)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const op = "repository.BookingRepository.GetByID"

	var m bookingModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFound(op, err)
	}
	return toDomainBooking(m), nil
}

func (r *BookingRepository) LockByID(ctx context.Context, id int64) (*domain.Booking, error) {
	const op = "repository.BookingRepository.LockByID"

	var m bookingModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id).Error
	if err != nil {
		return nil, notFound(op, err)
	}
	return toDomainBooking(m), nil
}

// ListLiveOnDate returns non-cancelled bookings on date that involve either
// the tutor or the student.
func (r *BookingRepository) ListLiveOnDate(ctx context.Context, tutorID, studentID int64, date string) ([]domain.Booking, error) {
	const op = "repository.BookingRepository.ListLiveOnDate"

	var rows []bookingModel
	err := r.db.WithContext(ctx).
		Where("session_date = ? AND status <> ?", date, string(domain.BookingCancelled)).
		Where("(tutor_id = ? OR student_id = ?)", tutorID, studentID).
		Order("start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return toDomainBookings(rows), nil
}

// BookingFilter is the explicit set of optional list filters. Nil or empty
// fields are not applied.
type BookingFilter struct {
	StudentID *int64
	TutorID   *int64
	Status    *domain.BookingStatus
	FromDate  string
	ToDate    string
	Limit     int
	Offset    int
}

func (f BookingFilter) normalized() BookingFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func (r *BookingRepository) List(ctx context.Context, f BookingFilter) ([]domain.Booking, error) {
	const op = "repository.BookingRepository.List"

	f = f.normalized()
	q := r.db.WithContext(ctx).Model(&bookingModel{})
	if f.StudentID != nil {
		q = q.Where("student_id = ?", *f.StudentID)
	}
	if f.TutorID != nil {
		q = q.Where("tutor_id = ?", *f.TutorID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.FromDate != "" {
		q = q.Where("session_date >= ?", f.FromDate)
	}
	if f.ToDate != "" {
		q = q.Where("session_date <= ?", f.ToDate)
	}

	var rows []bookingModel
	err := q.Order("session_date ASC").Order("start_time ASC").Order("id ASC").
		Limit(f.Limit).Offset(f.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return toDomainBookings(rows), nil
}

// SaveTransition persists the status fields of a booking that moved to a
// terminal state. The status guard makes the write a no-op if another writer
// got there first.
func (r *BookingRepository) SaveTransition(ctx context.Context, b *domain.Booking, from domain.BookingStatus) error {
	const op = "repository.BookingRepository.SaveTransition"

	b.UpdatedAt = time.Now()
	m := toBookingModel(b)
	res := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("id = ? AND status = ?", b.ID, string(from)).
		Updates(map[string]any{
			"status":              m.Status,
			"completed_at":        m.CompletedAt,
			"cancelled_at":        m.CancelledAt,
			"cancelled_by":        m.CancelledBy,
			"cancellation_reason": m.CancellationReason,
			"updated_at":          m.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrInvalidTransition)
	}
	return nil
}

type statusCount struct {
	Status string
	Total  int64
}

func (r *BookingRepository) CountByStatus(ctx context.Context, tutorID int64) (map[domain.BookingStatus]int64, error) {
	const op = "repository.BookingRepository.CountByStatus"

	var rows []statusCount
	err := r.db.WithContext(ctx).Model(&bookingModel{}).
		Select("status, COUNT(*) AS total").
		Where("tutor_id = ?", tutorID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make(map[domain.BookingStatus]int64, len(rows))
	for _, row := range rows {
		out[domain.BookingStatus(row.Status)] = row.Total
	}
	return out, nil
}

func (r *BookingRepository) CountUpcoming(ctx context.Context, tutorID int64, today string) (int64, error) {
	const op = "repository.BookingRepository.CountUpcoming"

	var n int64
	err := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("tutor_id = ? AND status = ? AND session_date >= ?", tutorID, string(domain.BookingConfirmed), today).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func toDomainBookings(rows []bookingModel) []domain.Booking {
	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out
}
