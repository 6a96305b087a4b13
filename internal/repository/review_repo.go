package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tutorbook/internal/domain"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

type reviewModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	StudentID int64     `gorm:"column:student_id;not null;index"`
	TutorID   int64     `gorm:"column:tutor_id;not null;index"`
	BookingID int64     `gorm:"column:booking_id;not null;uniqueIndex"`
	Rating    int       `gorm:"column:rating;not null;check:rating BETWEEN 1 AND 5"`
	Comment   *string   `gorm:"column:comment;type:text"`
	CreatedAt time.Time `gorm:"column:created_at"`

	Booking *bookingModel `gorm:"foreignKey:BookingID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (reviewModel) TableName() string { return "reviews" }

func toDomainReview(m reviewModel) domain.Review {
	var comment string
	if m.Comment != nil {
		comment = *m.Comment
	}

	return domain.Review{
		ID:        m.ID,
		StudentID: m.StudentID,
		TutorID:   m.TutorID,
		BookingID: m.BookingID,
		Rating:    m.Rating,
		Comment:   comment,
		CreatedAt: m.CreatedAt,
	}
}

func toReviewModel(r *domain.Review) reviewModel {
	return reviewModel{
		ID:        r.ID,
		StudentID: r.StudentID,
		TutorID:   r.TutorID,
		BookingID: r.BookingID,
		Rating:    r.Rating,
		Comment:   optional(r.Comment),
		CreatedAt: r.CreatedAt,
	}
}

func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	const op = "repository.ReviewRepository.Create"

	m := toReviewModel(rv)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	*rv = toDomainReview(m)
	return nil
}

func (r *ReviewRepository) ExistsForBooking(ctx context.Context, bookingID int64) (bool, error) {
	const op = "repository.ReviewRepository.ExistsForBooking"

	var n int64
	if err := r.db.WithContext(ctx).Model(&reviewModel{}).Where("booking_id = ?", bookingID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

func (r *ReviewRepository) ListByTutor(ctx context.Context, tutorID int64, limit, offset int) ([]domain.Review, error) {
	const op = "repository.ReviewRepository.ListByTutor"

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	var rows []reviewModel
	err := r.db.WithContext(ctx).
		Where("tutor_id = ?", tutorID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]domain.Review, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainReview(m))
	}
	return out, nil
}

// RatingAggregate is the review count and the mean rating rounded to two
// decimals.
type RatingAggregate struct {
	TutorID int64
	Count   int
	Average float64
}

type ratingRow struct {
	TutorID   int64
	Total     int64
	RatingSum int64
}

func (row ratingRow) aggregate() RatingAggregate {
	agg := RatingAggregate{TutorID: row.TutorID, Count: int(row.Total)}
	if row.Total > 0 {
		agg.Average = math.Round(float64(row.RatingSum)/float64(row.Total)*100) / 100
	}
	return agg
}

func (r *ReviewRepository) Aggregate(ctx context.Context, tutorID int64) (RatingAggregate, error) {
	const op = "repository.ReviewRepository.Aggregate"

	var row ratingRow
	err := r.db.WithContext(ctx).Model(&reviewModel{}).
		Select("tutor_id, COUNT(*) AS total, COALESCE(SUM(rating), 0) AS rating_sum").
		Where("tutor_id = ?", tutorID).
		Group("tutor_id").
		Scan(&row).Error
	if err != nil {
		return RatingAggregate{}, fmt.Errorf("%s: %w", op, err)
	}
	row.TutorID = tutorID
	return row.aggregate(), nil
}

func (r *ReviewRepository) AggregateAll(ctx context.Context) (map[int64]RatingAggregate, error) {
	const op = "repository.ReviewRepository.AggregateAll"

	var rows []ratingRow
	err := r.db.WithContext(ctx).Model(&reviewModel{}).
		Select("tutor_id, COUNT(*) AS total, COALESCE(SUM(rating), 0) AS rating_sum").
		Group("tutor_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make(map[int64]RatingAggregate, len(rows))
	for _, row := range rows {
		out[row.TutorID] = row.aggregate()
	}
	return out, nil
}
