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

type TutorRepository struct {
	db *gorm.DB
}

func NewTutorRepository(db *gorm.DB) *TutorRepository {
	return &TutorRepository{db: db}
}

type tutorProfileModel struct {
	ID            int64           `gorm:"column:id;primaryKey"`
	UserID        int64           `gorm:"column:user_id;not null;uniqueIndex"`
	Headline      string          `gorm:"column:headline;type:varchar(255)"`
	Bio           *string         `gorm:"column:bio;type:text"`
	HourlyRate    decimal.Decimal `gorm:"column:hourly_rate;type:numeric(10,2);not null"`
	Rating        float64         `gorm:"column:rating;type:numeric(3,2);not null"`
	TotalReviews  int             `gorm:"column:total_reviews;not null"`
	TotalSessions int             `gorm:"column:total_sessions;not null"`
	TotalEarnings decimal.Decimal `gorm:"column:total_earnings;type:numeric(12,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`

	User *userModel `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (tutorProfileModel) TableName() string { return "tutor_profiles" }

func toDomainTutor(m tutorProfileModel) *domain.TutorProfile {
	var bio string
	if m.Bio != nil {
		bio = *m.Bio
	}

	return &domain.TutorProfile{
		ID:            m.ID,
		UserID:        m.UserID,
		Headline:      m.Headline,
		Bio:           bio,
		HourlyRate:    m.HourlyRate,
		Rating:        m.Rating,
		TotalReviews:  m.TotalReviews,
		TotalSessions: m.TotalSessions,
		TotalEarnings: m.TotalEarnings,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toTutorModel(p *domain.TutorProfile) tutorProfileModel {
	var bio *string
	if p.Bio != "" {
		v := p.Bio
		bio = &v
	}

	return tutorProfileModel{
		ID:            p.ID,
		UserID:        p.UserID,
		Headline:      p.Headline,
		Bio:           bio,
		HourlyRate:    p.HourlyRate,
		Rating:        p.Rating,
		TotalReviews:  p.TotalReviews,
		TotalSessions: p.TotalSessions,
		TotalEarnings: p.TotalEarnings,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (r *TutorRepository) Create(ctx context.Context, p *domain.TutorProfile) error {
	const op = "repository.TutorRepository.Create"

	m := toTutorModel(p)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	*p = *toDomainTutor(m)
	return nil
}

func (r *TutorRepository) GetByID(ctx context.Context, id int64) (*domain.TutorProfile, error) {
	const op = "repository.TutorRepository.GetByID"

	var m tutorProfileModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFound(op, err)
	}
	return toDomainTutor(m), nil
}

func (r *TutorRepository) GetByUserID(ctx context.Context, userID int64) (*domain.TutorProfile, error) {
	const op = "repository.TutorRepository.GetByUserID"

	var m tutorProfileModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		return nil, notFound(op, err)
	}
	return toDomainTutor(m), nil
}

// LockByID reads the profile row with FOR UPDATE. Every write that depends
// on the tutor's bookings or aggregates goes through this row first.
func (r *TutorRepository) LockByID(ctx context.Context, id int64) (*domain.TutorProfile, error) {
	const op = "repository.TutorRepository.LockByID"

	var m tutorProfileModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id).Error
	if err != nil {
		return nil, notFound(op, err)
	}
	return toDomainTutor(m), nil
}

func (r *TutorRepository) UpdateDetails(ctx context.Context, p *domain.TutorProfile) error {
	const op = "repository.TutorRepository.UpdateDetails"

	m := toTutorModel(p)
	err := r.db.WithContext(ctx).Model(&tutorProfileModel{}).
		Where("id = ?", p.ID).
		Updates(map[string]any{
			"headline":    m.Headline,
			"bio":         m.Bio,
			"hourly_rate": m.HourlyRate,
			"updated_at":  time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetSessionTotals stores the completed-session counters. Callers hold the
// row lock and pass the already incremented values.
func (r *TutorRepository) SetSessionTotals(ctx context.Context, id int64, sessions int, earnings decimal.Decimal) error {
	const op = "repository.TutorRepository.SetSessionTotals"

	err := r.db.WithContext(ctx).Model(&tutorProfileModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_sessions": sessions,
			"total_earnings": earnings,
			"updated_at":     time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *TutorRepository) SetRating(ctx context.Context, id int64, rating float64, reviews int) error {
	const op = "repository.TutorRepository.SetRating"

	err := r.db.WithContext(ctx).Model(&tutorProfileModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"rating":        rating,
			"total_reviews": reviews,
			"updated_at":    time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *TutorRepository) ListIDs(ctx context.Context) ([]int64, error) {
	const op = "repository.TutorRepository.ListIDs"

	var ids []int64
	if err := r.db.WithContext(ctx).Model(&tutorProfileModel{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}
