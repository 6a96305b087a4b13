package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"tutorbook/internal/domain"
)

type AvailabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

type availabilityWindowModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	TutorID   int64     `gorm:"column:tutor_id;not null;index:idx_availability_tutor_day,priority:1"`
	DayOfWeek int       `gorm:"column:day_of_week;not null;index:idx_availability_tutor_day,priority:2;check:day_of_week BETWEEN 0 AND 6"`
	StartTime string    `gorm:"column:start_time;type:varchar(5);not null"`
	EndTime   string    `gorm:"column:end_time;type:varchar(5);not null"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`

	Tutor *tutorProfileModel `gorm:"foreignKey:TutorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (availabilityWindowModel) TableName() string { return "availability_windows" }

func toDomainWindow(m availabilityWindowModel) domain.AvailabilityWindow {
	return domain.AvailabilityWindow{
		ID:        m.ID,
		TutorID:   m.TutorID,
		DayOfWeek: m.DayOfWeek,
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toWindowModel(w *domain.AvailabilityWindow) availabilityWindowModel {
	return availabilityWindowModel{
		ID:        w.ID,
		TutorID:   w.TutorID,
		DayOfWeek: w.DayOfWeek,
		StartTime: w.StartTime,
		EndTime:   w.EndTime,
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func (r *AvailabilityRepository) Create(ctx context.Context, w *domain.AvailabilityWindow) error {
	const op = "repository.AvailabilityRepository.Create"

	m := toWindowModel(w)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	*w = toDomainWindow(m)
	return nil
}

func (r *AvailabilityRepository) GetByID(ctx context.Context, id int64) (*domain.AvailabilityWindow, error) {
	const op = "repository.AvailabilityRepository.GetByID"

	var m availabilityWindowModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, notFound(op, err)
	}
	w := toDomainWindow(m)
	return &w, nil
}

func (r *AvailabilityRepository) Update(ctx context.Context, w *domain.AvailabilityWindow) error {
	const op = "repository.AvailabilityRepository.Update"

	w.UpdatedAt = time.Now()
	err := r.db.WithContext(ctx).Model(&availabilityWindowModel{}).
		Where("id = ?", w.ID).
		Updates(map[string]any{
			"day_of_week": w.DayOfWeek,
			"start_time":  w.StartTime,
			"end_time":    w.EndTime,
			"is_active":   w.IsActive,
			"updated_at":  w.UpdatedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindActive returns the tutor's active windows for one weekday ordered by
// start time. An unknown tutor simply has no rows.
func (r *AvailabilityRepository) FindActive(ctx context.Context, tutorID int64, day time.Weekday) ([]domain.AvailabilityWindow, error) {
	const op = "repository.AvailabilityRepository.FindActive"

	var rows []availabilityWindowModel
	err := r.db.WithContext(ctx).
		Where("tutor_id = ? AND day_of_week = ? AND is_active = ?", tutorID, int(day), true).
		Order("start_time ASC").Order("end_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return toDomainWindows(rows), nil
}

func (r *AvailabilityRepository) ListByTutor(ctx context.Context, tutorID int64) ([]domain.AvailabilityWindow, error) {
	const op = "repository.AvailabilityRepository.ListByTutor"

	var rows []availabilityWindowModel
	err := r.db.WithContext(ctx).
		Where("tutor_id = ?", tutorID).
		Order("day_of_week ASC").Order("start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return toDomainWindows(rows), nil
}

func toDomainWindows(rows []availabilityWindowModel) []domain.AvailabilityWindow {
	out := make([]domain.AvailabilityWindow, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainWindow(m))
	}
	return out
}
