package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store hands out repositories bound to one *gorm.DB, which is either the
// pool or an open transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Users() *UserRepository                 { return NewUserRepository(s.db) }
func (s *Store) Tutors() *TutorRepository               { return NewTutorRepository(s.db) }
func (s *Store) Availability() *AvailabilityRepository { return NewAvailabilityRepository(s.db) }
func (s *Store) Bookings() *BookingRepository           { return NewBookingRepository(s.db) }
func (s *Store) Reviews() *ReviewRepository             { return NewReviewRepository(s.db) }

// WithinTx runs fn inside one transaction. Any error, panic or ctx
// cancellation rolls the whole unit back.
func (s *Store) WithinTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Models lists every table for gorm AutoMigrate.
func Models() []any {
	return []any{
		&userModel{},
		&tutorProfileModel{},
		&availabilityWindowModel{},
		&bookingModel{},
		&reviewModel{},
	}
}
