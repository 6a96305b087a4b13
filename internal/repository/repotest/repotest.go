// Package repotest opens throwaway in-memory SQLite stores and seeds
// fixtures for package tests.
package repotest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tutorbook/internal/database"
	"tutorbook/internal/domain"
	"tutorbook/internal/pkg/logger"
	"tutorbook/internal/repository"
)

var seq atomic.Int64

// NewStore returns a migrated store backed by a private in-memory database.
func NewStore(t *testing.T) *repository.Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, seq.Add(1))

	db, err := database.Connect(dsn, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, database.Migrate(db, dsn))
	return repository.NewStore(db)
}

func User(t *testing.T, s *repository.Store, role domain.UserRole) *domain.User {
	t.Helper()

	n := seq.Add(1)
	u := &domain.User{
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: "x",
		Role:         role,
		Name:         fmt.Sprintf("User %d", n),
	}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

// Tutor creates a tutor user with a profile at the given hourly rate.
func Tutor(t *testing.T, s *repository.Store, rate string) *domain.TutorProfile {
	t.Helper()

	u := User(t, s, domain.RoleTutor)
	p := &domain.TutorProfile{
		UserID:        u.ID,
		Headline:      "Maths tutor",
		HourlyRate:    decimal.RequireFromString(rate),
		TotalEarnings: decimal.Zero,
	}
	require.NoError(t, s.Tutors().Create(context.Background(), p))
	return p
}

// Window adds an active availability window.
func Window(t *testing.T, s *repository.Store, tutorID int64, day int, start, end string) *domain.AvailabilityWindow {
	t.Helper()

	w := &domain.AvailabilityWindow{
		TutorID:   tutorID,
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
		IsActive:  true,
	}
	require.NoError(t, s.Availability().Create(context.Background(), w))
	return w
}

// Booking inserts a booking row directly, bypassing admission checks.
func Booking(t *testing.T, s *repository.Store, b domain.Booking) *domain.Booking {
	t.Helper()

	if b.Subject == "" {
		b.Subject = "Algebra"
	}
	if b.Status == "" {
		b.Status = domain.BookingConfirmed
	}
	require.NoError(t, s.Bookings().Create(context.Background(), &b))
	return &b
}
