package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"tutorbook/internal/config"
	"tutorbook/internal/database"
	"tutorbook/internal/domain"
	"tutorbook/internal/pkg/logger"
	"tutorbook/internal/repository"
)

type seedUser struct {
	email    string
	password string
	name     string
	role     domain.UserRole
}

var users = []seedUser{
	{"admin@tutorbook.local", "admin12345", "Administrator", domain.RoleAdmin},
	{"alice@tutorbook.local", "student123", "Alice Student", domain.RoleStudent},
	{"bob@tutorbook.local", "student123", "Bob Student", domain.RoleStudent},
	{"tara@tutorbook.local", "tutor12345", "Tara Tutor", domain.RoleTutor},
}

func main() {
	cfg := config.MustLoad()
	log := logger.Setup(cfg.Env, os.Stdout)

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Error("db connect failed", logger.Err(err))
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db, cfg.DatabaseURL); err != nil {
		log.Error("migrations failed", logger.Err(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := seed(ctx, repository.NewStore(db), log); err != nil {
		log.Error("seed failed", logger.Err(err))
		os.Exit(1)
	}
	log.Info("seed completed")
}

func seed(ctx context.Context, store *repository.Store, log *slog.Logger) error {
	var tutorUser *domain.User
	for _, su := range users {
		u, err := ensureUser(ctx, store, su, log)
		if err != nil {
			return err
		}
		if su.role == domain.RoleTutor {
			tutorUser = u
		}
	}

	if _, err := store.Tutors().GetByUserID(ctx, tutorUser.ID); err == nil {
		log.Info("tutor profile exists, skipping", slog.Int64("user_id", tutorUser.ID))
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("lookup tutor profile: %w", err)
	}

	return store.WithinTx(ctx, func(tx *repository.Store) error {
		profile := &domain.TutorProfile{
			UserID:     tutorUser.ID,
			Headline:   "Maths and physics, school to first-year university",
			Bio:        "Ten years of one-to-one tutoring.",
			HourlyRate: decimal.NewFromInt(50),
		}
		if err := tx.Tutors().Create(ctx, profile); err != nil {
			return fmt.Errorf("create tutor profile: %w", err)
		}

		for day := time.Monday; day <= time.Friday; day++ {
			w := &domain.AvailabilityWindow{
				TutorID:   profile.ID,
				DayOfWeek: int(day),
				StartTime: "09:00",
				EndTime:   "17:00",
				IsActive:  true,
			}
			if err := tx.Availability().Create(ctx, w); err != nil {
				return fmt.Errorf("create window for %s: %w", day, err)
			}
		}

		log.Info("tutor profile created",
			slog.Int64("tutor_id", profile.ID),
			slog.String("rate", profile.HourlyRate.StringFixed(2)),
		)
		return nil
	})
}

func ensureUser(ctx context.Context, store *repository.Store, su seedUser, log *slog.Logger) (*domain.User, error) {
	u, err := store.Users().GetByEmail(ctx, su.email)
	if err == nil {
		log.Info("user exists, skipping", slog.String("email", su.email))
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup %s: %w", su.email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(su.password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u = &domain.User{
		Email:        su.email,
		PasswordHash: string(hash),
		Role:         su.role,
		Name:         su.name,
	}
	if err := store.Users().Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create %s: %w", su.email, err)
	}

	log.Info("user created", slog.String("email", su.email), slog.String("role", string(su.role)))
	return u, nil
}
