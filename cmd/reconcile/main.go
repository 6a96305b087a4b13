package main

import (
	"context"
	"os"
	"time"

	"tutorbook/internal/config"
	"tutorbook/internal/database"
	"tutorbook/internal/jobs"
	"tutorbook/internal/modules/review"
	"tutorbook/internal/pkg/logger"
	"tutorbook/internal/repository"
)

// reconcile runs one rating recompute pass and exits. Meant for cron hosts
// that do not run the API process.
func main() {
	cfg := config.MustLoad()
	log := logger.Setup(cfg.Env, os.Stdout)

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Error("db connect failed", logger.Err(err))
		os.Exit(1)
	}
	defer database.Close(db)

	svc := review.NewService(repository.NewStore(db), nil, cfg.StoreTimeout, log)
	job := jobs.NewRatingReconciler(svc, 10*time.Minute, log)

	if _, err := job.RunOnce(context.Background()); err != nil {
		database.Close(db)
		os.Exit(1)
	}
}
