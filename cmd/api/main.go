package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/medscanhq/medscan-api/internal/config"
	"github.com/medscanhq/medscan-api/internal/email"
	patientHandler "github.com/medscanhq/medscan-api/internal/handler/patient"
	reportHandler "github.com/medscanhq/medscan-api/internal/handler/report"
	staffHandler "github.com/medscanhq/medscan-api/internal/handler/staff"
	studyHandler "github.com/medscanhq/medscan-api/internal/handler/study"
	trashHandler "github.com/medscanhq/medscan-api/internal/handler/trash"
	"github.com/medscanhq/medscan-api/internal/objectstore"
	"github.com/medscanhq/medscan-api/internal/repository/postgres"
	"github.com/medscanhq/medscan-api/internal/router"
	"github.com/medscanhq/medscan-api/internal/service/access"
	"github.com/medscanhq/medscan-api/internal/service/auth"
	patientService "github.com/medscanhq/medscan-api/internal/service/patient"
	reportService "github.com/medscanhq/medscan-api/internal/service/report"
	staffService "github.com/medscanhq/medscan-api/internal/service/staff"
	studyService "github.com/medscanhq/medscan-api/internal/service/study"
	trashService "github.com/medscanhq/medscan-api/internal/service/trash"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, dashboard caching disabled")
		redisClient = nil
	}

	store, err := newObjectStore()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object store")
	}

	// repositories
	patientRepo := postgres.NewPatientRepository(db)
	studyRepo := postgres.NewStudyRepository(db)
	trashRepo := postgres.NewTrashRepository(db)
	practitionerRepo := postgres.NewPractitionerRepository(db)
	adminRepo := postgres.NewCenterAdminRepository(db)

	// services
	policy := access.NewPolicy(practitionerRepo, studyRepo)
	patientSvc := patientService.NewService(patientRepo, policy)
	studySvc := studyService.NewService(studyRepo, patientRepo, practitionerRepo, store, policy)
	trashSvc := trashService.NewService(trashRepo)
	reportSvc := reportService.NewService(patientRepo, studyRepo, practitionerRepo, redisClient)
	directory := staffService.NewDirectory(adminRepo, practitionerRepo)
	mailer := email.NewSender(cfg.SMTP)
	staffSvc := staffService.NewService(adminRepo, practitionerRepo, directory, mailer, cfg.App.LoginURL)
	resolver := auth.NewResolver(cfg.JWT.Secret, directory)

	// handlers
	r := router.NewRouter(resolver, router.Config{
		RateLimit: rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst: cfg.RateLimit.Burst,
	},
		patientHandler.NewHandler(patientSvc),
		studyHandler.NewHandler(studySvc),
		reportHandler.NewHandler(reportSvc),
		trashHandler.NewHandler(trashSvc),
		staffHandler.NewHandler(staffSvc, resolver),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

// newObjectStore selects S3 when bucket settings are present, otherwise the
// in-memory store for local development.
func newObjectStore() (objectstore.Store, error) {
	s3cfg, err := objectstore.LoadS3Config()
	if err != nil || s3cfg.Bucket == "" {
		log.Warn().Msg("no bucket configured, using in-memory object store")
		return objectstore.NewMemoryStore("http://localhost/files"), nil
	}
	return objectstore.NewS3Store(context.Background(), s3cfg)
}
