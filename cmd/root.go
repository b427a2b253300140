// Package cmd holds the lexamen command line: the HTTP server and the
// one-off maintenance commands.
package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lexamen/config"
	"lexamen/models"
	"lexamen/services"
	"lexamen/utils"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:           "lexamen",
	Short:         "LéxAmen scoring and progression service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command line until an interrupt or termination signal.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("❌ %v", err)
		stop()
		os.Exit(1)
	}
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.Wrap(config.ErrInvalidConfig, "database_url is required")
	}
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	return db, nil
}

// runtime is everything the commands share once config and database are up.
type runtime struct {
	cfg     *config.Config
	db      *gorm.DB
	reviews *services.ReviewService
	quiz    *services.QuizService
	leagues *services.LeagueService
	causas  *services.CausaService
}

func setup(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := models.AutoMigrate(db); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	var archiver services.Archiver
	if cfg.ArchiveEnabled() {
		r2, err := utils.NewR2Archiver(ctx, utils.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Bucket:          cfg.R2Bucket,
			CDNBaseURL:      cfg.CDNBaseURL,
		})
		if err != nil {
			return nil, err
		}
		archiver = r2
	} else {
		log.Println("⚠️  R2 bucket not configured, standings will not be archived")
	}

	progress := services.NewProgressionService(db, cfg.Location())
	return &runtime{
		cfg:     cfg,
		db:      db,
		reviews: services.NewReviewService(progress),
		quiz:    services.NewQuizService(progress),
		leagues: services.NewLeagueService(progress, archiver),
		causas:  services.NewCausaService(progress, cfg.EnforceCausaTimeLimit),
	}, nil
}
