package main

import (
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"lumo.kr/auragram/internal/bootstrap"
	"lumo.kr/auragram/internal/config"
	"lumo.kr/auragram/internal/jobs"
	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/server"
	"lumo.kr/auragram/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	if cfg.AppEnv == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	if err := bootstrap.SeedDefaultQuests(db); err != nil {
		log.WithError(err).Fatal("quest seed failed")
	}
	if cfg.AppEnv != "production" {
		if err := bootstrap.SeedAdminUser(db); err != nil {
			log.WithError(err).Fatal("admin seed failed")
		}
	}

	rdb := connectRedis(cfg.RedisURL)

	srv := server.NewServer(cfg, db, rdb)

	scheduler := jobs.NewScheduler(srv.EconomyService, srv.GalleryRepo)
	if err := scheduler.Start(); err != nil {
		log.WithError(err).Fatal("scheduler start failed")
	}
	defer scheduler.Stop()

	log.WithField("port", cfg.Port).Info("server starting")
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

// connectRedis returns nil when no Redis is configured; callers treat a nil
// client as "work synchronously, skip pubsub".
func connectRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		log.Warn("REDIS_URL not set, exposure queue and live notifications disabled")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.WithError(err).Warn("invalid REDIS_URL, continuing without redis")
		return nil
	}
	return redis.NewClient(opts)
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Follow{},
		&model.Post{},
		&model.Photo{},
		&model.Tag{},
		&model.Collection{},
		&model.Comment{},
		&model.PostLike{},
		&model.Bookmark{},
		&model.PostExposure{},
		&model.PostView{},
		&model.DailyQuest{},
		&model.UserDailyProgress{},
		&model.AuraTransaction{},
		&model.AuraStats{},
		&model.Notification{},
		&model.Gallery{},
		&model.GallerySlot{},
		&model.Artwork{},
	)
}
