package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"lumo.kr/auragram/internal/repository"
	"lumo.kr/auragram/internal/service"
)

// Scheduler runs the periodic maintenance jobs: the nightly economy rollup
// and the monthly gallery visitor reset.
type Scheduler struct {
	cron        *cron.Cron
	economy     service.EconomyService
	galleryRepo repository.GalleryRepository
}

func NewScheduler(economy service.EconomyService, galleryRepo repository.GalleryRepository) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		economy:     economy,
		galleryRepo: galleryRepo,
	}
}

func (s *Scheduler) Start() error {
	// Close out the previous day shortly after UTC midnight so the new
	// scaling factor is in place before the day's first claims.
	if _, err := s.cron.AddFunc("5 0 * * *", s.runDailyStats); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc("0 0 1 * *", s.runMonthlyVisitorReset); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runDailyStats() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.economy.UpdateYesterdayStats(ctx); err != nil {
		log.WithError(err).Error("daily aura stats update failed")
		return
	}
	log.Info("daily aura stats updated")
}

func (s *Scheduler) runMonthlyVisitorReset() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.galleryRepo.ResetMonthlyVisitors(ctx); err != nil {
		log.WithError(err).Error("monthly gallery visitor reset failed")
		return
	}
	log.Info("monthly gallery visitors reset")
}
