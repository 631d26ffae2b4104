package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"lumo.kr/auragram/internal/repository"
)

const exposureQueueKey = "feed:exposure_queue"

// ExposureService persists feed impressions. With Redis available the writes
// go through a task queue drained by a background worker; without it they are
// performed inline. Either way failures are logged and swallowed: losing an
// impression is acceptable, delaying a feed response is not.
type ExposureService interface {
	RecordFeedExposures(userID uint, postIDs []uint)
	StartWorker(ctx context.Context)
}

type exposureTask struct {
	UserID  uint   `json:"user_id"`
	PostIDs []uint `json:"post_ids"`
}

type exposureService struct {
	feedRepo repository.FeedRepository
	rdb      *redis.Client
}

func NewExposureService(feedRepo repository.FeedRepository, rdb *redis.Client) ExposureService {
	return &exposureService{feedRepo: feedRepo, rdb: rdb}
}

func (s *exposureService) RecordFeedExposures(userID uint, postIDs []uint) {
	if len(postIDs) == 0 {
		return
	}

	if s.rdb == nil {
		s.writeDirect(userID, postIDs)
		return
	}

	payload, err := json.Marshal(exposureTask{UserID: userID, PostIDs: postIDs})
	if err != nil {
		log.WithError(err).Error("failed to marshal exposure task")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.rdb.RPush(ctx, exposureQueueKey, payload).Err(); err != nil {
		log.WithError(err).Warn("exposure enqueue failed, writing directly")
		s.writeDirect(userID, postIDs)
	}
}

func (s *exposureService) writeDirect(userID uint, postIDs []uint) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.feedRepo.InsertExposures(ctx, userID, postIDs); err != nil {
		log.WithError(err).Error("failed to record feed exposures")
	}
}

// StartWorker drains the exposure queue until the context is cancelled.
func (s *exposureService) StartWorker(ctx context.Context) {
	if s.rdb == nil {
		return
	}

	go func() {
		log.Info("exposure worker started")
		for {
			select {
			case <-ctx.Done():
				log.Info("exposure worker stopped")
				return
			default:
			}

			result, err := s.rdb.BLPop(ctx, 5*time.Second, exposureQueueKey).Result()
			if err != nil {
				if err == redis.Nil || ctx.Err() != nil {
					continue
				}
				log.WithError(err).Warn("exposure queue pop failed")
				time.Sleep(time.Second)
				continue
			}
			if len(result) < 2 {
				continue
			}

			var task exposureTask
			if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
				log.WithError(err).Error("malformed exposure task dropped")
				continue
			}
			if err := s.feedRepo.InsertExposures(ctx, task.UserID, task.PostIDs); err != nil {
				log.WithError(err).Error("failed to persist exposure task")
			}
		}
	}()
}
