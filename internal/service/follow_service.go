package service

import (
	"context"

	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
	"lumo.kr/auragram/pkg/apperror"
)

type FollowService interface {
	// Follow creates the edge; repeated follows are accepted no-ops.
	Follow(ctx context.Context, followerID, followingID uint) error
	Unfollow(ctx context.Context, followerID, followingID uint) error
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	ListFollowers(ctx context.Context, userID uint, page, limit int) ([]model.User, int64, error)
	ListFollowing(ctx context.Context, userID uint, page, limit int) ([]model.User, int64, error)
	Counts(ctx context.Context, userID uint) (followers, following int64, err error)
}

type followService struct {
	followRepo    repository.FollowRepository
	userRepo      repository.UserRepository
	notifications NotificationService
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, notifications NotificationService) FollowService {
	return &followService{
		followRepo:    followRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

func (s *followService) Follow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return apperror.ErrBadRequest
	}
	if _, err := s.userRepo.FindByID(ctx, followingID); err != nil {
		return err
	}

	created, err := s.followRepo.Create(ctx, followerID, followingID)
	if err != nil {
		return err
	}
	if created {
		s.notifications.NotifyFollow(ctx, followingID, followerID)
	}
	return nil
}

func (s *followService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	_, err := s.followRepo.Delete(ctx, followerID, followingID)
	return err
}

func (s *followService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.followRepo.Exists(ctx, followerID, followingID)
}

func (s *followService) ListFollowers(ctx context.Context, userID uint, page, limit int) ([]model.User, int64, error) {
	if page < 1 {
		page = 1
	}
	limit = clampLimit(limit, defaultSearchLimit)
	return s.followRepo.ListFollowers(ctx, userID, (page-1)*limit, limit)
}

func (s *followService) ListFollowing(ctx context.Context, userID uint, page, limit int) ([]model.User, int64, error) {
	if page < 1 {
		page = 1
	}
	limit = clampLimit(limit, defaultSearchLimit)
	return s.followRepo.ListFollowing(ctx, userID, (page-1)*limit, limit)
}

func (s *followService) Counts(ctx context.Context, userID uint) (int64, int64, error) {
	followers, err := s.followRepo.CountFollowers(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	following, err := s.followRepo.CountFollowing(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	return followers, following, nil
}
