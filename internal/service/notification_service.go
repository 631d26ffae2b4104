package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
	"lumo.kr/auragram/pkg/apperror"
)

const notificationChannelPrefix = "notifications:"

// NotificationChannel is the Redis pub/sub channel carrying a user's
// real-time notifications.
func NotificationChannel(userID uint) string {
	return fmt.Sprintf("%s%d", notificationChannelPrefix, userID)
}

// NotificationService creates and delivers notifications. Every Notify* call
// is best-effort: a failed notification is logged, never surfaced to the
// action that triggered it.
type NotificationService interface {
	NotifyFollow(ctx context.Context, followingID, followerID uint)
	NotifyPostLike(ctx context.Context, postID, likerID uint)
	NotifyComment(ctx context.Context, postID, commentID, commenterID uint, content string)
	NotifyMention(ctx context.Context, mentionedUserID, postID, commentID, mentionerID uint, content string)
	NotifyPostTag(ctx context.Context, taggedUserID, postID, taggerID uint)

	List(ctx context.Context, recipientID uint, page, limit int) ([]model.Notification, int64, error)
	UnreadCount(ctx context.Context, recipientID uint) (int64, error)
	MarkRead(ctx context.Context, id, recipientID uint) error
	MarkAllRead(ctx context.Context, recipientID uint) error
}

type notificationService struct {
	notifRepo repository.NotificationRepository
	userRepo  repository.UserRepository
	postRepo  repository.PostRepository
	rdb       *redis.Client
	now       func() time.Time
}

func NewNotificationService(notifRepo repository.NotificationRepository, userRepo repository.UserRepository, postRepo repository.PostRepository, rdb *redis.Client) NotificationService {
	return &notificationService{
		notifRepo: notifRepo,
		userRepo:  userRepo,
		postRepo:  postRepo,
		rdb:       rdb,
		now:       time.Now,
	}
}

// shouldNotify checks the recipient's settings for the notification kind.
// Unset means allowed; only an explicit opt-out suppresses. Tag notifications
// ride on the artwork-likes setting.
func shouldNotify(notifType string, settings model.NotificationSettings) bool {
	allowed := func(flag *bool) bool { return flag == nil || *flag }
	switch notifType {
	case model.NotifFollow:
		return allowed(settings.NewFollowers)
	case model.NotifPostLike, model.NotifPostTag:
		return allowed(settings.ArtworkLikes)
	case model.NotifComment:
		return allowed(settings.Comments)
	case model.NotifMention:
		return allowed(settings.Mentions)
	default:
		return true
	}
}

// create runs the full gate: self-suppression, recipient settings, and a
// one-hour dedupe window. Returns nil when the notification was suppressed.
func (s *notificationService) create(ctx context.Context, recipientID uint, notifType string, actorID, postID, commentID *uint, metadata map[string]interface{}) *model.Notification {
	if actorID != nil && recipientID == *actorID {
		return nil
	}

	recipient, err := s.userRepo.FindByID(ctx, recipientID)
	if err != nil {
		log.WithError(err).WithField("recipient_id", recipientID).Warn("notification recipient lookup failed")
		return nil
	}
	if !shouldNotify(notifType, recipient.NotificationSettings()) {
		return nil
	}

	var metadataJSON []byte
	if metadata != nil {
		metadataJSON, err = json.Marshal(metadata)
		if err != nil {
			log.WithError(err).Error("failed to marshal notification metadata")
			metadataJSON = nil
		}
	}

	notification := &model.Notification{
		RecipientID: recipientID,
		ActorID:     actorID,
		Type:        notifType,
		PostID:      postID,
		CommentID:   commentID,
		Metadata:    metadataJSON,
	}

	duplicate, err := s.notifRepo.HasRecentDuplicate(ctx, notification, s.now().Add(-time.Hour))
	if err != nil {
		log.WithError(err).Warn("notification dedupe check failed")
		return nil
	}
	if duplicate {
		return nil
	}

	if err := s.notifRepo.Create(ctx, notification); err != nil {
		log.WithError(err).Error("failed to create notification")
		return nil
	}

	s.publish(notification)
	return notification
}

// publish pushes the notification onto the recipient's pub/sub channel for
// connected websocket clients.
func (s *notificationService) publish(notification *model.Notification) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.rdb.Publish(ctx, NotificationChannel(notification.RecipientID), payload).Err(); err != nil {
		log.WithError(err).Warn("notification publish failed")
	}
}

func truncateContent(content string) string {
	runes := []rune(content)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return content
}

func (s *notificationService) actorName(ctx context.Context, actorID uint) string {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return ""
	}
	return actor.Name
}

func (s *notificationService) NotifyFollow(ctx context.Context, followingID, followerID uint) {
	s.create(ctx, followingID, model.NotifFollow, &followerID, nil, nil, map[string]interface{}{
		"actorName": s.actorName(ctx, followerID),
	})
}

func (s *notificationService) NotifyPostLike(ctx context.Context, postID, likerID uint) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return
	}
	s.create(ctx, post.AuthorID, model.NotifPostLike, &likerID, &postID, nil, map[string]interface{}{
		"postTitle": post.Title,
		"actorName": s.actorName(ctx, likerID),
	})
}

func (s *notificationService) NotifyComment(ctx context.Context, postID, commentID, commenterID uint, content string) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return
	}
	s.create(ctx, post.AuthorID, model.NotifComment, &commenterID, &postID, &commentID, map[string]interface{}{
		"postTitle":      post.Title,
		"commentContent": truncateContent(content),
		"actorName":      s.actorName(ctx, commenterID),
	})
}

func (s *notificationService) NotifyMention(ctx context.Context, mentionedUserID, postID, commentID, mentionerID uint, content string) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return
	}
	s.create(ctx, mentionedUserID, model.NotifMention, &mentionerID, &postID, &commentID, map[string]interface{}{
		"postTitle":      post.Title,
		"commentContent": truncateContent(content),
		"actorName":      s.actorName(ctx, mentionerID),
	})
}

func (s *notificationService) NotifyPostTag(ctx context.Context, taggedUserID, postID, taggerID uint) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return
	}
	s.create(ctx, taggedUserID, model.NotifPostTag, &taggerID, &postID, nil, map[string]interface{}{
		"postTitle": post.Title,
		"actorName": s.actorName(ctx, taggerID),
	})
}

func (s *notificationService) List(ctx context.Context, recipientID uint, page, limit int) ([]model.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.notifRepo.List(ctx, recipientID, (page-1)*limit, limit)
}

func (s *notificationService) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	return s.notifRepo.UnreadCount(ctx, recipientID)
}

func (s *notificationService) MarkRead(ctx context.Context, id, recipientID uint) error {
	updated, err := s.notifRepo.MarkRead(ctx, id, recipientID)
	if err != nil {
		return err
	}
	if !updated {
		return apperror.ErrNotFound
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, recipientID uint) error {
	return s.notifRepo.MarkAllRead(ctx, recipientID)
}
