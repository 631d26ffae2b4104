package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lumo.kr/auragram/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	// HasRecentDuplicate reports whether an equivalent notification (same
	// recipient, type, actor, and post) was created after the given time.
	HasRecentDuplicate(ctx context.Context, n *model.Notification, since time.Time) (bool, error)
	List(ctx context.Context, recipientID uint, offset, limit int) ([]model.Notification, int64, error)
	UnreadCount(ctx context.Context, recipientID uint) (int64, error)
	MarkRead(ctx context.Context, id, recipientID uint) (bool, error)
	MarkAllRead(ctx context.Context, recipientID uint) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepository) HasRecentDuplicate(ctx context.Context, n *model.Notification, since time.Time) (bool, error) {
	query := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND type = ? AND created_at >= ?", n.RecipientID, n.Type, since)
	if n.ActorID != nil {
		query = query.Where("actor_id = ?", *n.ActorID)
	}
	if n.PostID != nil {
		query = query.Where("post_id = ?", *n.PostID)
	}

	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *notificationRepository) List(ctx context.Context, recipientID uint, offset, limit int) ([]model.Notification, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ?", recipientID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []model.Notification
	err := r.db.WithContext(ctx).Preload("Actor").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error
	return notifications, total, err
}

func (r *notificationRepository) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uint) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true).Error
}
