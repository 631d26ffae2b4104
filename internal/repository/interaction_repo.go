package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lumo.kr/auragram/internal/model"
)

// InteractionRepository stores the per-user membership facts the ranking
// signals read: likes, bookmarks, and detail views.
type InteractionRepository interface {
	CreateLike(ctx context.Context, userID, postID uint) (bool, error)
	DeleteLike(ctx context.Context, userID, postID uint) (bool, error)
	LikeExists(ctx context.Context, userID, postID uint) (bool, error)
	CountLikes(ctx context.Context, postID uint) (int64, error)

	CreateBookmark(ctx context.Context, userID, postID uint) (bool, error)
	DeleteBookmark(ctx context.Context, userID, postID uint) (bool, error)
	BookmarkExists(ctx context.Context, userID, postID uint) (bool, error)
	ListBookmarkedPosts(ctx context.Context, userID uint, offset, limit int) ([]model.Post, int64, error)

	// RecordView inserts the (user, post) view once; repeat views return false.
	RecordView(ctx context.Context, userID, postID uint) (bool, error)
}

type interactionRepository struct {
	db *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

func (r *interactionRepository) CreateLike(ctx context.Context, userID, postID uint) (bool, error) {
	like := model.PostLike{UserID: userID, PostID: postID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *interactionRepository) DeleteLike(ctx context.Context, userID, postID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&model.PostLike{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *interactionRepository) LikeExists(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PostLike{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

func (r *interactionRepository) CountLikes(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PostLike{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}

func (r *interactionRepository) CreateBookmark(ctx context.Context, userID, postID uint) (bool, error) {
	bookmark := model.Bookmark{UserID: userID, PostID: postID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&bookmark)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *interactionRepository) DeleteBookmark(ctx context.Context, userID, postID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&model.Bookmark{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *interactionRepository) BookmarkExists(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Bookmark{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

func (r *interactionRepository) ListBookmarkedPosts(ctx context.Context, userID uint, offset, limit int) ([]model.Post, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Bookmark{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []model.Post
	err := feedPreloads(r.db.WithContext(ctx)).
		Joins("JOIN bookmarks ON bookmarks.post_id = posts.id").
		Where("bookmarks.user_id = ?", userID).
		Order("bookmarks.created_at DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, total, err
}

func (r *interactionRepository) RecordView(ctx context.Context, userID, postID uint) (bool, error) {
	view := model.PostView{UserID: userID, PostID: postID}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&view)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
