package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lumo.kr/auragram/internal/dto"
	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/pkg/apperror"
)

type PostRepository interface {
	// CreateWithAssets persists the post, its photo set, tags, and tagged
	// friends in one transaction. Unknown friend ids are skipped; tags are
	// found or created by name.
	CreateWithAssets(ctx context.Context, post *model.Post, photo *model.Photo, tags []dto.TagInput, friendIDs []uint) error
	FindByID(ctx context.Context, id uint) (*model.Post, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	ListByAuthor(ctx context.Context, authorID uint, includePrivate bool, offset, limit int) ([]model.Post, int64, error)
	IncrementViewCount(ctx context.Context, id uint) error

	FindCollectionOwned(ctx context.Context, collectionID, ownerID uint) (*model.Collection, error)
	CreateCollection(ctx context.Context, collection *model.Collection) error
	ListCollections(ctx context.Context, ownerID uint) ([]model.Collection, error)

	CreateComment(ctx context.Context, comment *model.Comment) error
	FindComment(ctx context.Context, id uint) (*model.Comment, error)
	DeleteComment(ctx context.Context, id uint) error
	ListComments(ctx context.Context, postID uint, offset, limit int) ([]model.Comment, int64, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) CreateWithAssets(ctx context.Context, post *model.Post, photo *model.Photo, tags []dto.TagInput, friendIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}

		photo.PostID = post.ID
		if err := tx.Create(photo).Error; err != nil {
			return err
		}
		post.Photo = photo

		for _, input := range tags {
			tag := model.Tag{Name: input.Name, Color: input.Color}
			if err := tx.Where(model.Tag{Name: input.Name}).FirstOrCreate(&tag).Error; err != nil {
				return err
			}
			if err := tx.Model(post).Association("Tags").Append(&tag); err != nil {
				return err
			}
		}

		for _, friendID := range friendIDs {
			var friend model.User
			if err := tx.First(&friend, friendID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			if err := tx.Model(post).Association("TaggedFriends").Append(&friend); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *postRepository) FindByID(ctx context.Context, id uint) (*model.Post, error) {
	var post model.Post
	err := feedPreloads(r.db.WithContext(ctx)).First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Updates(updates).Error
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Post{}, id).Error
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, includePrivate bool, offset, limit int) ([]model.Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Post{}).Where("author_id = ?", authorID)
	if !includePrivate {
		query = query.Where("is_private = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []model.Post
	listQuery := feedPreloads(r.db.WithContext(ctx)).Where("author_id = ?", authorID)
	if !includePrivate {
		listQuery = listQuery.Where("is_private = ?", false)
	}
	err := listQuery.
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, total, err
}

func (r *postRepository) IncrementViewCount(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ?", id).
		Update("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *postRepository) FindCollectionOwned(ctx context.Context, collectionID, ownerID uint) (*model.Collection, error) {
	var collection model.Collection
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", collectionID, ownerID).
		First(&collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &collection, nil
}

func (r *postRepository) CreateCollection(ctx context.Context, collection *model.Collection) error {
	return r.db.WithContext(ctx).Create(collection).Error
}

func (r *postRepository) ListCollections(ctx context.Context, ownerID uint) ([]model.Collection, error) {
	var collections []model.Collection
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&collections).Error
	return collections, err
}

func (r *postRepository) CreateComment(ctx context.Context, comment *model.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Preload("Author").First(comment, comment.ID).Error
}

func (r *postRepository) FindComment(ctx context.Context, id uint) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).Preload("Author").First(&comment, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

func (r *postRepository) DeleteComment(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Comment{}, id).Error
}

func (r *postRepository) ListComments(ctx context.Context, postID uint, offset, limit int) ([]model.Comment, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("post_id = ?", postID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []model.Comment
	err := r.db.WithContext(ctx).Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&comments).Error
	return comments, total, err
}
