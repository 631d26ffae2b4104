package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lumo.kr/auragram/internal/model"
)

// FeedCursor is the decoded form of the "<timestamp>|<id>" page token. The id
// breaks ties between posts created in the same instant.
type FeedCursor struct {
	CreatedAt time.Time
	ID        uint
}

type FeedRepository interface {
	// FetchCandidates returns public posts strictly older than the cursor in
	// reverse chronological order, with every association the feed payload
	// needs preloaded.
	FetchCandidates(ctx context.Context, limit int, cursor *FeedCursor) ([]model.Post, error)
	// SearchCandidates is FetchCandidates narrowed to posts matching the term
	// in title, description, or tag name.
	SearchCandidates(ctx context.Context, term string, limit int, cursor *FeedCursor) ([]model.Post, error)

	LikedSet(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error)
	BookmarkedSet(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error)
	ExposedSet(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error)
	ViewedSet(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error)
	FollowingSet(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error)

	// ActiveAuthorSet reports which of the given authors created at least one
	// post since the given time.
	ActiveAuthorSet(ctx context.Context, authorIDs []uint, since time.Time) (map[uint]bool, error)
	// TagPreferences counts the viewer's bookmarks per tag.
	TagPreferences(ctx context.Context, userID uint) (map[uint]int, error)

	LikeCounts(ctx context.Context, postIDs []uint) (map[uint]int, error)
	BookmarkCounts(ctx context.Context, postIDs []uint) (map[uint]int, error)
	CommentCounts(ctx context.Context, postIDs []uint) (map[uint]int, error)

	InsertExposures(ctx context.Context, userID uint, postIDs []uint) error
}

type feedRepository struct {
	db *gorm.DB
}

func NewFeedRepository(db *gorm.DB) FeedRepository {
	return &feedRepository{db: db}
}

func feedPreloads(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Photo").
		Preload("Tags").
		Preload("TaggedFriends").
		Preload("Collection")
}

func (r *feedRepository) FetchCandidates(ctx context.Context, limit int, cursor *FeedCursor) ([]model.Post, error) {
	query := feedPreloads(r.db.WithContext(ctx)).
		Where("is_private = ?", false)

	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var posts []model.Post
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *feedRepository) SearchCandidates(ctx context.Context, term string, limit int, cursor *FeedCursor) ([]model.Post, error) {
	pattern := "%" + term + "%"

	query := feedPreloads(r.db.WithContext(ctx)).
		Where("is_private = ?", false)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var posts []model.Post
	err := query.
		Where(
			"title LIKE ? OR description LIKE ? OR id IN (?)",
			pattern, pattern,
			r.db.Table("post_tags").
				Select("post_tags.post_id").
				Joins("JOIN tags ON tags.id = post_tags.tag_id").
				Where("tags.name LIKE ?", pattern),
		).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *feedRepository) pairSet(ctx context.Context, table string, userID uint, postIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(postIDs))
	if len(postIDs) == 0 {
		return set, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).Table(table).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *feedRepository) LikedSet(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	return r.pairSet(ctx, "post_likes", userID, postIDs)
}

func (r *feedRepository) BookmarkedSet(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	return r.pairSet(ctx, "bookmarks", userID, postIDs)
}

func (r *feedRepository) ExposedSet(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	return r.pairSet(ctx, "post_exposures", userID, postIDs)
}

func (r *feedRepository) ViewedSet(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	return r.pairSet(ctx, "post_views", userID, postIDs)
}

func (r *feedRepository) FollowingSet(ctx context.Context, userID uint, authorIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(authorIDs))
	if len(authorIDs) == 0 {
		return set, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ? AND following_id IN ?", userID, authorIDs).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *feedRepository) ActiveAuthorSet(ctx context.Context, authorIDs []uint, since time.Time) (map[uint]bool, error) {
	set := make(map[uint]bool, len(authorIDs))
	if len(authorIDs) == 0 {
		return set, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Post{}).
		Where("author_id IN ? AND created_at >= ?", authorIDs, since).
		Distinct().
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *feedRepository) TagPreferences(ctx context.Context, userID uint) (map[uint]int, error) {
	type row struct {
		TagID uint
		Count int
	}
	var rows []row
	err := r.db.WithContext(ctx).Table("bookmarks").
		Select("post_tags.tag_id AS tag_id, COUNT(*) AS count").
		Joins("JOIN post_tags ON post_tags.post_id = bookmarks.post_id").
		Where("bookmarks.user_id = ?", userID).
		Group("post_tags.tag_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	prefs := make(map[uint]int, len(rows))
	for _, r := range rows {
		prefs[r.TagID] = r.Count
	}
	return prefs, nil
}

func (r *feedRepository) pairCounts(ctx context.Context, table string, postIDs []uint) (map[uint]int, error) {
	counts := make(map[uint]int, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	type row struct {
		PostID uint
		Count  int
	}
	var rows []row
	err := r.db.WithContext(ctx).Table(table).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	return counts, nil
}

func (r *feedRepository) LikeCounts(ctx context.Context, postIDs []uint) (map[uint]int, error) {
	return r.pairCounts(ctx, "post_likes", postIDs)
}

func (r *feedRepository) BookmarkCounts(ctx context.Context, postIDs []uint) (map[uint]int, error) {
	return r.pairCounts(ctx, "bookmarks", postIDs)
}

func (r *feedRepository) CommentCounts(ctx context.Context, postIDs []uint) (map[uint]int, error) {
	counts := make(map[uint]int, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}

	type row struct {
		PostID uint
		Count  int
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	return counts, nil
}

// InsertExposures records feed impressions, skipping pairs already seen.
func (r *feedRepository) InsertExposures(ctx context.Context, userID uint, postIDs []uint) error {
	if len(postIDs) == 0 {
		return nil
	}

	exposures := make([]model.PostExposure, 0, len(postIDs))
	for _, postID := range postIDs {
		exposures = append(exposures, model.PostExposure{UserID: userID, PostID: postID})
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&exposures).Error
}
