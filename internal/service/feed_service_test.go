package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lumo.kr/auragram/internal/dto"
	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
)

func newFeedService(t *testing.T, db *gorm.DB) *feedService {
	t.Helper()

	feedRepo := repository.NewFeedRepository(db)
	svc := NewFeedService(feedRepo, NewExposureService(feedRepo, nil)).(*feedService)
	svc.now = fixedTime
	return svc
}

func createTestPost(t *testing.T, db *gorm.DB, authorID uint, title string, createdAt time.Time) *model.Post {
	t.Helper()

	post := &model.Post{
		AuthorID:  authorID,
		Title:     title,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, db.Create(post).Error)

	photo := &model.Photo{
		PostID:     post.ID,
		Original:   "https://img.example.com/" + title + ".jpg",
		Background: "https://img.example.com/" + title + "_bg.jpg",
		Foreground: "https://img.example.com/" + title + "_fg.jpg",
		Thumbnail:  "https://img.example.com/" + title + "_thumb.jpg",
	}
	require.NoError(t, db.Create(photo).Error)
	return post
}

func likePost(t *testing.T, db *gorm.DB, userID, postID uint) {
	t.Helper()
	require.NoError(t, db.Create(&model.PostLike{UserID: userID, PostID: postID}).Error)
}

func bookmarkPost(t *testing.T, db *gorm.DB, userID, postID uint) {
	t.Helper()
	require.NoError(t, db.Create(&model.Bookmark{UserID: userID, PostID: postID}).Error)
}

func TestParseFeedCursor(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		post := model.Post{ID: 42}
		post.CreatedAt = time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)

		cursor := ParseFeedCursor(makeNextCursor(post))
		require.NotNil(t, cursor)
		assert.True(t, cursor.CreatedAt.Equal(post.CreatedAt))
		assert.Equal(t, uint(42), cursor.ID)
	})

	t.Run("garbled cursor means first page", func(t *testing.T) {
		assert.Nil(t, ParseFeedCursor(""))
		assert.Nil(t, ParseFeedCursor("not-a-timestamp|5"))
		assert.Nil(t, ParseFeedCursor("2025-06-14T10:00:00.000Z|abc"))
	})

	t.Run("missing id part", func(t *testing.T) {
		cursor := ParseFeedCursor("2025-06-14T10:00:00.000Z")
		require.NotNil(t, cursor)
		assert.Equal(t, uint(0), cursor.ID)
	})
}

func TestGetHomeFeedPublic(t *testing.T) {
	db := setupTestDB(t)
	svc := newFeedService(t, db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", 0)
	now := fixedTime()

	popular := createTestPost(t, db, author.ID, "popular", now.Add(-5*time.Hour))
	plain := createTestPost(t, db, author.ID, "plain", now.Add(-2*time.Hour))
	private := createTestPost(t, db, author.ID, "private", now.Add(-1*time.Hour))
	require.NoError(t, db.Model(private).Update("is_private", true).Error)

	for i := 0; i < 11; i++ {
		u := createTestUser(t, db, fmt.Sprintf("fan%d", i), 0)
		bookmarkPost(t, db, u.ID, popular.ID)
	}

	feed, err := svc.GetHomeFeed(ctx, nil, 10, "", dto.DefaultFeedWeights())
	require.NoError(t, err)
	require.Len(t, feed.Posts, 2)

	// Newest first, private hidden.
	assert.Equal(t, plain.ID, feed.Posts[0].ID)
	assert.Equal(t, popular.ID, feed.Posts[1].ID)

	// Anonymous feed carries no scores.
	assert.Nil(t, feed.Posts[0].AlgorithmScore)
	assert.Equal(t, FeedReasonRecent, feed.Posts[0].FeedReason)
	assert.Equal(t, FeedReasonPopular, feed.Posts[1].FeedReason)
	assert.Equal(t, 11, feed.Posts[1].Stats.Bookmarks)

	assert.Equal(t, 1, feed.AlgorithmInfo.PopularCount)
	assert.Equal(t, 1, feed.AlgorithmInfo.RecentCount)
	assert.False(t, feed.Pagination.HasMore)
	assert.Nil(t, feed.Pagination.NextCursor)
}

func TestGetHomeFeedChronologicalOrder(t *testing.T) {
	db := setupTestDB(t)
	svc := newFeedService(t, db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", 0)
	viewer := createTestUser(t, db, "viewer", 0)
	now := fixedTime()

	// The oldest post is by far the highest scoring one.
	oldHit := createTestPost(t, db, author.ID, "old-hit", now.Add(-40*time.Hour))
	fresh := createTestPost(t, db, author.ID, "fresh", now.Add(-1*time.Hour))

	for i := 0; i < 20; i++ {
		u := createTestUser(t, db, fmt.Sprintf("liker%d", i), 0)
		likePost(t, db, u.ID, oldHit.ID)
	}
	require.NoError(t, db.Model(oldHit).Update("view_count", 500).Error)

	feed, err := svc.GetHomeFeed(ctx, &viewer.ID, 10, "", dto.DefaultFeedWeights())
	require.NoError(t, err)
	require.Len(t, feed.Posts, 2)

	// Scores are attached but the page order stays strictly chronological.
	assert.Equal(t, fresh.ID, feed.Posts[0].ID)
	assert.Equal(t, oldHit.ID, feed.Posts[1].ID)
	require.NotNil(t, feed.Posts[0].AlgorithmScore)
	require.NotNil(t, feed.Posts[1].AlgorithmScore)
	assert.Greater(t, *feed.Posts[1].AlgorithmScore, *feed.Posts[0].AlgorithmScore)
}

func TestGetHomeFeedScoreAdjustments(t *testing.T) {
	db := setupTestDB(t)
	svc := newFeedService(t, db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", 0)
	viewer := createTestUser(t, db, "viewer", 0)
	require.NoError(t, db.Create(&model.Follow{FollowerID: viewer.ID, FollowingID: author.ID}).Error)

	createdAt := fixedTime().Add(-5 * time.Hour)
	createTestPost(t, db, author.ID, "unseen", createdAt)
	opened := createTestPost(t, db, author.ID, "opened", createdAt)
	skipped := createTestPost(t, db, author.ID, "skipped", createdAt)

	// "opened" was shown and read; "skipped" was shown and scrolled past.
	require.NoError(t, db.Create(&model.PostExposure{UserID: viewer.ID, PostID: opened.ID}).Error)
	require.NoError(t, db.Create(&model.PostView{UserID: viewer.ID, PostID: opened.ID}).Error)
	require.NoError(t, db.Create(&model.PostExposure{UserID: viewer.ID, PostID: skipped.ID}).Error)

	feed, err := svc.GetHomeFeed(ctx, &viewer.ID, 10, "", dto.DefaultFeedWeights())
	require.NoError(t, err)
	require.Len(t, feed.Posts, 3)

	scores := map[string]float64{}
	for _, post := range feed.Posts {
		require.NotNil(t, post.AlgorithmScore)
		scores[post.Title] = *post.AlgorithmScore
		assert.Equal(t, FeedReasonFollowing, post.FeedReason)
	}

	// Fresh unseen post from a followed author gets +30 over the read one;
	// the skipped one is pushed 20 below it.
	assert.InDelta(t, 30, scores["unseen"]-scores["opened"], 0.001)
	assert.InDelta(t, 20, scores["opened"]-scores["skipped"], 0.001)

	assert.Equal(t, 3, feed.AlgorithmInfo.FollowingCount)
	assert.Equal(t, 3, feed.AlgorithmInfo.RecentCount)
}

func TestGetHomeFeedPagination(t *testing.T) {
	db := setupTestDB(t)
	svc := newFeedService(t, db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", 0)
	viewer := createTestUser(t, db, "viewer", 0)
	now := fixedTime()

	for i := 0; i < 15; i++ {
		createTestPost(t, db, author.ID, fmt.Sprintf("post%02d", i), now.Add(-time.Duration(i)*time.Hour))
	}

	first, err := svc.GetHomeFeed(ctx, &viewer.ID, 10, "", dto.DefaultFeedWeights())
	require.NoError(t, err)
	require.Len(t, first.Posts, 10)
	assert.True(t, first.Pagination.HasMore)
	require.NotNil(t, first.Pagination.NextCursor)

	second, err := svc.GetHomeFeed(ctx, &viewer.ID, 10, *first.Pagination.NextCursor, dto.DefaultFeedWeights())
	require.NoError(t, err)
	require.Len(t, second.Posts, 5)
	assert.False(t, second.Pagination.HasMore)

	// No overlap between the two pages.
	seen := map[uint]bool{}
	for _, post := range first.Posts {
		seen[post.ID] = true
	}
	for _, post := range second.Posts {
		assert.False(t, seen[post.ID], "post %d appeared on both pages", post.ID)
	}
}

func TestGetHomeFeedRecordsExposures(t *testing.T) {
	db := setupTestDB(t)
	svc := newFeedService(t, db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", 0)
	viewer := createTestUser(t, db, "viewer", 0)
	createTestPost(t, db, author.ID, "one", fixedTime().Add(-time.Hour))
	createTestPost(t, db, author.ID, "two", fixedTime().Add(-2*time.Hour))

	_, err := svc.GetHomeFeed(ctx, &viewer.ID, 10, "", dto.DefaultFeedWeights())
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.PostExposure{}).Where("user_id = ?", viewer.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	// A second page view of the same posts does not duplicate the rows.
	_, err = svc.GetHomeFeed(ctx, &viewer.ID, 10, "", dto.DefaultFeedWeights())
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.PostExposure{}).Where("user_id = ?", viewer.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, defaultFeedLimit, clampLimit(0, defaultFeedLimit))
	assert.Equal(t, defaultFeedLimit, clampLimit(-5, defaultFeedLimit))
	assert.Equal(t, 25, clampLimit(25, defaultFeedLimit))
	assert.Equal(t, maxFeedLimit, clampLimit(500, defaultFeedLimit))
}
