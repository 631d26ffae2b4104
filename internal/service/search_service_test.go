package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lumo.kr/auragram/internal/dto"
	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
	"lumo.kr/auragram/pkg/apperror"
)

func newSearchService(t *testing.T, db *gorm.DB) *searchService {
	t.Helper()

	svc := NewSearchService(repository.NewFeedRepository(db)).(*searchService)
	svc.now = fixedTime
	return svc
}

func tagPost(t *testing.T, db *gorm.DB, post *model.Post, tagName string) {
	t.Helper()

	tag := model.Tag{Name: tagName}
	require.NoError(t, db.FirstOrCreate(&tag, model.Tag{Name: tagName}).Error)
	require.NoError(t, db.Model(post).Association("Tags").Append(&tag))
}

func TestSearchRelevance(t *testing.T) {
	now := fixedTime()
	w := dto.DefaultSearchWeights()

	desc := "a painting of a sunset over the bay"
	base := model.Post{Title: "morning walk", CreatedAt: now}

	titleHit := base
	titleHit.Title = "golden sunset"

	prefixHit := base
	prefixHit.Title = "sunset ridge"

	descHit := base
	descHit.Description = &desc

	tagHit := base
	tagHit.Tags = []model.Tag{{Name: "sunset"}, {Name: "sunsets"}}

	assert.Equal(t, 100.0, searchRelevance(titleHit, "sunset", 0, 0, w, now)-searchRelevance(base, "sunset", 0, 0, w, now))
	assert.Equal(t, 150.0, searchRelevance(prefixHit, "sunset", 0, 0, w, now)-searchRelevance(base, "sunset", 0, 0, w, now))
	assert.Equal(t, 50.0, searchRelevance(descHit, "sunset", 0, 0, w, now)-searchRelevance(base, "sunset", 0, 0, w, now))
	assert.Equal(t, 150.0, searchRelevance(tagHit, "sunset", 0, 0, w, now)-searchRelevance(base, "sunset", 0, 0, w, now))

	// Matching is case-insensitive.
	upper := base
	upper.Title = "SUNSET RIDGE"
	assert.Equal(t,
		searchRelevance(prefixHit, "sunset", 0, 0, w, now),
		searchRelevance(upper, "SunSet", 0, 0, w, now))

	// Popularity and recency contribute through their weights.
	assert.InDelta(t, w.Popularity*(2*2+3*3),
		searchRelevance(base, "zzz", 2, 3, w, now)-searchRelevance(base, "zzz", 0, 0, w, now), 0.001)

	old := base
	old.CreatedAt = now.Add(-84 * time.Hour) // half the recency window
	assert.InDelta(t, w.Recent*15, searchRelevance(base, "zzz", 0, 0, w, now)-searchRelevance(old, "zzz", 0, 0, w, now), 0.001)
}

func TestSearchPosts(t *testing.T) {
	db := setupTestDB(t)
	svc := newSearchService(t, db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", 0)
	now := fixedTime()

	// Created oldest-first so score ordering visibly differs from the
	// chronological candidate stream.
	prefixMatch := createTestPost(t, db, author.ID, "sunset ridge", now.Add(-30*time.Hour))
	plainMatch := createTestPost(t, db, author.ID, "a quiet sunset", now.Add(-20*time.Hour))
	tagged := createTestPost(t, db, author.ID, "evening sky", now.Add(-10*time.Hour))
	tagPost(t, db, tagged, "sunset")
	createTestPost(t, db, author.ID, "unrelated", now.Add(-5*time.Hour))

	t.Run("empty term rejected", func(t *testing.T) {
		_, err := svc.SearchPosts(ctx, nil, "   ", 20, "", dto.DefaultSearchWeights())
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	})

	t.Run("results ordered by score", func(t *testing.T) {
		result, err := svc.SearchPosts(ctx, nil, "sunset", 20, "", dto.DefaultSearchWeights())
		require.NoError(t, err)
		require.Len(t, result.Posts, 3)
		assert.Equal(t, "sunset", result.SearchTerm)

		// Prefix match (150) beats plain title match (100) beats tag-only
		// match (75); recency differences are far smaller than those gaps.
		assert.Equal(t, prefixMatch.ID, result.Posts[0].ID)
		assert.Equal(t, plainMatch.ID, result.Posts[1].ID)
		assert.Equal(t, tagged.ID, result.Posts[2].ID)

		for _, post := range result.Posts {
			require.NotNil(t, post.AlgorithmScore)
			assert.Equal(t, FeedReasonRecent, post.FeedReason)
		}
		assert.False(t, result.Pagination.HasMore)
	})

	t.Run("viewer signals attached", func(t *testing.T) {
		viewer := createTestUser(t, db, "viewer", 0)
		likePost(t, db, viewer.ID, plainMatch.ID)
		require.NoError(t, db.Create(&model.Follow{FollowerID: viewer.ID, FollowingID: author.ID}).Error)

		result, err := svc.SearchPosts(ctx, &viewer.ID, "sunset", 20, "", dto.DefaultSearchWeights())
		require.NoError(t, err)
		require.Len(t, result.Posts, 3)

		for _, post := range result.Posts {
			assert.True(t, post.Author.IsFollowing)
			assert.Equal(t, post.ID == plainMatch.ID, post.IsLiked)
			assert.False(t, post.IsMyPost)
		}
	})
}

func TestSearchPostsPagination(t *testing.T) {
	db := setupTestDB(t)
	svc := newSearchService(t, db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", 0)
	now := fixedTime()

	for i := 0; i < 5; i++ {
		createTestPost(t, db, author.ID, "sketch", now.Add(-time.Duration(i)*time.Hour))
	}

	first, err := svc.SearchPosts(ctx, nil, "sketch", 2, "", dto.DefaultSearchWeights())
	require.NoError(t, err)
	require.Len(t, first.Posts, 2)
	assert.True(t, first.Pagination.HasMore)
	require.NotNil(t, first.Pagination.NextCursor)

	// The cursor walks the chronological stream, so paging covers every
	// match exactly once.
	seen := map[uint]bool{}
	for _, post := range first.Posts {
		seen[post.ID] = true
	}

	cursor := *first.Pagination.NextCursor
	total := len(first.Posts)
	for cursor != "" {
		page, err := svc.SearchPosts(ctx, nil, "sketch", 2, cursor, dto.DefaultSearchWeights())
		require.NoError(t, err)
		for _, post := range page.Posts {
			assert.False(t, seen[post.ID], "post %d returned twice", post.ID)
			seen[post.ID] = true
		}
		total += len(page.Posts)
		if page.Pagination.NextCursor == nil {
			break
		}
		cursor = *page.Pagination.NextCursor
	}
	assert.Equal(t, 5, total)
}
