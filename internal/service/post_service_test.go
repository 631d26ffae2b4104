package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lumo.kr/auragram/internal/dto"
	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
	"lumo.kr/auragram/pkg/apperror"
)

func newPostService(t *testing.T, db *gorm.DB) PostService {
	t.Helper()

	return NewPostService(
		repository.NewPostRepository(db),
		repository.NewFeedRepository(db),
		repository.NewInteractionRepository(db),
		repository.NewUserRepository(db),
		newAuraService(t, db),
		newNotificationService(t, db),
		NewMeiliSearchService(nil),
	)
}

func sampleCreateRequest(title string) dto.CreatePostRequest {
	return dto.CreatePostRequest{
		Title: title,
		Images: dto.PostImagesInput{
			Original:   "https://img.example.com/a.jpg",
			Background: "https://img.example.com/a_bg.jpg",
			Foreground: "https://img.example.com/a_fg.jpg",
		},
	}
}

func TestCreatePost(t *testing.T) {
	db := setupTestDB(t)
	svc := newPostService(t, db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", 0)
	createTestQuest(t, db, model.QuestPostCreate, 3, 50)

	t.Run("creates post with assets", func(t *testing.T) {
		req := sampleCreateRequest("first artwork")
		req.Tags = []dto.TagInput{{Name: "acrylic"}, {Name: "portrait"}}

		post, err := svc.CreatePost(ctx, author.ID, req)
		require.NoError(t, err)
		assert.Equal(t, "first artwork", post.Title)
		require.NotNil(t, post.Photo)
		// Missing thumbnail falls back to the original.
		assert.Equal(t, "https://img.example.com/a.jpg", post.Photo.Thumbnail)
		assert.Len(t, post.Tags, 2)
	})

	t.Run("credits the post quest", func(t *testing.T) {
		board, err := newAuraService(t, db).GetQuestBoard(ctx, author.ID)
		require.NoError(t, err)
		require.Len(t, board, 1)
		assert.Equal(t, 1, board[0].CurrentCount)
	})

	t.Run("markup stripped from title", func(t *testing.T) {
		post, err := svc.CreatePost(ctx, author.ID, sampleCreateRequest("<script>alert(1)</script>clean"))
		require.NoError(t, err)
		assert.Equal(t, "clean", post.Title)
	})

	t.Run("empty title rejected", func(t *testing.T) {
		_, err := svc.CreatePost(ctx, author.ID, sampleCreateRequest("<b></b>"))
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	})

	t.Run("foreign collection rejected", func(t *testing.T) {
		other := createTestUser(t, db, "other", 0)
		collection := model.Collection{OwnerID: other.ID, Name: "theirs"}
		require.NoError(t, db.Create(&collection).Error)

		req := sampleCreateRequest("with collection")
		req.Collection = &collection.ID
		_, err := svc.CreatePost(ctx, author.ID, req)
		require.Error(t, err)
	})

	t.Run("notifies tagged friends", func(t *testing.T) {
		friend := createTestUser(t, db, "friend", 0)
		req := sampleCreateRequest("group piece")
		req.TaggedFriends = []uint{friend.ID}

		_, err := svc.CreatePost(ctx, author.ID, req)
		require.NoError(t, err)
		assert.Equal(t, int64(1), countNotifications(t, db, friend.ID))
	})
}

func TestGetPost(t *testing.T) {
	db := setupTestDB(t)
	svc := newPostService(t, db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", 0)
	viewer := createTestUser(t, db, "viewer", 0)
	post := createTestPost(t, db, author.ID, "piece", fixedTime())

	t.Run("first view bumps the counter, repeats do not", func(t *testing.T) {
		got, err := svc.GetPost(ctx, &viewer.ID, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Stats.Views)

		got, err = svc.GetPost(ctx, &viewer.ID, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Stats.Views)
	})

	t.Run("anonymous views never count", func(t *testing.T) {
		got, err := svc.GetPost(ctx, nil, post.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Stats.Views)
	})

	t.Run("private post hidden from others", func(t *testing.T) {
		private := createTestPost(t, db, author.ID, "secret", fixedTime())
		require.NoError(t, db.Model(private).Update("is_private", true).Error)

		_, err := svc.GetPost(ctx, &viewer.ID, private.ID)
		assert.ErrorIs(t, err, apperror.ErrForbidden)

		_, err = svc.GetPost(ctx, nil, private.ID)
		assert.ErrorIs(t, err, apperror.ErrForbidden)

		got, err := svc.GetPost(ctx, &author.ID, private.ID)
		require.NoError(t, err)
		assert.True(t, got.IsMyPost)
	})
}

func TestToggleLike(t *testing.T) {
	db := setupTestDB(t)
	svc := newPostService(t, db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", 0)
	liker := createTestUser(t, db, "liker", 0)
	post := createTestPost(t, db, author.ID, "piece", fixedTime())
	createTestQuest(t, db, model.QuestLikeGive, 10, 10)

	liked, err := svc.ToggleLike(ctx, liker.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	// Author gets notified, quest advances.
	assert.Equal(t, int64(1), countNotifications(t, db, author.ID))
	board, err := newAuraService(t, db).GetQuestBoard(ctx, liker.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, board[0].CurrentCount)

	// Toggle off, then on again.
	liked, err = svc.ToggleLike(ctx, liker.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	liked, err = svc.ToggleLike(ctx, liker.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	var count int64
	require.NoError(t, db.Model(&model.PostLike{}).Where("post_id = ?", post.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Liking your own post neither notifies nor advances the quest.
	ownPost := createTestPost(t, db, liker.ID, "mine", fixedTime())
	liked, err = svc.ToggleLike(ctx, liker.ID, ownPost.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	board, err = newAuraService(t, db).GetQuestBoard(ctx, liker.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, board[0].CurrentCount)
}

func TestComments(t *testing.T) {
	db := setupTestDB(t)
	svc := newPostService(t, db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", 0)
	commenter := createTestUser(t, db, "commenter", 0)
	mentioned := createTestUser(t, db, "지은", 0)
	stranger := createTestUser(t, db, "stranger", 0)
	post := createTestPost(t, db, author.ID, "piece", fixedTime())
	createTestQuest(t, db, model.QuestCommentCreate, 5, 20)

	// The commenter follows "지은" but not "stranger".
	require.NoError(t, db.Create(&model.Follow{FollowerID: commenter.ID, FollowingID: mentioned.ID}).Error)

	comment, err := svc.CreateComment(ctx, commenter.ID, post.ID, dto.CreateCommentRequest{
		Content: "@지은 @stranger 멋진 작품이네요!",
	})
	require.NoError(t, err)
	assert.Equal(t, commenter.ID, comment.Author.ID)

	// Author notified of the comment; only the followed mention resolves.
	assert.Equal(t, int64(1), countNotifications(t, db, author.ID))
	assert.Equal(t, int64(1), countNotifications(t, db, mentioned.ID))
	assert.Equal(t, int64(0), countNotifications(t, db, stranger.ID))

	var mentionNotif model.Notification
	require.NoError(t, db.Where("recipient_id = ?", mentioned.ID).First(&mentionNotif).Error)
	assert.Equal(t, model.NotifMention, mentionNotif.Type)

	// Quest credit.
	board, err := newAuraService(t, db).GetQuestBoard(ctx, commenter.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, board[0].CurrentCount)

	t.Run("blank content rejected", func(t *testing.T) {
		_, err := svc.CreateComment(ctx, commenter.ID, post.ID, dto.CreateCommentRequest{Content: "   "})
		assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	})

	t.Run("only the author deletes", func(t *testing.T) {
		assert.ErrorIs(t, svc.DeleteComment(ctx, author.ID, comment.ID), apperror.ErrForbidden)
		require.NoError(t, svc.DeleteComment(ctx, commenter.ID, comment.ID))

		comments, total, err := svc.ListComments(ctx, post.ID, 1, 20)
		require.NoError(t, err)
		assert.Empty(t, comments)
		assert.Equal(t, int64(0), total)
	})
}

func TestListByAuthorPrivacy(t *testing.T) {
	db := setupTestDB(t)
	svc := newPostService(t, db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", 0)
	viewer := createTestUser(t, db, "viewer", 0)

	for i := 0; i < 3; i++ {
		createTestPost(t, db, author.ID, fmt.Sprintf("public%d", i), fixedTime())
	}
	private := createTestPost(t, db, author.ID, "hidden", fixedTime())
	require.NoError(t, db.Model(private).Update("is_private", true).Error)

	posts, total, err := svc.ListByAuthor(ctx, &viewer.ID, author.ID, 1, 20)
	require.NoError(t, err)
	assert.Len(t, posts, 3)
	assert.Equal(t, int64(3), total)

	posts, total, err = svc.ListByAuthor(ctx, &author.ID, author.ID, 1, 20)
	require.NoError(t, err)
	assert.Len(t, posts, 4)
	assert.Equal(t, int64(4), total)
}

func TestBookmarks(t *testing.T) {
	db := setupTestDB(t)
	svc := newPostService(t, db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", 0)
	viewer := createTestUser(t, db, "viewer", 0)
	post := createTestPost(t, db, author.ID, "piece", fixedTime())

	bookmarked, err := svc.ToggleBookmark(ctx, viewer.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, bookmarked)

	posts, total, err := svc.ListBookmarks(ctx, viewer.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, post.ID, posts[0].ID)
	assert.Equal(t, int64(1), total)

	bookmarked, err = svc.ToggleBookmark(ctx, viewer.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, bookmarked)

	_, total, err = svc.ListBookmarks(ctx, viewer.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestUpdateAndDeletePost(t *testing.T) {
	db := setupTestDB(t)
	svc := newPostService(t, db)
	ctx := context.Background()

	author := createTestUser(t, db, "author", 0)
	other := createTestUser(t, db, "other", 0)
	post := createTestPost(t, db, author.ID, "original", fixedTime())

	newTitle := "renamed"
	_, err := svc.UpdatePost(ctx, other.ID, post.ID, dto.UpdatePostRequest{Title: &newTitle})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	updated, err := svc.UpdatePost(ctx, author.ID, post.ID, dto.UpdatePostRequest{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)

	assert.ErrorIs(t, svc.DeletePost(ctx, other.ID, post.ID), apperror.ErrForbidden)
	require.NoError(t, svc.DeletePost(ctx, author.ID, post.ID))

	_, err = svc.GetPost(ctx, nil, post.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
