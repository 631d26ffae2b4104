package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	log "github.com/sirupsen/logrus"

	"lumo.kr/auragram/internal/dto"
	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
	"lumo.kr/auragram/pkg/apperror"
)

// mentionPattern extracts @-mention names from comment text.
var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_가-힣]+)`)

type PostService interface {
	CreatePost(ctx context.Context, authorID uint, req dto.CreatePostRequest) (*model.Post, error)
	GetPost(ctx context.Context, viewerID *uint, postID uint) (*dto.FeedPost, error)
	UpdatePost(ctx context.Context, userID, postID uint, req dto.UpdatePostRequest) (*model.Post, error)
	DeletePost(ctx context.Context, userID, postID uint) error
	ListByAuthor(ctx context.Context, viewerID *uint, authorID uint, page, limit int) ([]model.Post, int64, error)

	// ToggleLike flips the viewer's like and reports the new state. The first
	// like of a post advances the LIKE_GIVE quest and notifies the author.
	ToggleLike(ctx context.Context, userID, postID uint) (liked bool, err error)
	ToggleBookmark(ctx context.Context, userID, postID uint) (bookmarked bool, err error)
	ListBookmarks(ctx context.Context, userID uint, page, limit int) ([]model.Post, int64, error)

	CreateComment(ctx context.Context, userID, postID uint, req dto.CreateCommentRequest) (*model.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID uint) error
	ListComments(ctx context.Context, postID uint, page, limit int) ([]model.Comment, int64, error)
}

type postService struct {
	postRepo        repository.PostRepository
	feedRepo        repository.FeedRepository
	interactionRepo repository.InteractionRepository
	userRepo        repository.UserRepository
	auraService     AuraService
	notifications   NotificationService
	meili           MeiliSearchService
	sanitizer       *bluemonday.Policy
}

func NewPostService(
	postRepo repository.PostRepository,
	feedRepo repository.FeedRepository,
	interactionRepo repository.InteractionRepository,
	userRepo repository.UserRepository,
	auraService AuraService,
	notifications NotificationService,
	meili MeiliSearchService,
) PostService {
	return &postService{
		postRepo:        postRepo,
		feedRepo:        feedRepo,
		interactionRepo: interactionRepo,
		userRepo:        userRepo,
		auraService:     auraService,
		notifications:   notifications,
		meili:           meili,
		sanitizer:       bluemonday.StrictPolicy(),
	}
}

func (s *postService) CreatePost(ctx context.Context, authorID uint, req dto.CreatePostRequest) (*model.Post, error) {
	title := strings.TrimSpace(s.sanitizer.Sanitize(req.Title))
	if title == "" {
		return nil, apperror.ErrInvalidInput
	}

	var description *string
	if req.Description != nil {
		cleaned := s.sanitizer.Sanitize(*req.Description)
		description = &cleaned
	}

	if req.Collection != nil {
		if _, err := s.postRepo.FindCollectionOwned(ctx, *req.Collection, authorID); err != nil {
			return nil, err
		}
	}

	post := &model.Post{
		AuthorID:     authorID,
		Title:        title,
		Description:  description,
		IsPrivate:    req.IsPrivate,
		Effect:       effectOrNull(req.Effect),
		CollectionID: req.Collection,
	}
	photo := &model.Photo{
		Original:   req.Images.Original,
		Background: req.Images.Background,
		Foreground: req.Images.Foreground,
		Thumbnail:  req.Images.Thumbnail,
	}
	if photo.Thumbnail == "" {
		photo.Thumbnail = req.Images.Original
	}

	if err := s.postRepo.CreateWithAssets(ctx, post, photo, req.Tags, req.TaggedFriends); err != nil {
		return nil, err
	}

	created, err := s.postRepo.FindByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	// Side effects after commit: quest credit, tag notifications, index sync.
	// None of them can fail the creation.
	if _, err := s.auraService.IncrementQuest(ctx, authorID, model.QuestPostCreate, &post.ID, nil); err != nil {
		log.WithError(err).Warn("post creation quest credit failed")
	}
	for _, friend := range created.TaggedFriends {
		s.notifications.NotifyPostTag(ctx, friend.ID, created.ID, authorID)
	}
	if err := s.meili.IndexPost(created); err != nil {
		log.WithError(err).Warn("post index sync failed")
	}

	return created, nil
}

func (s *postService) GetPost(ctx context.Context, viewerID *uint, postID uint) (*dto.FeedPost, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.IsPrivate && (viewerID == nil || *viewerID != post.AuthorID) {
		return nil, apperror.ErrForbidden
	}

	ids := []uint{post.ID}
	likeCounts, err := s.feedRepo.LikeCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	bookmarkCounts, err := s.feedRepo.BookmarkCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	commentCounts, err := s.feedRepo.CommentCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	sig := postSignals{
		likes:     likeCounts[post.ID],
		comments:  commentCounts[post.ID],
		bookmarks: bookmarkCounts[post.ID],
		reason:    FeedReasonRecent,
	}

	if viewerID != nil {
		sig.isMine = *viewerID == post.AuthorID
		if liked, err := s.interactionRepo.LikeExists(ctx, *viewerID, post.ID); err == nil {
			sig.isLiked = liked
		}
		if bookmarked, err := s.interactionRepo.BookmarkExists(ctx, *viewerID, post.ID); err == nil {
			sig.isBookmarked = bookmarked
		}
		if following, err := s.feedRepo.FollowingSet(ctx, *viewerID, []uint{post.AuthorID}); err == nil {
			sig.isFollowing = following[post.AuthorID]
		}

		// First view per viewer bumps the counter; repeats don't.
		firstView, err := s.interactionRepo.RecordView(ctx, *viewerID, post.ID)
		if err != nil {
			log.WithError(err).Warn("failed to record post view")
		} else if firstView {
			if err := s.postRepo.IncrementViewCount(ctx, post.ID); err != nil {
				log.WithError(err).Warn("failed to bump view count")
			} else {
				post.ViewCount++
			}
		}
	}

	result := toFeedPost(*post, sig)
	return &result, nil
}

func (s *postService) UpdatePost(ctx context.Context, userID, postID uint, req dto.UpdatePostRequest) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, apperror.ErrForbidden
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(s.sanitizer.Sanitize(*req.Title))
		if title == "" {
			return nil, apperror.ErrInvalidInput
		}
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = s.sanitizer.Sanitize(*req.Description)
	}
	if req.IsPrivate != nil {
		updates["is_private"] = *req.IsPrivate
	}
	if req.Effect != nil {
		updates["effect"] = effectOrNull(req.Effect)
	}
	if len(updates) == 0 {
		return post, nil
	}

	if err := s.postRepo.Update(ctx, postID, updates); err != nil {
		return nil, err
	}

	updated, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.meili.IndexPost(updated); err != nil {
		log.WithError(err).Warn("post index sync failed")
	}
	return updated, nil
}

func (s *postService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return apperror.ErrForbidden
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}
	if err := s.meili.DeletePost(postID); err != nil {
		log.WithError(err).Warn("post index removal failed")
	}
	return nil
}

func (s *postService) ListByAuthor(ctx context.Context, viewerID *uint, authorID uint, page, limit int) ([]model.Post, int64, error) {
	if page < 1 {
		page = 1
	}
	limit = clampLimit(limit, defaultSearchLimit)

	includePrivate := viewerID != nil && *viewerID == authorID
	return s.postRepo.ListByAuthor(ctx, authorID, includePrivate, (page-1)*limit, limit)
}

func (s *postService) ToggleLike(ctx context.Context, userID, postID uint) (bool, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return false, err
	}

	created, err := s.interactionRepo.CreateLike(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if !created {
		// Already liked: toggle off.
		if _, err := s.interactionRepo.DeleteLike(ctx, userID, postID); err != nil {
			return false, err
		}
		return false, nil
	}

	if post.AuthorID != userID {
		if _, err := s.auraService.IncrementQuest(ctx, userID, model.QuestLikeGive, &postID, nil); err != nil {
			log.WithError(err).Warn("like quest credit failed")
		}
		s.notifications.NotifyPostLike(ctx, postID, userID)
	}
	return true, nil
}

func (s *postService) ToggleBookmark(ctx context.Context, userID, postID uint) (bool, error) {
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		return false, err
	}

	created, err := s.interactionRepo.CreateBookmark(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if !created {
		if _, err := s.interactionRepo.DeleteBookmark(ctx, userID, postID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *postService) ListBookmarks(ctx context.Context, userID uint, page, limit int) ([]model.Post, int64, error) {
	if page < 1 {
		page = 1
	}
	limit = clampLimit(limit, defaultSearchLimit)
	return s.interactionRepo.ListBookmarkedPosts(ctx, userID, (page-1)*limit, limit)
}

// extractMentions resolves @names in the content to users the commenter
// follows. Names of strangers never trigger notifications.
func (s *postService) extractMentions(ctx context.Context, commenterID uint, content string) []model.User {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := map[string]bool{}
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		if !seen[match[1]] {
			seen[match[1]] = true
			names = append(names, match[1])
		}
	}

	users, err := s.userRepo.FindFollowedByNames(ctx, commenterID, names)
	if err != nil {
		log.WithError(err).Warn("mention lookup failed")
		return nil
	}
	return users
}

func (s *postService) CreateComment(ctx context.Context, userID, postID uint, req dto.CreateCommentRequest) (*model.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperror.ErrInvalidInput
	}

	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.IsPrivate && post.AuthorID != userID {
		return nil, apperror.ErrForbidden
	}

	comment := &model.Comment{
		PostID:   postID,
		AuthorID: userID,
		Content:  content,
	}
	if err := s.postRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if _, err := s.auraService.IncrementQuest(ctx, userID, model.QuestCommentCreate, &postID, &comment.ID); err != nil {
		log.WithError(err).Warn("comment quest credit failed")
	}
	s.notifications.NotifyComment(ctx, postID, comment.ID, userID, content)
	for _, mentioned := range s.extractMentions(ctx, userID, content) {
		s.notifications.NotifyMention(ctx, mentioned.ID, postID, comment.ID, userID, content)
	}

	return comment, nil
}

func (s *postService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.postRepo.FindComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != userID {
		return apperror.ErrForbidden
	}
	return s.postRepo.DeleteComment(ctx, commentID)
}

func (s *postService) ListComments(ctx context.Context, postID uint, page, limit int) ([]model.Comment, int64, error) {
	if page < 1 {
		page = 1
	}
	limit = clampLimit(limit, defaultSearchLimit)

	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, 0, apperror.ErrNotFound
		}
		return nil, 0, err
	}
	return s.postRepo.ListComments(ctx, postID, (page-1)*limit, limit)
}

// effectOrNull keeps a zero-length effect blob out of the jsonb column.
func effectOrNull(effect json.RawMessage) []byte {
	if len(effect) == 0 {
		return nil
	}
	return []byte(effect)
}
