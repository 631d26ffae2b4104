package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"lumo.kr/auragram/internal/dto"
	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
	"lumo.kr/auragram/pkg/apperror"
)

const defaultSearchLimit = 20

type SearchService interface {
	// SearchPosts returns posts ranked by relevance score, best match first.
	// Unlike the home feed, search results ARE re-ordered by score.
	SearchPosts(ctx context.Context, viewerID *uint, term string, limit int, cursor string, weights dto.SearchWeights) (*dto.SearchResponse, error)
}

type searchService struct {
	feedRepo repository.FeedRepository
	now      func() time.Time
}

func NewSearchService(feedRepo repository.FeedRepository) SearchService {
	return &searchService{feedRepo: feedRepo, now: time.Now}
}

// searchRelevance scores one post against the term. Title matches dominate,
// a prefix match earns a bonus, and every matching tag stacks.
func searchRelevance(post model.Post, term string, likes, bookmarks int, w dto.SearchWeights, now time.Time) float64 {
	var score float64
	lowered := strings.ToLower(term)

	title := strings.ToLower(post.Title)
	if strings.Contains(title, lowered) {
		score += w.Relevance * 100
		if strings.HasPrefix(title, lowered) {
			score += w.Relevance * 50
		}
	}

	if post.Description != nil && strings.Contains(strings.ToLower(*post.Description), lowered) {
		score += w.Relevance * 50
	}

	tagMatches := 0
	for _, tag := range post.Tags {
		if strings.Contains(strings.ToLower(tag.Name), lowered) {
			tagMatches++
		}
	}
	score += float64(tagMatches) * w.Relevance * 75

	score += w.Popularity * (float64(likes)*2 + float64(bookmarks)*3)

	hoursAgo := now.Sub(post.CreatedAt).Hours()
	recency := math.Max(0, 168-hoursAgo) / 168
	score += w.Recent * recency * 30

	return score
}

func (s *searchService) SearchPosts(ctx context.Context, viewerID *uint, term string, limit int, cursor string, weights dto.SearchWeights) (*dto.SearchResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, apperror.ErrInvalidInput
	}
	limit = clampLimit(limit, defaultSearchLimit)
	parsedCursor := ParseFeedCursor(cursor)

	// Over-fetch so the score sort has a pool to pick from.
	candidates, err := s.feedRepo.SearchCandidates(ctx, term, limit*2, parsedCursor)
	if err != nil {
		return nil, err
	}

	candidateIDs := postIDs(candidates)
	likeCounts, err := s.feedRepo.LikeCounts(ctx, candidateIDs)
	if err != nil {
		return nil, err
	}
	bookmarkCounts, err := s.feedRepo.BookmarkCounts(ctx, candidateIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	type scoredPost struct {
		post  model.Post
		score float64
	}
	scored := make([]scoredPost, 0, len(candidates))
	for _, post := range candidates {
		scored = append(scored, scoredPost{
			post:  post,
			score: searchRelevance(post, term, likeCounts[post.ID], bookmarkCounts[post.ID], weights, now),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > limit+1 {
		scored = scored[:limit+1]
	}

	items := scored
	if len(items) > limit {
		items = items[:limit]
	}
	hasMore := len(scored) > len(items)

	itemIDs := make([]uint, 0, len(items))
	authorIDs := make([]uint, 0, len(items))
	seenAuthors := map[uint]bool{}
	for _, item := range items {
		itemIDs = append(itemIDs, item.post.ID)
		if !seenAuthors[item.post.AuthorID] {
			seenAuthors[item.post.AuthorID] = true
			authorIDs = append(authorIDs, item.post.AuthorID)
		}
	}

	liked := map[uint]bool{}
	bookmarked := map[uint]bool{}
	following := map[uint]bool{}
	if viewerID != nil && len(items) > 0 {
		if liked, err = s.feedRepo.LikedSet(ctx, *viewerID, itemIDs); err != nil {
			return nil, err
		}
		if bookmarked, err = s.feedRepo.BookmarkedSet(ctx, *viewerID, itemIDs); err != nil {
			return nil, err
		}
		if following, err = s.feedRepo.FollowingSet(ctx, *viewerID, authorIDs); err != nil {
			return nil, err
		}
	}

	commentCounts, err := s.feedRepo.CommentCounts(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	posts := make([]dto.FeedPost, 0, len(items))
	for _, item := range items {
		scoreCopy := item.score
		posts = append(posts, toFeedPost(item.post, postSignals{
			likes:        likeCounts[item.post.ID],
			comments:     commentCounts[item.post.ID],
			bookmarks:    bookmarkCounts[item.post.ID],
			isLiked:      liked[item.post.ID],
			isBookmarked: bookmarked[item.post.ID],
			isFollowing:  following[item.post.AuthorID],
			isMine:       viewerID != nil && item.post.AuthorID == *viewerID,
			score:        &scoreCopy,
			reason:       FeedReasonRecent,
		}))
	}

	// The next cursor advances through the chronological candidate stream,
	// not the scored order, so paging never skips posts.
	var nextCursor *string
	if hasMore {
		idx := minInt(len(candidates), limit) - 1
		if idx >= 0 {
			cursorStr := makeNextCursor(candidates[idx])
			nextCursor = &cursorStr
		}
	}

	return &dto.SearchResponse{
		Posts: posts,
		Pagination: dto.Pagination{
			HasMore:    hasMore,
			NextCursor: nextCursor,
			TotalShown: len(posts),
		},
		SearchTerm: term,
	}, nil
}
