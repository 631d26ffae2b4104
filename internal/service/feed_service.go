package service

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"lumo.kr/auragram/internal/dto"
	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
)

// Feed reasons attached to each post.
const (
	FeedReasonFollowing   = "following"
	FeedReasonPopular     = "popular"
	FeedReasonRecommended = "recommended"
	FeedReasonRecent      = "recent"
)

// cursorTimeLayout matches the millisecond ISO-8601 timestamps the clients
// echo back in page cursors.
const cursorTimeLayout = "2006-01-02T15:04:05.000Z07:00"

const (
	defaultFeedLimit = 10
	maxFeedLimit     = 50
)

// popularBookmarkThreshold marks a post "popular" for the feed reason label.
const popularBookmarkThreshold = 10

type FeedService interface {
	// GetHomeFeed returns one chronological page of the home feed. A nil
	// viewerID serves the anonymous feed without personalization. Scores are
	// attached for transparency but never change the page order.
	GetHomeFeed(ctx context.Context, viewerID *uint, limit int, cursor string, weights dto.FeedWeights) (*dto.HomeFeedResponse, error)
}

type feedService struct {
	feedRepo  repository.FeedRepository
	exposures ExposureService
	now       func() time.Time
}

func NewFeedService(feedRepo repository.FeedRepository, exposures ExposureService) FeedService {
	return &feedService{
		feedRepo:  feedRepo,
		exposures: exposures,
		now:       time.Now,
	}
}

// ParseFeedCursor decodes "<timestamp>|<id>". Anything unparsable means
// "first page", never an error, so a stale or garbled cursor degrades to a
// fresh feed instead of a 4xx.
func ParseFeedCursor(cursor string) *repository.FeedCursor {
	if cursor == "" {
		return nil
	}
	parts := strings.SplitN(cursor, "|", 2)
	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil
	}
	id := 0
	if len(parts) == 2 && parts[1] != "" {
		id, err = strconv.Atoi(parts[1])
		if err != nil {
			return nil
		}
	}
	return &repository.FeedCursor{CreatedAt: createdAt, ID: uint(id)}
}

func makeNextCursor(post model.Post) string {
	return post.CreatedAt.UTC().Format(cursorTimeLayout) + "|" + strconv.FormatUint(uint64(post.ID), 10)
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	return limit
}

// postSignals carries everything needed to map one post into the response.
type postSignals struct {
	likes        int
	comments     int
	bookmarks    int
	isLiked      bool
	isBookmarked bool
	isFollowing  bool
	isMine       bool
	score        *float64
	reason       string
}

func toFeedPost(post model.Post, sig postSignals) dto.FeedPost {
	images := dto.FeedImages{}
	if post.Photo != nil {
		images = dto.FeedImages{
			Original:   post.Photo.Original,
			Background: post.Photo.Background,
			Foreground: post.Photo.Foreground,
			Thumbnail:  post.Photo.Thumbnail,
		}
	}

	tags := make([]dto.FeedTag, 0, len(post.Tags))
	for _, tag := range post.Tags {
		tags = append(tags, dto.FeedTag{ID: tag.ID, Name: tag.Name, Color: tag.Color})
	}

	friends := make([]dto.FeedFriend, 0, len(post.TaggedFriends))
	for _, friend := range post.TaggedFriends {
		friends = append(friends, dto.FeedFriend{
			ID:              friend.ID,
			Name:            friend.Name,
			ProfileImageURL: friend.ProfileImageURL,
		})
	}

	var collection *dto.FeedCollection
	if post.Collection != nil {
		collection = &dto.FeedCollection{ID: post.Collection.ID, Name: post.Collection.Name}
	}

	return dto.FeedPost{
		ID:          post.ID,
		Title:       post.Title,
		Description: post.Description,
		Author: dto.FeedAuthor{
			ID:              post.Author.ID,
			Name:            post.Author.Name,
			ProfileImageURL: post.Author.ProfileImageURL,
			IsFollowing:     sig.isFollowing,
		},
		Collection:    collection,
		IsPrivate:     post.IsPrivate,
		Images:        images,
		Effect:        json.RawMessage(post.Effect),
		Tags:          tags,
		TaggedFriends: friends,
		Stats: dto.FeedStats{
			Likes:     sig.likes,
			Comments:  sig.comments,
			Bookmarks: sig.bookmarks,
			Views:     post.ViewCount,
		},
		IsLiked:        sig.isLiked,
		IsBookmarked:   sig.isBookmarked,
		IsMyPost:       sig.isMine,
		AlgorithmScore: sig.score,
		FeedReason:     sig.reason,
		CreatedAt:      post.CreatedAt.UTC().Format(cursorTimeLayout),
		UpdatedAt:      post.UpdatedAt.UTC().Format(cursorTimeLayout),
	}
}

// scorePost computes the weighted base score. Flat adjustments (unseen
// following boost, skip penalty, and friends) are applied by the caller.
func scorePost(post model.Post, isFollowing bool, likes, bookmarks int, tagPrefs map[uint]int, w dto.FeedWeights, now time.Time) float64 {
	var score float64

	if isFollowing {
		score += w.Following * 100
	}

	popularity := float64(bookmarks) + float64(likes)*3 + math.Min(float64(post.ViewCount)/10, 50)
	score += w.Popular * popularity

	hoursAgo := now.Sub(post.CreatedAt).Hours()
	recency := math.Max(0, 48-hoursAgo) / 48
	score += w.Recent * recency * 50

	tagScore := 0
	for _, tag := range post.Tags {
		tagScore += tagPrefs[tag.ID]
	}
	score += w.Personalized * float64(tagScore) * 10

	return score
}

func (s *feedService) GetHomeFeed(ctx context.Context, viewerID *uint, limit int, cursor string, weights dto.FeedWeights) (*dto.HomeFeedResponse, error) {
	limit = clampLimit(limit, defaultFeedLimit)
	parsedCursor := ParseFeedCursor(cursor)

	if viewerID == nil {
		return s.publicFeed(ctx, limit, parsedCursor)
	}
	return s.personalizedFeed(ctx, *viewerID, limit, parsedCursor, weights)
}

func (s *feedService) publicFeed(ctx context.Context, limit int, cursor *repository.FeedCursor) (*dto.HomeFeedResponse, error) {
	candidates, err := s.feedRepo.FetchCandidates(ctx, limit+1, cursor)
	if err != nil {
		return nil, err
	}

	shown := candidates
	if len(shown) > limit {
		shown = shown[:limit]
	}
	ids := postIDs(shown)

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

	posts := make([]dto.FeedPost, 0, len(shown))
	popularCount := 0
	for _, post := range shown {
		reason := FeedReasonRecent
		if bookmarkCounts[post.ID] > popularBookmarkThreshold {
			reason = FeedReasonPopular
			popularCount++
		}
		posts = append(posts, toFeedPost(post, postSignals{
			likes:     likeCounts[post.ID],
			comments:  commentCounts[post.ID],
			bookmarks: bookmarkCounts[post.ID],
			reason:    reason,
		}))
	}

	hasMore := len(candidates) > len(shown)
	var nextCursor *string
	if hasMore {
		cursorStr := makeNextCursor(candidates[minInt(len(candidates), limit)-1])
		nextCursor = &cursorStr
	}

	return &dto.HomeFeedResponse{
		Posts: posts,
		Pagination: dto.Pagination{
			HasMore:    hasMore,
			NextCursor: nextCursor,
			TotalShown: len(posts),
		},
		AlgorithmInfo: dto.AlgorithmInfo{
			PopularCount: popularCount,
			RecentCount:  len(posts) - popularCount,
		},
	}, nil
}

// feedSignals is the viewer-specific context collected for one feed page.
type feedSignals struct {
	tagPrefs       map[uint]int
	liked          map[uint]bool
	bookmarked     map[uint]bool
	following      map[uint]bool
	exposed        map[uint]bool
	viewed         map[uint]bool
	activeAuthors  map[uint]bool
	likeCounts     map[uint]int
	bookmarkCounts map[uint]int
	commentCounts  map[uint]int
}

// collectSignals fans out the per-page signal reads. Each read is tolerated
// to fail independently: a missing signal degrades ranking quality, it does
// not break the feed.
func (s *feedService) collectSignals(ctx context.Context, viewerID uint, postIDs, authorIDs []uint) feedSignals {
	sig := feedSignals{
		tagPrefs:       map[uint]int{},
		liked:          map[uint]bool{},
		bookmarked:     map[uint]bool{},
		following:      map[uint]bool{},
		exposed:        map[uint]bool{},
		viewed:         map[uint]bool{},
		activeAuthors:  map[uint]bool{},
		likeCounts:     map[uint]int{},
		bookmarkCounts: map[uint]int{},
		commentCounts:  map[uint]int{},
	}

	weekAgo := s.now().Add(-7 * 24 * time.Hour)

	var wg sync.WaitGroup
	var mu sync.Mutex

	fetch := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				log.WithError(err).WithField("signal", name).Warn("feed signal read failed")
			}
		}()
	}

	fetch("tag_preferences", func() error {
		prefs, err := s.feedRepo.TagPreferences(ctx, viewerID)
		if err != nil {
			return err
		}
		mu.Lock()
		sig.tagPrefs = prefs
		mu.Unlock()
		return nil
	})
	fetch("liked", func() error {
		set, err := s.feedRepo.LikedSet(ctx, viewerID, postIDs)
		if err != nil {
			return err
		}
		mu.Lock()
		sig.liked = set
		mu.Unlock()
		return nil
	})
	fetch("bookmarked", func() error {
		set, err := s.feedRepo.BookmarkedSet(ctx, viewerID, postIDs)
		if err != nil {
			return err
		}
		mu.Lock()
		sig.bookmarked = set
		mu.Unlock()
		return nil
	})
	fetch("following", func() error {
		set, err := s.feedRepo.FollowingSet(ctx, viewerID, authorIDs)
		if err != nil {
			return err
		}
		mu.Lock()
		sig.following = set
		mu.Unlock()
		return nil
	})
	fetch("exposed", func() error {
		set, err := s.feedRepo.ExposedSet(ctx, viewerID, postIDs)
		if err != nil {
			return err
		}
		mu.Lock()
		sig.exposed = set
		mu.Unlock()
		return nil
	})
	fetch("viewed", func() error {
		set, err := s.feedRepo.ViewedSet(ctx, viewerID, postIDs)
		if err != nil {
			return err
		}
		mu.Lock()
		sig.viewed = set
		mu.Unlock()
		return nil
	})
	fetch("active_authors", func() error {
		set, err := s.feedRepo.ActiveAuthorSet(ctx, authorIDs, weekAgo)
		if err != nil {
			return err
		}
		mu.Lock()
		sig.activeAuthors = set
		mu.Unlock()
		return nil
	})
	fetch("like_counts", func() error {
		counts, err := s.feedRepo.LikeCounts(ctx, postIDs)
		if err != nil {
			return err
		}
		mu.Lock()
		sig.likeCounts = counts
		mu.Unlock()
		return nil
	})
	fetch("bookmark_counts", func() error {
		counts, err := s.feedRepo.BookmarkCounts(ctx, postIDs)
		if err != nil {
			return err
		}
		mu.Lock()
		sig.bookmarkCounts = counts
		mu.Unlock()
		return nil
	})
	fetch("comment_counts", func() error {
		counts, err := s.feedRepo.CommentCounts(ctx, postIDs)
		if err != nil {
			return err
		}
		mu.Lock()
		sig.commentCounts = counts
		mu.Unlock()
		return nil
	})

	wg.Wait()
	return sig
}

func (s *feedService) personalizedFeed(ctx context.Context, viewerID uint, limit int, cursor *repository.FeedCursor, weights dto.FeedWeights) (*dto.HomeFeedResponse, error) {
	candidates, err := s.feedRepo.FetchCandidates(ctx, limit+1, cursor)
	if err != nil {
		return nil, err
	}

	shown := candidates
	if len(shown) > limit {
		shown = shown[:limit]
	}
	ids := postIDs(shown)
	authorIDs := uniqueAuthorIDs(shown)

	sig := s.collectSignals(ctx, viewerID, ids, authorIDs)

	now := s.now()
	dayAgo := now.Add(-24 * time.Hour)

	posts := make([]dto.FeedPost, 0, len(shown))
	info := dto.AlgorithmInfo{}
	for _, post := range shown {
		isFollowing := sig.following[post.AuthorID]
		score := scorePost(post, isFollowing, sig.likeCounts[post.ID], sig.bookmarkCounts[post.ID], sig.tagPrefs, weights, now)

		// Fresh posts from followed authors the viewer hasn't seen yet get
		// pushed up; posts they scrolled past without opening get pushed down.
		if isFollowing && !sig.exposed[post.ID] && !post.CreatedAt.Before(dayAgo) {
			score += 30
		}
		if !sig.activeAuthors[post.AuthorID] {
			score += 10
		}
		if sig.exposed[post.ID] && !sig.viewed[post.ID] {
			score -= 20
		}
		if hourDiff := absInt(now.Hour() - post.CreatedAt.Hour()); hourDiff <= 2 {
			score += 5
		}

		reason := FeedReasonRecommended
		switch {
		case isFollowing:
			reason = FeedReasonFollowing
			info.FollowingCount++
		case sig.bookmarkCounts[post.ID] > popularBookmarkThreshold:
			reason = FeedReasonPopular
			info.PopularCount++
		default:
			info.PersonalizedCount++
		}
		if now.Sub(post.CreatedAt).Hours() < 24 {
			info.RecentCount++
		}

		scoreCopy := score
		posts = append(posts, toFeedPost(post, postSignals{
			likes:        sig.likeCounts[post.ID],
			comments:     sig.commentCounts[post.ID],
			bookmarks:    sig.bookmarkCounts[post.ID],
			isLiked:      sig.liked[post.ID],
			isBookmarked: sig.bookmarked[post.ID],
			isFollowing:  isFollowing,
			isMine:       post.AuthorID == viewerID,
			score:        &scoreCopy,
			reason:       reason,
		}))
	}

	hasMore := len(candidates) > limit
	var nextCursor *string
	if hasMore {
		cursorStr := makeNextCursor(candidates[minInt(len(candidates), limit)-1])
		nextCursor = &cursorStr
	}

	// Impressions are logged after the page is assembled and never block or
	// fail the response.
	s.exposures.RecordFeedExposures(viewerID, ids)

	return &dto.HomeFeedResponse{
		Posts: posts,
		Pagination: dto.Pagination{
			HasMore:    hasMore,
			NextCursor: nextCursor,
			TotalShown: len(posts),
		},
		AlgorithmInfo: info,
	}, nil
}

func postIDs(posts []model.Post) []uint {
	ids := make([]uint, 0, len(posts))
	for _, post := range posts {
		ids = append(ids, post.ID)
	}
	return ids
}

func uniqueAuthorIDs(posts []model.Post) []uint {
	seen := make(map[uint]bool, len(posts))
	ids := make([]uint, 0, len(posts))
	for _, post := range posts {
		if !seen[post.AuthorID] {
			seen[post.AuthorID] = true
			ids = append(ids, post.AuthorID)
		}
	}
	return ids
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
