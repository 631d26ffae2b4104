package service

import (
	"strconv"

	"github.com/meilisearch/meilisearch-go"
	log "github.com/sirupsen/logrus"

	"lumo.kr/auragram/internal/model"
)

// MeiliSearchService keeps the discovery indexes in sync with the primary
// store. The ranked post search runs against the database; Meilisearch backs
// typeahead and fuzzy discovery, so indexing failures are logged, not fatal.
type MeiliSearchService interface {
	IndexPost(post *model.Post) error
	DeletePost(id uint) error
	IndexUser(user *model.User) error
}

type meiliSearchService struct {
	client meilisearch.ServiceManager
}

func NewMeiliSearchService(client meilisearch.ServiceManager) MeiliSearchService {
	s := &meiliSearchService{client: client}
	if client != nil {
		s.initIndexes()
	}
	return s
}

func (s *meiliSearchService) initIndexes() {
	postFilterable := []string{"author_id", "tags"}
	filterableInterface := make([]any, len(postFilterable))
	for i, v := range postFilterable {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index("posts").UpdateFilterableAttributes(&filterableInterface); err != nil {
		log.WithError(err).Warn("failed to update posts filterable attributes")
	}

	postSortable := []string{"created_at", "view_count"}
	if _, err := s.client.Index("posts").UpdateSortableAttributes(&postSortable); err != nil {
		log.WithError(err).Warn("failed to update posts sortable attributes")
	}

	log.Info("meilisearch indexes initialized")
}

type meiliPostDoc struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	AuthorID    uint     `json:"author_id"`
	AuthorName  string   `json:"author_name"`
	Tags        []string `json:"tags"`
	ViewCount   int      `json:"view_count"`
	CreatedAt   int64    `json:"created_at"`
}

type meiliUserDoc struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Bio  string `json:"bio"`
}

func (s *meiliSearchService) IndexPost(post *model.Post) error {
	if s.client == nil {
		return nil
	}

	tags := make([]string, 0, len(post.Tags))
	for _, tag := range post.Tags {
		tags = append(tags, tag.Name)
	}

	doc := meiliPostDoc{
		ID:         post.ID,
		Title:      post.Title,
		AuthorID:   post.AuthorID,
		AuthorName: post.Author.Name,
		Tags:       tags,
		ViewCount:  post.ViewCount,
		CreatedAt:  post.CreatedAt.Unix(),
	}
	if post.Description != nil {
		doc.Description = *post.Description
	}

	_, err := s.client.Index("posts").AddDocuments([]meiliPostDoc{doc}, strPtr("id"))
	return err
}

func (s *meiliSearchService) DeletePost(id uint) error {
	if s.client == nil {
		return nil
	}
	_, err := s.client.Index("posts").DeleteDocument(uintToStr(id))
	return err
}

func (s *meiliSearchService) IndexUser(user *model.User) error {
	if s.client == nil {
		return nil
	}

	doc := meiliUserDoc{ID: user.ID, Name: user.Name}
	if user.Bio != nil {
		doc.Bio = *user.Bio
	}

	_, err := s.client.Index("users").AddDocuments([]meiliUserDoc{doc}, strPtr("id"))
	return err
}

func strPtr(s string) *string {
	return &s
}

func uintToStr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
