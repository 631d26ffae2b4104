package service

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"lumo.kr/auragram/internal/dto"
	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
	"lumo.kr/auragram/pkg/apperror"
)

type GalleryService interface {
	CreateGallery(ctx context.Context, ownerID uint, req dto.CreateGalleryRequest) (*model.Gallery, error)
	GetGallery(ctx context.Context, viewerID *uint, galleryID uint) (*model.Gallery, []model.GallerySlot, error)
	UpdateGallery(ctx context.Context, ownerID, galleryID uint, req dto.UpdateGalleryRequest) (*model.Gallery, error)
	ListGalleries(ctx context.Context, page, limit int) ([]model.Gallery, int64, error)

	PlaceArtwork(ctx context.Context, ownerID, galleryID uint, req dto.CreateArtworkRequest) (*model.Artwork, error)
	UpdateArtwork(ctx context.Context, ownerID, artworkID uint, req dto.UpdateArtworkRequest) (*model.Artwork, error)
	RemoveArtwork(ctx context.Context, ownerID, artworkID uint) error
	ViewArtwork(ctx context.Context, artworkID uint) (*model.Artwork, error)
	// LikeArtwork bumps the artwork's like counter. Gallery likes are a bare
	// counter with no per-user record, so every call counts.
	LikeArtwork(ctx context.Context, artworkID uint) error
}

type galleryService struct {
	galleryRepo repository.GalleryRepository
}

func NewGalleryService(galleryRepo repository.GalleryRepository) GalleryService {
	return &galleryService{galleryRepo: galleryRepo}
}

func (s *galleryService) CreateGallery(ctx context.Context, ownerID uint, req dto.CreateGalleryRequest) (*model.Gallery, error) {
	// One gallery per owner.
	if _, err := s.galleryRepo.FindByOwner(ctx, ownerID); err == nil {
		return nil, apperror.ErrBadRequest
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	gallery := &model.Gallery{
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		TotalSlots:  req.TotalSlots,
	}
	if err := s.galleryRepo.CreateWithSlots(ctx, gallery); err != nil {
		return nil, err
	}
	return gallery, nil
}

func (s *galleryService) GetGallery(ctx context.Context, viewerID *uint, galleryID uint) (*model.Gallery, []model.GallerySlot, error) {
	gallery, err := s.galleryRepo.FindByID(ctx, galleryID)
	if err != nil {
		return nil, nil, err
	}

	slots, err := s.galleryRepo.ListSlots(ctx, galleryID)
	if err != nil {
		return nil, nil, err
	}

	// Owners browsing their own gallery don't count as visitors.
	if viewerID == nil || *viewerID != gallery.OwnerID {
		if err := s.galleryRepo.IncrementVisitors(ctx, galleryID); err != nil {
			log.WithError(err).Warn("failed to count gallery visit")
		} else {
			gallery.VisitorCount++
			gallery.MonthlyVisitors++
		}
	}

	return gallery, slots, nil
}

func (s *galleryService) UpdateGallery(ctx context.Context, ownerID, galleryID uint, req dto.UpdateGalleryRequest) (*model.Gallery, error) {
	gallery, err := s.galleryRepo.FindByID(ctx, galleryID)
	if err != nil {
		return nil, err
	}
	if gallery.OwnerID != ownerID {
		return nil, apperror.ErrForbidden
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) == 0 {
		return gallery, nil
	}

	if err := s.galleryRepo.Update(ctx, galleryID, updates); err != nil {
		return nil, err
	}
	return s.galleryRepo.FindByID(ctx, galleryID)
}

func (s *galleryService) ListGalleries(ctx context.Context, page, limit int) ([]model.Gallery, int64, error) {
	if page < 1 {
		page = 1
	}
	limit = clampLimit(limit, defaultSearchLimit)
	return s.galleryRepo.List(ctx, (page-1)*limit, limit)
}

func (s *galleryService) PlaceArtwork(ctx context.Context, ownerID, galleryID uint, req dto.CreateArtworkRequest) (*model.Artwork, error) {
	gallery, err := s.galleryRepo.FindByID(ctx, galleryID)
	if err != nil {
		return nil, err
	}
	if gallery.OwnerID != ownerID {
		return nil, apperror.ErrForbidden
	}
	if req.SlotNumber > gallery.TotalSlots {
		return nil, apperror.ErrBadRequest
	}

	artwork := &model.Artwork{
		GalleryID:   galleryID,
		OwnerID:     ownerID,
		PostID:      req.PostID,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if err := s.galleryRepo.PlaceArtwork(ctx, artwork, req.SlotNumber); err != nil {
		return nil, err
	}
	return artwork, nil
}

func (s *galleryService) UpdateArtwork(ctx context.Context, ownerID, artworkID uint, req dto.UpdateArtworkRequest) (*model.Artwork, error) {
	artwork, err := s.galleryRepo.FindArtwork(ctx, artworkID)
	if err != nil {
		return nil, err
	}
	if artwork.OwnerID != ownerID {
		return nil, apperror.ErrForbidden
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if len(updates) == 0 {
		return artwork, nil
	}

	if err := s.galleryRepo.UpdateArtwork(ctx, artworkID, updates); err != nil {
		return nil, err
	}
	return s.galleryRepo.FindArtwork(ctx, artworkID)
}

func (s *galleryService) RemoveArtwork(ctx context.Context, ownerID, artworkID uint) error {
	artwork, err := s.galleryRepo.FindArtwork(ctx, artworkID)
	if err != nil {
		return err
	}
	if artwork.OwnerID != ownerID {
		return apperror.ErrForbidden
	}
	return s.galleryRepo.RemoveArtwork(ctx, artworkID)
}

func (s *galleryService) ViewArtwork(ctx context.Context, artworkID uint) (*model.Artwork, error) {
	artwork, err := s.galleryRepo.FindArtwork(ctx, artworkID)
	if err != nil {
		return nil, err
	}
	if err := s.galleryRepo.IncrementArtworkViews(ctx, artworkID); err != nil {
		log.WithError(err).Warn("failed to count artwork view")
	} else {
		artwork.GalleryViews++
	}
	return artwork, nil
}

func (s *galleryService) LikeArtwork(ctx context.Context, artworkID uint) error {
	if _, err := s.galleryRepo.FindArtwork(ctx, artworkID); err != nil {
		return err
	}
	return s.galleryRepo.IncrementArtworkLikes(ctx, artworkID)
}
