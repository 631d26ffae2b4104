package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/pkg/apperror"
)

type GalleryRepository interface {
	// CreateWithSlots creates the gallery and its numbered empty slots in one
	// transaction.
	CreateWithSlots(ctx context.Context, gallery *model.Gallery) error
	FindByID(ctx context.Context, id uint) (*model.Gallery, error)
	FindByOwner(ctx context.Context, ownerID uint) (*model.Gallery, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) error
	List(ctx context.Context, offset, limit int) ([]model.Gallery, int64, error)
	IncrementVisitors(ctx context.Context, id uint) error
	ResetMonthlyVisitors(ctx context.Context) error

	ListSlots(ctx context.Context, galleryID uint) ([]model.GallerySlot, error)
	FindSlot(ctx context.Context, galleryID uint, slotNumber int) (*model.GallerySlot, error)

	// PlaceArtwork creates the artwork and claims the slot; fails with
	// ErrSlotOccupied when the slot already holds one.
	PlaceArtwork(ctx context.Context, artwork *model.Artwork, slotNumber int) error
	FindArtwork(ctx context.Context, id uint) (*model.Artwork, error)
	UpdateArtwork(ctx context.Context, id uint, updates map[string]interface{}) error
	// RemoveArtwork releases the slot and deletes the artwork.
	RemoveArtwork(ctx context.Context, artworkID uint) error
	IncrementArtworkViews(ctx context.Context, id uint) error
	IncrementArtworkLikes(ctx context.Context, id uint) error
}

type galleryRepository struct {
	db *gorm.DB
}

func NewGalleryRepository(db *gorm.DB) GalleryRepository {
	return &galleryRepository{db: db}
}

func (r *galleryRepository) CreateWithSlots(ctx context.Context, gallery *model.Gallery) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(gallery).Error; err != nil {
			return err
		}

		slots := make([]model.GallerySlot, 0, gallery.TotalSlots)
		for i := 1; i <= gallery.TotalSlots; i++ {
			slots = append(slots, model.GallerySlot{GalleryID: gallery.ID, SlotNumber: i})
		}
		return tx.Create(&slots).Error
	})
}

func (r *galleryRepository) FindByID(ctx context.Context, id uint) (*model.Gallery, error) {
	var gallery model.Gallery
	err := r.db.WithContext(ctx).Preload("Owner").First(&gallery, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &gallery, nil
}

func (r *galleryRepository) FindByOwner(ctx context.Context, ownerID uint) (*model.Gallery, error) {
	var gallery model.Gallery
	err := r.db.WithContext(ctx).Preload("Owner").
		Where("owner_id = ?", ownerID).
		First(&gallery).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &gallery, nil
}

func (r *galleryRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Gallery{}).Where("id = ?", id).Updates(updates).Error
}

func (r *galleryRepository) List(ctx context.Context, offset, limit int) ([]model.Gallery, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Gallery{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var galleries []model.Gallery
	err := r.db.WithContext(ctx).Preload("Owner").
		Order("monthly_visitors DESC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&galleries).Error
	return galleries, total, err
}

func (r *galleryRepository) IncrementVisitors(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.Gallery{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"visitor_count":    gorm.Expr("visitor_count + 1"),
			"monthly_visitors": gorm.Expr("monthly_visitors + 1"),
		}).Error
}

func (r *galleryRepository) ResetMonthlyVisitors(ctx context.Context) error {
	return r.db.WithContext(ctx).Model(&model.Gallery{}).
		Where("monthly_visitors > 0").
		Update("monthly_visitors", 0).Error
}

func (r *galleryRepository) ListSlots(ctx context.Context, galleryID uint) ([]model.GallerySlot, error) {
	var slots []model.GallerySlot
	err := r.db.WithContext(ctx).Preload("Artwork").
		Where("gallery_id = ?", galleryID).
		Order("slot_number ASC").
		Find(&slots).Error
	return slots, err
}

func (r *galleryRepository) FindSlot(ctx context.Context, galleryID uint, slotNumber int) (*model.GallerySlot, error) {
	var slot model.GallerySlot
	err := r.db.WithContext(ctx).Preload("Artwork").
		Where("gallery_id = ? AND slot_number = ?", galleryID, slotNumber).
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &slot, nil
}

func (r *galleryRepository) PlaceArtwork(ctx context.Context, artwork *model.Artwork, slotNumber int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(artwork).Error; err != nil {
			return err
		}

		// Conditional update keeps two concurrent placements from sharing a
		// slot: only the one that sees artwork_id IS NULL wins.
		result := tx.Model(&model.GallerySlot{}).
			Where("gallery_id = ? AND slot_number = ? AND artwork_id IS NULL", artwork.GalleryID, slotNumber).
			Update("artwork_id", artwork.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperror.ErrSlotOccupied
		}
		return nil
	})
}

func (r *galleryRepository) FindArtwork(ctx context.Context, id uint) (*model.Artwork, error) {
	var artwork model.Artwork
	err := r.db.WithContext(ctx).First(&artwork, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return &artwork, nil
}

func (r *galleryRepository) UpdateArtwork(ctx context.Context, id uint, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Artwork{}).Where("id = ?", id).Updates(updates).Error
}

func (r *galleryRepository) RemoveArtwork(ctx context.Context, artworkID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.GallerySlot{}).
			Where("artwork_id = ?", artworkID).
			Update("artwork_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Artwork{}, artworkID).Error
	})
}

func (r *galleryRepository) IncrementArtworkViews(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.Artwork{}).
		Where("id = ?", id).
		Update("gallery_views", gorm.Expr("gallery_views + 1")).Error
}

func (r *galleryRepository) IncrementArtworkLikes(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.Artwork{}).
		Where("id = ?", id).
		Update("gallery_likes", gorm.Expr("gallery_likes + 1")).Error
}
