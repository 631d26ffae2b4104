package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lumo.kr/auragram/internal/dto"
	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
	"lumo.kr/auragram/pkg/apperror"
)

func newGalleryService(t *testing.T, db *gorm.DB) GalleryService {
	t.Helper()
	return NewGalleryService(repository.NewGalleryRepository(db))
}

func createTestGallery(t *testing.T, db *gorm.DB, svc GalleryService, ownerID uint, slots int) *model.Gallery {
	t.Helper()

	gallery, err := svc.CreateGallery(context.Background(), ownerID, dto.CreateGalleryRequest{
		Name:       "atelier",
		TotalSlots: slots,
	})
	require.NoError(t, err)
	return gallery
}

func sampleArtwork(slot int) dto.CreateArtworkRequest {
	return dto.CreateArtworkRequest{
		SlotNumber: slot,
		Title:      "untitled",
		ImageURL:   "https://img.example.com/artwork.jpg",
	}
}

func TestCreateGallery(t *testing.T) {
	db := setupTestDB(t)
	svc := newGalleryService(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner", 0)
	gallery := createTestGallery(t, db, svc, owner.ID, 6)

	t.Run("slots are created empty", func(t *testing.T) {
		_, slots, err := svc.GetGallery(ctx, &owner.ID, gallery.ID)
		require.NoError(t, err)
		require.Len(t, slots, 6)
		for i, slot := range slots {
			assert.Equal(t, i+1, slot.SlotNumber)
			assert.Nil(t, slot.ArtworkID)
		}
	})

	t.Run("one gallery per owner", func(t *testing.T) {
		_, err := svc.CreateGallery(ctx, owner.ID, dto.CreateGalleryRequest{Name: "second", TotalSlots: 4})
		assert.ErrorIs(t, err, apperror.ErrBadRequest)
	})
}

func TestGalleryVisitors(t *testing.T) {
	db := setupTestDB(t)
	svc := newGalleryService(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner", 0)
	visitor := createTestUser(t, db, "visitor", 0)
	gallery := createTestGallery(t, db, svc, owner.ID, 3)

	// Owner visits do not count; strangers and anonymous visitors do.
	got, _, err := svc.GetGallery(ctx, &owner.ID, gallery.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.VisitorCount)

	got, _, err = svc.GetGallery(ctx, &visitor.ID, gallery.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.VisitorCount)
	assert.Equal(t, 1, got.MonthlyVisitors)

	got, _, err = svc.GetGallery(ctx, nil, gallery.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.VisitorCount)
}

func TestPlaceArtwork(t *testing.T) {
	db := setupTestDB(t)
	svc := newGalleryService(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner", 0)
	other := createTestUser(t, db, "other", 0)
	gallery := createTestGallery(t, db, svc, owner.ID, 3)

	t.Run("only the owner places", func(t *testing.T) {
		_, err := svc.PlaceArtwork(ctx, other.ID, gallery.ID, sampleArtwork(1))
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("slot number must exist", func(t *testing.T) {
		_, err := svc.PlaceArtwork(ctx, owner.ID, gallery.ID, sampleArtwork(4))
		assert.ErrorIs(t, err, apperror.ErrBadRequest)
	})

	t.Run("occupied slot refused", func(t *testing.T) {
		_, err := svc.PlaceArtwork(ctx, owner.ID, gallery.ID, sampleArtwork(2))
		require.NoError(t, err)

		_, err = svc.PlaceArtwork(ctx, owner.ID, gallery.ID, sampleArtwork(2))
		assert.ErrorIs(t, err, apperror.ErrSlotOccupied)
	})

	t.Run("removal frees the slot", func(t *testing.T) {
		artwork, err := svc.PlaceArtwork(ctx, owner.ID, gallery.ID, sampleArtwork(3))
		require.NoError(t, err)

		assert.ErrorIs(t, svc.RemoveArtwork(ctx, other.ID, artwork.ID), apperror.ErrForbidden)
		require.NoError(t, svc.RemoveArtwork(ctx, owner.ID, artwork.ID))

		_, err = svc.PlaceArtwork(ctx, owner.ID, gallery.ID, sampleArtwork(3))
		require.NoError(t, err)
	})
}

func TestArtworkCounters(t *testing.T) {
	db := setupTestDB(t)
	svc := newGalleryService(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner", 0)
	gallery := createTestGallery(t, db, svc, owner.ID, 2)

	artwork, err := svc.PlaceArtwork(ctx, owner.ID, gallery.ID, sampleArtwork(1))
	require.NoError(t, err)

	viewed, err := svc.ViewArtwork(ctx, artwork.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, viewed.GalleryViews)

	// Likes are a bare counter; every call counts, viewer or not.
	require.NoError(t, svc.LikeArtwork(ctx, artwork.ID))
	require.NoError(t, svc.LikeArtwork(ctx, artwork.ID))

	var stored model.Artwork
	require.NoError(t, db.First(&stored, artwork.ID).Error)
	assert.Equal(t, 2, stored.GalleryLikes)

	assert.ErrorIs(t, svc.LikeArtwork(ctx, 9999), apperror.ErrNotFound)
}

func TestUpdateGalleryAndArtwork(t *testing.T) {
	db := setupTestDB(t)
	svc := newGalleryService(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner", 0)
	other := createTestUser(t, db, "other", 0)
	gallery := createTestGallery(t, db, svc, owner.ID, 2)

	name := "renamed"
	_, err := svc.UpdateGallery(ctx, other.ID, gallery.ID, dto.UpdateGalleryRequest{Name: &name})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	updated, err := svc.UpdateGallery(ctx, owner.ID, gallery.ID, dto.UpdateGalleryRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)

	artwork, err := svc.PlaceArtwork(ctx, owner.ID, gallery.ID, sampleArtwork(1))
	require.NoError(t, err)

	title := "retitled"
	_, err = svc.UpdateArtwork(ctx, other.ID, artwork.ID, dto.UpdateArtworkRequest{Title: &title})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	got, err := svc.UpdateArtwork(ctx, owner.ID, artwork.ID, dto.UpdateArtworkRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "retitled", got.Title)
}

func TestListGalleries(t *testing.T) {
	db := setupTestDB(t)
	svc := newGalleryService(t, db)
	ctx := context.Background()

	quietOwner := createTestUser(t, db, "quiet", 0)
	busyOwner := createTestUser(t, db, "busy", 0)
	visitor := createTestUser(t, db, "visitor", 0)

	quiet := createTestGallery(t, db, svc, quietOwner.ID, 2)
	busy := createTestGallery(t, db, svc, busyOwner.ID, 2)

	// Traffic pushes a gallery up the list.
	for i := 0; i < 3; i++ {
		_, _, err := svc.GetGallery(ctx, &visitor.ID, busy.ID)
		require.NoError(t, err)
	}

	galleries, total, err := svc.ListGalleries(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, galleries, 2)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, busy.ID, galleries[0].ID)
	assert.Equal(t, quiet.ID, galleries[1].ID)
}
