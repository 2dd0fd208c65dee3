package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opticshop/backend/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func textUpload(name, body string) Upload {
	return Upload{
		Filename:    name,
		ContentType: "image/jpeg",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

type catalogFixture struct {
	catalog   *CatalogService
	frames    *MemoryFrameService
	refs      *MemoryReferenceService
	uploadDir string
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	dataDir := t.TempDir()
	uploadDir := filepath.Join(t.TempDir(), "uploads")

	frames, err := NewMemoryFrameService(dataDir)
	if err != nil {
		t.Fatalf("NewMemoryFrameService() error = %v", err)
	}
	refs, err := NewMemoryReferenceService(dataDir)
	if err != nil {
		t.Fatalf("NewMemoryReferenceService() error = %v", err)
	}
	images, err := NewLocalImageStore(uploadDir)
	if err != nil {
		t.Fatalf("NewLocalImageStore() error = %v", err)
	}
	if _, err := refs.Create(context.Background(), models.KindColor, &models.CreateReferenceRequest{Name: "Gold", Hex: "#d4af37"}); err != nil {
		t.Fatal(err)
	}
	return &catalogFixture{
		catalog:   NewCatalogService(frames, refs, images),
		frames:    frames,
		refs:      refs,
		uploadDir: uploadDir,
	}
}

func (fx *catalogFixture) fileCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(fx.uploadDir)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func aviatorRequest() *models.FrameRequest {
	return &models.FrameRequest{
		Name:        "Aviator",
		Description: "Classic metal aviator",
		Price:       floatPtr(120),
		Category:    models.CategorySunglasses,
		Gender:      models.GenderUnisex,
		Size:        models.SizeMedium,
		FrameType:   models.FrameTypeFullRim,
		Shape:       "Pilot",
		Brand:       "Ray-Ban",
		Variations: models.RawVariations{
			{Color: "gold", Material: "Metal", Quantity: intPtr(5), DiscountPercent: floatPtr(10)},
		},
	}
}

func TestCatalogCreateFrame(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()

	frame, err := fx.catalog.CreateFrame(ctx, aviatorRequest(), FrameUploads{
		Images:          []Upload{textUpload("front.jpg", "a")},
		VariationImages: map[int][]Upload{0: {textUpload("gold.png", "b")}},
	})
	if err != nil {
		t.Fatalf("CreateFrame() error = %v", err)
	}
	if frame.ID != 1 {
		t.Errorf("ID = %d, want 1", frame.ID)
	}
	if len(frame.ImageURLs) != 1 || !strings.HasPrefix(frame.ImageURLs[0], "/uploads/") {
		t.Errorf("ImageURLs = %v", frame.ImageURLs)
	}
	v := frame.Variations[0]
	if v.ID == nil || *v.ID <= 0 {
		t.Errorf("variation id not assigned: %v", v.ID)
	}
	if v.HexColor != "#D4AF37" {
		t.Errorf("HexColor = %q, want #D4AF37", v.HexColor)
	}
	if v.DiscountedPrice == nil || *v.DiscountedPrice != 108 {
		t.Errorf("DiscountedPrice = %v, want 108", v.DiscountedPrice)
	}
	if len(v.ImageURLs) != 1 || !strings.HasSuffix(v.ImageURLs[0], ".png") {
		t.Errorf("variation ImageURLs = %v", v.ImageURLs)
	}
	if got := fx.fileCount(t); got != 2 {
		t.Errorf("stored files = %d, want 2", got)
	}
}

func TestCatalogUpdateRemovesDroppedImages(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()

	created, err := fx.catalog.CreateFrame(ctx, aviatorRequest(), FrameUploads{
		Images: []Upload{textUpload("a.jpg", "a"), textUpload("b.jpg", "b")},
	})
	if err != nil {
		t.Fatal(err)
	}

	req := aviatorRequest()
	req.ID = created.ID
	req.Name = "Aviator II"
	req.ImageURLs = []string{created.ImageURLs[1], "/uploads/not-ours.jpg"}
	req.Variations[0].ID = created.Variations[0].ID

	updated, err := fx.catalog.UpdateFrame(ctx, req, FrameUploads{})
	if err != nil {
		t.Fatalf("UpdateFrame() error = %v", err)
	}
	if updated.Name != "Aviator II" {
		t.Errorf("Name = %q", updated.Name)
	}
	if len(updated.ImageURLs) != 1 || updated.ImageURLs[0] != created.ImageURLs[1] {
		t.Errorf("ImageURLs = %v, want only the retained one", updated.ImageURLs)
	}
	if *updated.Variations[0].ID != *created.Variations[0].ID {
		t.Error("variation id changed across update")
	}
	if got := fx.fileCount(t); got != 1 {
		t.Errorf("stored files = %d, want 1", got)
	}
}

func TestCatalogUpdateUnknownFrame(t *testing.T) {
	fx := newCatalogFixture(t)
	req := aviatorRequest()
	req.ID = 42
	_, err := fx.catalog.UpdateFrame(context.Background(), req, FrameUploads{Images: []Upload{textUpload("a.jpg", "a")}})
	if !errors.Is(err, ErrFrameNotFound) {
		t.Fatalf("UpdateFrame() error = %v, want ErrFrameNotFound", err)
	}
	if got := fx.fileCount(t); got != 0 {
		t.Errorf("stored files = %d, want 0", got)
	}
}

func TestCatalogCreateCleansUpOnFailure(t *testing.T) {
	fx := newCatalogFixture(t)
	broken := Upload{
		Filename: "broken.jpg",
		Open:     func() (io.ReadCloser, error) { return nil, errors.New("boom") },
	}
	_, err := fx.catalog.CreateFrame(context.Background(), aviatorRequest(), FrameUploads{
		Images: []Upload{textUpload("ok.jpg", "a"), broken},
	})
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("CreateFrame() error = %v, want ErrInvalidImage", err)
	}
	if got := fx.fileCount(t); got != 0 {
		t.Errorf("stored files = %d, want 0 after rollback", got)
	}
	if list, _ := fx.frames.List(context.Background()); len(list) != 0 {
		t.Errorf("frames = %d, want 0", len(list))
	}
}

func TestCatalogDeleteFrame(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()

	created, err := fx.catalog.CreateFrame(ctx, aviatorRequest(), FrameUploads{Images: []Upload{textUpload("a.jpg", "a")}})
	if err != nil {
		t.Fatal(err)
	}
	if err := fx.catalog.DeleteFrame(ctx, created.ID); err != nil {
		t.Fatalf("DeleteFrame() error = %v", err)
	}
	if _, err := fx.frames.Get(ctx, created.ID); !errors.Is(err, ErrFrameNotFound) {
		t.Errorf("Get() after delete error = %v", err)
	}
	if got := fx.fileCount(t); got != 0 {
		t.Errorf("stored files = %d, want 0", got)
	}
	if err := fx.catalog.DeleteFrame(ctx, created.ID); !errors.Is(err, ErrFrameNotFound) {
		t.Errorf("second DeleteFrame() error = %v, want ErrFrameNotFound", err)
	}
}

func TestCatalogUpdateRequiresAnOwnedImage(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()

	created, err := fx.catalog.CreateFrame(ctx, aviatorRequest(), FrameUploads{Images: []Upload{textUpload("a.jpg", "a")}})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		images []string
	}{
		{"foreign url only", []string{"https://evil.example/x.jpg"}},
		{"no url", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := aviatorRequest()
			req.ID = created.ID
			req.ImageURLs = tt.images

			_, err := fx.catalog.UpdateFrame(ctx, req, FrameUploads{})
			if !errors.Is(err, ErrNoImages) {
				t.Fatalf("UpdateFrame() error = %v, want ErrNoImages", err)
			}
			stored, err := fx.frames.Get(ctx, created.ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(stored.ImageURLs) != 1 || stored.ImageURLs[0] != created.ImageURLs[0] {
				t.Errorf("ImageURLs = %v, want unchanged", stored.ImageURLs)
			}
			if got := fx.fileCount(t); got != 1 {
				t.Errorf("stored files = %d, want 1", got)
			}
		})
	}
}

func TestCatalogCreateRequiresImage(t *testing.T) {
	fx := newCatalogFixture(t)
	if _, err := fx.catalog.CreateFrame(context.Background(), aviatorRequest(), FrameUploads{}); !errors.Is(err, ErrNoImages) {
		t.Fatalf("CreateFrame() error = %v, want ErrNoImages", err)
	}
}

func TestCatalogUpdateDropsForeignVariationIDs(t *testing.T) {
	fx := newCatalogFixture(t)
	ctx := context.Background()

	a, err := fx.catalog.CreateFrame(ctx, aviatorRequest(), FrameUploads{Images: []Upload{textUpload("a.jpg", "a")}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := fx.catalog.CreateFrame(ctx, aviatorRequest(), FrameUploads{Images: []Upload{textUpload("b.jpg", "b")}})
	if err != nil {
		t.Fatal(err)
	}
	aID := *a.Variations[0].ID
	bID := *b.Variations[0].ID

	req := aviatorRequest()
	req.ID = b.ID
	req.ImageURLs = b.ImageURLs
	req.Variations = models.RawVariations{
		{ID: &aID, Color: "gold", Material: "Metal", Quantity: intPtr(1)},
		{ID: &bID, Color: "gold", Material: "Titanium", Quantity: intPtr(2)},
		{ID: &bID, Color: "gold", Material: "Acetate", Quantity: intPtr(3)},
	}

	updated, err := fx.catalog.UpdateFrame(ctx, req, FrameUploads{})
	if err != nil {
		t.Fatalf("UpdateFrame() error = %v", err)
	}

	seen := map[int64]bool{aID: true}
	for i, v := range updated.Variations {
		if v.ID == nil {
			t.Fatalf("variation %d has no id", i)
		}
		if seen[*v.ID] {
			t.Errorf("variation %d id = %d, already used", i, *v.ID)
		}
		seen[*v.ID] = true
	}
	if *updated.Variations[1].ID != bID {
		t.Errorf("owned variation id = %d, want %d", *updated.Variations[1].ID, bID)
	}
}
