package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/opticshop/backend/internal/models"
)

// Upload is one file part of a frame form. Open is called once.
type Upload struct {
	Filename    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// FrameUploads groups the new files of a create or update request.
// VariationImages is keyed by the variation's position in rawVariations.
type FrameUploads struct {
	Images          []Upload
	VariationImages map[int][]Upload
}

// Count is the number of new files across the frame and its variations.
func (u FrameUploads) Count() int {
	n := len(u.Images)
	for _, list := range u.VariationImages {
		n += len(list)
	}
	return n
}

// CatalogService ties frame persistence to image storage and the color list
// used to decorate variations.
type CatalogService struct {
	frames FrameService
	refs   ReferenceService
	images ImageStore
}

func NewCatalogService(frames FrameService, refs ReferenceService, images ImageStore) *CatalogService {
	return &CatalogService{frames: frames, refs: refs, images: images}
}

func (c *CatalogService) CreateFrame(ctx context.Context, req *models.FrameRequest, uploads FrameUploads) (*models.Frame, error) {
	if len(uploads.Images) == 0 {
		return nil, ErrNoImages
	}
	saved := make([]string, 0, uploads.Count())
	fail := func(err error) (*models.Frame, error) {
		c.removeImages(ctx, saved)
		return nil, err
	}

	frameURLs, err := c.saveAll(ctx, uploads.Images, &saved)
	if err != nil {
		return fail(err)
	}

	frame := req.ToFrame(frameURLs)
	for i := range frame.Variations {
		frame.Variations[i].ID = nil
		urls, err := c.saveAll(ctx, uploads.VariationImages[i], &saved)
		if err != nil {
			return fail(err)
		}
		frame.Variations[i].ImageURLs = urls
	}

	if err := c.decorate(ctx, frame); err != nil {
		return fail(err)
	}

	created, err := c.frames.Create(ctx, frame)
	if err != nil {
		return fail(err)
	}
	log.Printf("Frame created: id=%d name=%q images=%d variations=%d", created.ID, created.Name, len(saved), len(created.Variations))
	return created, nil
}

// UpdateFrame rewrites the frame and its variations wholesale. Retained URLs
// and variation ids are only honored when they already belong to the frame;
// images that are no longer referenced are removed best-effort.
func (c *CatalogService) UpdateFrame(ctx context.Context, req *models.FrameRequest, uploads FrameUploads) (*models.Frame, error) {
	existing, err := c.frames.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	owned := frameImageSet(existing)

	frameURLs := retainOwned(req.ImageURLs, owned)
	if len(frameURLs)+len(uploads.Images) == 0 {
		return nil, ErrNoImages
	}

	saved := make([]string, 0, uploads.Count())
	fail := func(err error) (*models.Frame, error) {
		c.removeImages(ctx, saved)
		return nil, err
	}

	newURLs, err := c.saveAll(ctx, uploads.Images, &saved)
	if err != nil {
		return fail(err)
	}
	frameURLs = append(frameURLs, newURLs...)

	frame := req.ToFrame(frameURLs)
	frame.ID = existing.ID
	ownedIDs := variationIDSet(existing)
	for i := range frame.Variations {
		if id := frame.Variations[i].ID; id != nil {
			if _, ok := ownedIDs[*id]; ok {
				delete(ownedIDs, *id)
			} else {
				frame.Variations[i].ID = nil
			}
		}
		urls := retainOwned(frame.Variations[i].ImageURLs, owned)
		added, err := c.saveAll(ctx, uploads.VariationImages[i], &saved)
		if err != nil {
			return fail(err)
		}
		frame.Variations[i].ImageURLs = append(urls, added...)
	}

	if err := c.decorate(ctx, frame); err != nil {
		return fail(err)
	}

	updated, err := c.frames.Update(ctx, frame)
	if err != nil {
		return fail(err)
	}

	kept := frameImageSet(updated)
	var orphaned []string
	for url := range owned {
		if _, ok := kept[url]; !ok {
			orphaned = append(orphaned, url)
		}
	}
	c.removeImages(ctx, orphaned)

	log.Printf("Frame updated: id=%d added=%d removed=%d", updated.ID, len(saved), len(orphaned))
	return updated, nil
}

func (c *CatalogService) DeleteFrame(ctx context.Context, id int64) error {
	deleted, err := c.frames.Delete(ctx, id)
	if err != nil {
		return err
	}
	urls := make([]string, 0)
	for url := range frameImageSet(deleted) {
		urls = append(urls, url)
	}
	c.removeImages(ctx, urls)
	log.Printf("Frame deleted: id=%d images=%d", id, len(urls))
	return nil
}

func (c *CatalogService) decorate(ctx context.Context, f *models.Frame) error {
	colors, err := c.refs.List(ctx, models.KindColor)
	if err != nil {
		return fmt.Errorf("load colors: %w", err)
	}
	DecorateVariations(f, colors)
	return nil
}

func (c *CatalogService) saveAll(ctx context.Context, uploads []Upload, saved *[]string) ([]string, error) {
	urls := make([]string, 0, len(uploads))
	for _, u := range uploads {
		url, err := c.save(ctx, u)
		if err != nil {
			return nil, err
		}
		*saved = append(*saved, url)
		urls = append(urls, url)
	}
	return urls, nil
}

func (c *CatalogService) save(ctx context.Context, u Upload) (string, error) {
	rc, err := u.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	defer rc.Close()
	return c.images.Save(ctx, u.Filename, u.ContentType, rc)
}

func (c *CatalogService) removeImages(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := c.images.Remove(ctx, url); err != nil && !errors.Is(err, ErrImageNotFound) {
			log.Printf("Warning: failed to remove image %s: %v", url, err)
		}
	}
}

func frameImageSet(f *models.Frame) map[string]struct{} {
	set := make(map[string]struct{})
	for _, u := range f.ImageURLs {
		set[u] = struct{}{}
	}
	for _, v := range f.Variations {
		for _, u := range v.ImageURLs {
			set[u] = struct{}{}
		}
	}
	return set
}

func variationIDSet(f *models.Frame) map[int64]struct{} {
	set := make(map[int64]struct{}, len(f.Variations))
	for _, v := range f.Variations {
		if v.ID != nil {
			set[*v.ID] = struct{}{}
		}
	}
	return set
}

func retainOwned(urls []string, owned map[string]struct{}) []string {
	out := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if _, ok := owned[u]; !ok {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
