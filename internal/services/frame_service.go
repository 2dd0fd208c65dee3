package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/storage"
)

// FrameService persists frames with their embedded variations.
type FrameService interface {
	List(ctx context.Context) ([]*models.Frame, error)
	Search(ctx context.Context, sel models.FilterSelection) ([]*models.Frame, error)
	Get(ctx context.Context, id int64) (*models.Frame, error)
	Create(ctx context.Context, f *models.Frame) (*models.Frame, error)
	Update(ctx context.Context, f *models.Frame) (*models.Frame, error)
	Delete(ctx context.Context, id int64) (*models.Frame, error)
}

type frameSnapshot struct {
	NextID          int64           `json:"nextId"`
	NextVariationID int64           `json:"nextVariationId"`
	Frames          []*models.Frame `json:"frames"`
}

// MemoryFrameService keeps frames in memory and mirrors every write to a JSON file.
type MemoryFrameService struct {
	mu              sync.RWMutex
	frames          map[int64]*models.Frame
	nextID          int64
	nextVariationID int64
	store           *storage.JSONStore
}

// NewMemoryFrameService loads existing frames from dataDir. An empty dataDir
// disables persistence.
func NewMemoryFrameService(dataDir string) (*MemoryFrameService, error) {
	s := &MemoryFrameService{
		frames:          make(map[int64]*models.Frame),
		nextID:          1,
		nextVariationID: 1,
	}
	if dataDir == "" {
		return s, nil
	}

	store, err := storage.NewJSONStore(dataDir, "frames.json")
	if err != nil {
		return nil, err
	}
	s.store = store

	var snap frameSnapshot
	if err := store.Load(&snap); err != nil {
		return nil, fmt.Errorf("load frames: %w", err)
	}
	for _, f := range snap.Frames {
		s.frames[f.ID] = f
	}
	if snap.NextID > s.nextID {
		s.nextID = snap.NextID
	}
	if snap.NextVariationID > s.nextVariationID {
		s.nextVariationID = snap.NextVariationID
	}
	log.Printf("Loaded %d frames from %s", len(s.frames), store.Path())
	return s, nil
}

func (s *MemoryFrameService) List(ctx context.Context) ([]*models.Frame, error) {
	return s.Search(ctx, models.FilterSelection{})
}

func (s *MemoryFrameService) Search(ctx context.Context, sel models.FilterSelection) ([]*models.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Frame, 0, len(s.frames))
	for _, f := range s.frames {
		if sel.Matches(f) {
			out = append(out, cloneFrame(f))
		}
	}
	sortFrames(out)
	return out, nil
}

func (s *MemoryFrameService) Get(ctx context.Context, id int64) (*models.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.frames[id]
	if !ok {
		return nil, ErrFrameNotFound
	}
	return cloneFrame(f), nil
}

func (s *MemoryFrameService) Create(ctx context.Context, f *models.Frame) (*models.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneFrame(f)
	stored.ID = s.nextID
	s.nextID++
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.assignVariationIDs(stored)

	s.frames[stored.ID] = stored
	if err := s.persist(); err != nil {
		delete(s.frames, stored.ID)
		return nil, err
	}
	return cloneFrame(stored), nil
}

// Update replaces the whole frame. Last write wins.
func (s *MemoryFrameService) Update(ctx context.Context, f *models.Frame) (*models.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.frames[f.ID]
	if !ok {
		return nil, ErrFrameNotFound
	}

	stored := cloneFrame(f)
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = time.Now().UTC()
	s.assignVariationIDs(stored)

	s.frames[stored.ID] = stored
	if err := s.persist(); err != nil {
		s.frames[stored.ID] = existing
		return nil, err
	}
	return cloneFrame(stored), nil
}

func (s *MemoryFrameService) Delete(ctx context.Context, id int64) (*models.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.frames[id]
	if !ok {
		return nil, ErrFrameNotFound
	}
	delete(s.frames, id)
	if err := s.persist(); err != nil {
		s.frames[id] = existing
		return nil, err
	}
	return existing, nil
}

func (s *MemoryFrameService) assignVariationIDs(f *models.Frame) {
	for i := range f.Variations {
		v := &f.Variations[i]
		if v.ID != nil && *v.ID > 0 {
			if *v.ID >= s.nextVariationID {
				s.nextVariationID = *v.ID + 1
			}
			continue
		}
		id := s.nextVariationID
		s.nextVariationID++
		v.ID = &id
	}
}

// persist must be called with the write lock held.
func (s *MemoryFrameService) persist() error {
	if s.store == nil {
		return nil
	}
	snap := frameSnapshot{
		NextID:          s.nextID,
		NextVariationID: s.nextVariationID,
		Frames:          make([]*models.Frame, 0, len(s.frames)),
	}
	for _, f := range s.frames {
		snap.Frames = append(snap.Frames, f)
	}
	sortFrames(snap.Frames)
	if err := s.store.Save(snap); err != nil {
		return fmt.Errorf("save frames: %w", err)
	}
	return nil
}

func sortFrames(frames []*models.Frame) {
	sort.Slice(frames, func(i, j int) bool { return frames[i].ID < frames[j].ID })
}

func cloneFrame(f *models.Frame) *models.Frame {
	c := *f
	c.ImageURLs = append([]string{}, f.ImageURLs...)
	c.Variations = make([]models.Variation, len(f.Variations))
	for i, v := range f.Variations {
		v.ImageURLs = append([]string{}, v.ImageURLs...)
		c.Variations[i] = v
	}
	return &c
}
