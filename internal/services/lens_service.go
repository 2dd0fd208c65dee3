package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/storage"
)

type LensService interface {
	List(ctx context.Context) ([]*models.Lens, error)
	Create(ctx context.Context, l *models.Lens) (*models.Lens, error)
	Delete(ctx context.Context, id int64) error
}

type lensSnapshot struct {
	NextID int64          `json:"nextId"`
	Lenses []*models.Lens `json:"lenses"`
}

type MemoryLensService struct {
	mu     sync.RWMutex
	lenses map[int64]*models.Lens
	nextID int64
	store  *storage.JSONStore
}

func NewMemoryLensService(dataDir string) (*MemoryLensService, error) {
	s := &MemoryLensService{lenses: make(map[int64]*models.Lens), nextID: 1}
	if dataDir == "" {
		return s, nil
	}

	store, err := storage.NewJSONStore(dataDir, "lenses.json")
	if err != nil {
		return nil, err
	}
	s.store = store

	var snap lensSnapshot
	if err := store.Load(&snap); err != nil {
		return nil, fmt.Errorf("load lenses: %w", err)
	}
	for _, l := range snap.Lenses {
		s.lenses[l.ID] = l
	}
	if snap.NextID > s.nextID {
		s.nextID = snap.NextID
	}
	return s, nil
}

func (s *MemoryLensService) List(ctx context.Context) ([]*models.Lens, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(), nil
}

func (s *MemoryLensService) Create(ctx context.Context, l *models.Lens) (*models.Lens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *l
	stored.ID = s.nextID
	stored.CreatedAt = time.Now().UTC()
	s.nextID++

	s.lenses[stored.ID] = &stored
	if err := s.persist(); err != nil {
		delete(s.lenses, stored.ID)
		return nil, err
	}
	out := stored
	return &out, nil
}

func (s *MemoryLensService) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.lenses[id]
	if !ok {
		return ErrLensNotFound
	}
	delete(s.lenses, id)
	if err := s.persist(); err != nil {
		s.lenses[id] = existing
		return err
	}
	return nil
}

func (s *MemoryLensService) sorted() []*models.Lens {
	out := make([]*models.Lens, 0, len(s.lenses))
	for _, l := range s.lenses {
		c := *l
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryLensService) persist() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(lensSnapshot{NextID: s.nextID, Lenses: s.sorted()}); err != nil {
		return fmt.Errorf("save lenses: %w", err)
	}
	return nil
}
