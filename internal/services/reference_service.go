package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gosimple/slug"

	"github.com/opticshop/backend/internal/models"
	"github.com/opticshop/backend/internal/storage"
)

// ReferenceService manages the brand, color, material and shape lists.
type ReferenceService interface {
	List(ctx context.Context, kind models.ReferenceKind) ([]models.ReferenceItem, error)
	Create(ctx context.Context, kind models.ReferenceKind, req *models.CreateReferenceRequest) (*models.ReferenceItem, error)
	Delete(ctx context.Context, kind models.ReferenceKind, id int64) error
}

type referenceSnapshot struct {
	NextID int64                                           `json:"nextId"`
	Items  map[models.ReferenceKind][]models.ReferenceItem `json:"items"`
}

type MemoryReferenceService struct {
	mu     sync.RWMutex
	items  map[models.ReferenceKind][]models.ReferenceItem
	nextID int64
	store  *storage.JSONStore
}

func NewMemoryReferenceService(dataDir string) (*MemoryReferenceService, error) {
	s := &MemoryReferenceService{
		items:  make(map[models.ReferenceKind][]models.ReferenceItem),
		nextID: 1,
	}
	if dataDir == "" {
		return s, nil
	}

	store, err := storage.NewJSONStore(dataDir, "references.json")
	if err != nil {
		return nil, err
	}
	s.store = store

	var snap referenceSnapshot
	if err := store.Load(&snap); err != nil {
		return nil, fmt.Errorf("load references: %w", err)
	}
	for kind, list := range snap.Items {
		for i := range list {
			list[i].Kind = kind
		}
		s.items[kind] = list
	}
	if snap.NextID > s.nextID {
		s.nextID = snap.NextID
	}
	return s, nil
}

func (s *MemoryReferenceService) List(ctx context.Context, kind models.ReferenceKind) ([]models.ReferenceItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]models.ReferenceItem{}, s.items[kind]...)
	sortReferences(out)
	return out, nil
}

func (s *MemoryReferenceService) Create(ctx context.Context, kind models.ReferenceKind, req *models.CreateReferenceRequest) (*models.ReferenceItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := newReferenceItem(kind, req)
	for _, existing := range s.items[kind] {
		if existing.Slug == item.Slug {
			return nil, ErrDuplicateReference
		}
	}
	item.ID = s.nextID
	s.nextID++

	prev := s.items[kind]
	s.items[kind] = append(append([]models.ReferenceItem{}, prev...), item)
	if err := s.persist(); err != nil {
		s.items[kind] = prev
		return nil, err
	}
	return &item, nil
}

func (s *MemoryReferenceService) Delete(ctx context.Context, kind models.ReferenceKind, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.items[kind]
	next := make([]models.ReferenceItem, 0, len(prev))
	for _, item := range prev {
		if item.ID != id {
			next = append(next, item)
		}
	}
	if len(next) == len(prev) {
		return ErrReferenceNotFound
	}
	s.items[kind] = next
	if err := s.persist(); err != nil {
		s.items[kind] = prev
		return err
	}
	return nil
}

func (s *MemoryReferenceService) persist() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(referenceSnapshot{NextID: s.nextID, Items: s.items}); err != nil {
		return fmt.Errorf("save references: %w", err)
	}
	return nil
}

func newReferenceItem(kind models.ReferenceKind, req *models.CreateReferenceRequest) models.ReferenceItem {
	name := strings.TrimSpace(req.Name)
	return models.ReferenceItem{
		Kind: kind,
		Name: name,
		Slug: slug.Make(name),
		Hex:  strings.ToUpper(req.Hex),
	}
}

func sortReferences(items []models.ReferenceItem) {
	sort.Slice(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
}
