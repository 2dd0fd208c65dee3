// Package refdata loads the lookup lists that feed the frame form selects.
package refdata

import (
	"context"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/opticshop/backend/internal/models"
)

// Source fetches one reference kind. *client.Client satisfies it.
type Source interface {
	FetchReferences(ctx context.Context, kind models.ReferenceKind) ([]models.ReferenceItem, error)
}

// Data holds the four lists. A kind whose fetch failed is empty and its
// error is kept in Failures.
type Data struct {
	Brands    []models.ReferenceItem
	Colors    []models.ReferenceItem
	Materials []models.ReferenceItem
	Shapes    []models.ReferenceItem
	Failures  map[models.ReferenceKind]error
}

// Items returns the list of one kind.
func (d *Data) Items(kind models.ReferenceKind) []models.ReferenceItem {
	switch kind {
	case models.KindBrand:
		return d.Brands
	case models.KindColor:
		return d.Colors
	case models.KindMaterial:
		return d.Materials
	case models.KindShape:
		return d.Shapes
	}
	return nil
}

func (d *Data) set(kind models.ReferenceKind, items []models.ReferenceItem) {
	switch kind {
	case models.KindBrand:
		d.Brands = items
	case models.KindColor:
		d.Colors = items
	case models.KindMaterial:
		d.Materials = items
	case models.KindShape:
		d.Shapes = items
	}
}

// Degraded reports whether at least one list could not be loaded.
func (d *Data) Degraded() bool {
	return len(d.Failures) > 0
}

// Load fetches every kind concurrently and waits for all of them. It never
// returns an error: a failed kind degrades to an empty list.
func Load(ctx context.Context, src Source) *Data {
	data := &Data{Failures: make(map[models.ReferenceKind]error)}
	var mu sync.Mutex

	// The group context is not used so that one failure does not cancel the others.
	var g errgroup.Group
	for _, kind := range models.ReferenceKinds {
		kind := kind
		g.Go(func() error {
			items, err := src.FetchReferences(ctx, kind)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("[refdata] %s: %v", kind, err)
				data.Failures[kind] = err
				data.set(kind, []models.ReferenceItem{})
				return nil
			}
			if items == nil {
				items = []models.ReferenceItem{}
			}
			data.set(kind, items)
			return nil
		})
	}
	_ = g.Wait()
	return data
}

// Option is a select entry. OffList marks a current value that is not part
// of the loaded list; it is still offered so existing data is never rejected.
type Option struct {
	Name    string
	Hex     string
	OffList bool
}

// Match finds value in items case-insensitively.
func Match(items []models.ReferenceItem, value string) Option {
	value = strings.TrimSpace(value)
	for _, it := range items {
		if strings.EqualFold(it.Name, value) {
			return Option{Name: it.Name, Hex: it.Hex}
		}
	}
	return Option{Name: value, OffList: value != ""}
}

// Options lists the select entries for items, appending current when it is
// off-list.
func Options(items []models.ReferenceItem, current string) []Option {
	opts := make([]Option, 0, len(items)+1)
	for _, it := range items {
		opts = append(opts, Option{Name: it.Name, Hex: it.Hex})
	}
	if m := Match(items, current); m.OffList {
		opts = append(opts, m)
	}
	return opts
}

// HexFor returns the hex code of a color name, or "" when unknown.
func HexFor(colors []models.ReferenceItem, name string) string {
	return Match(colors, name).Hex
}
