package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/opticshop/backend/internal/models"
)

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := c.sendJSON(ctx, "POST", "/auth/login", models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}
	var resp models.AuthResponse
	if err := decodeData(body, &resp); err != nil {
		return "", fmt.Errorf("decode login: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("decode login: empty token")
	}
	c.token = resp.Token
	return resp.Token, nil
}

// ListReferences returns the rows of one reference kind.
func (c *Client) ListReferences(ctx context.Context, kind models.ReferenceKind) ([]Row[models.ReferenceItem], error) {
	body, err := c.getJSON(ctx, "/"+kind.Path()+"/admin")
	if err != nil {
		return nil, err
	}
	items, err := listItems(body)
	if err != nil {
		return nil, err
	}
	rows := normalizeRows(items, c.now(), func(r *models.ReferenceItem, id int64) { r.ID = id })
	for i := range rows {
		rows[i].Record.Kind = kind
	}
	return rows, nil
}

// FetchReferences returns the named entries of a kind for populating selects.
// Entries without a genuine id are kept as long as they have a name.
func (c *Client) FetchReferences(ctx context.Context, kind models.ReferenceKind) ([]models.ReferenceItem, error) {
	rows, err := c.ListReferences(ctx, kind)
	if err != nil {
		return nil, err
	}
	out := make([]models.ReferenceItem, 0, len(rows))
	for _, r := range rows {
		if strings.TrimSpace(r.Record.Name) == "" {
			continue
		}
		out = append(out, r.Record)
	}
	return out, nil
}

func (c *Client) CreateReference(ctx context.Context, kind models.ReferenceKind, req models.CreateReferenceRequest) (*models.ReferenceItem, error) {
	body, err := c.sendJSON(ctx, "POST", "/"+kind.Path()+"/add", req)
	if err != nil {
		return nil, err
	}
	var item models.ReferenceItem
	if err := decodeData(body, &item); err != nil {
		return nil, fmt.Errorf("decode reference: %w", err)
	}
	item.Kind = kind
	return &item, nil
}

func (c *Client) DeleteReference(ctx context.Context, kind models.ReferenceKind, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/%s/delete/%d", kind.Path(), id))
}

func (c *Client) ListFrames(ctx context.Context) ([]Row[models.Frame], error) {
	body, err := c.getJSON(ctx, "/produit/all/admin")
	if err != nil {
		return nil, err
	}
	items, err := listItems(body)
	if err != nil {
		return nil, err
	}
	return normalizeRows(items, c.now(), func(f *models.Frame, id int64) { f.ID = id }), nil
}

func (c *Client) GetFrame(ctx context.Context, id int64) (*models.Frame, error) {
	body, err := c.getJSON(ctx, fmt.Sprintf("/produit/%d", id))
	if err != nil {
		return nil, err
	}
	var f models.Frame
	if err := decodeData(body, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return &f, nil
}

func (c *Client) DeleteFrame(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/produit/delete/%d", id))
}

func (c *Client) ListLenses(ctx context.Context) ([]Row[models.Lens], error) {
	body, err := c.getJSON(ctx, "/verre/all/admin")
	if err != nil {
		return nil, err
	}
	items, err := listItems(body)
	if err != nil {
		return nil, err
	}
	return normalizeRows(items, c.now(), func(l *models.Lens, id int64) { l.ID = id }), nil
}

func (c *Client) CreateLens(ctx context.Context, req models.CreateLensRequest) (*models.Lens, error) {
	body, err := c.sendJSON(ctx, "POST", "/verre/add", req)
	if err != nil {
		return nil, err
	}
	var l models.Lens
	if err := decodeData(body, &l); err != nil {
		return nil, fmt.Errorf("decode lens: %w", err)
	}
	return &l, nil
}

func (c *Client) DeleteLens(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/verre/delete/%d", id))
}
