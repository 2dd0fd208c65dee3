package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStore persists uploaded product photos and returns the URL clients
// should use to display them.
type ImageStore interface {
	Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
}

// LocalImageStore writes images to a directory served under URLPrefix.
type LocalImageStore struct {
	uploadDir string
	urlPrefix string
}

func NewLocalImageStore(uploadDir string) (*LocalImageStore, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalImageStore{uploadDir: uploadDir, urlPrefix: "/uploads/"}, nil
}

func (s *LocalImageStore) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	name := uuid.New().String() + imageExt(filename, contentType)
	path := filepath.Join(s.uploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return s.urlPrefix + name, nil
}

// Remove deletes a file previously returned by Save. URLs this store did not
// issue yield ErrImageNotFound.
func (s *LocalImageStore) Remove(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, s.urlPrefix) {
		return ErrImageNotFound
	}
	name := strings.TrimPrefix(url, s.urlPrefix)
	if name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return ErrImageNotFound
	}
	if err := os.Remove(filepath.Join(s.uploadDir, name)); err != nil {
		if os.IsNotExist(err) {
			return ErrImageNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func imageExt(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".jpg"
}
