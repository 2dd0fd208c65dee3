package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GCSImageStore keeps product photos in a Cloud Storage bucket. Uploads land
// under pending/ and are promoted to frames/ once screening passes.
type GCSImageStore struct {
	gcs      *storage.Client
	bucket   string
	screener ImageScreener
}

// NewGCSImageStore creates the storage client once at startup. credentialsJSON
// may be empty to use Application Default Credentials. screener may be nil.
func NewGCSImageStore(ctx context.Context, bucket, credentialsJSON string, screener ImageScreener) (*GCSImageStore, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: storage client: %w", err)
	}
	return &GCSImageStore{gcs: client, bucket: bucket, screener: screener}, nil
}

func (s *GCSImageStore) Close() error {
	return s.gcs.Close()
}

func (s *GCSImageStore) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	name := uuid.New().String() + imageExt(filename, contentType)
	pending := "pending/" + name
	final := "frames/" + name

	b := s.gcs.Bucket(s.bucket)
	w := b.Object(pending).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("gcs: upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs: upload: %w", err)
	}

	if s.screener != nil {
		gcsURI := fmt.Sprintf("gs://%s/%s", s.bucket, pending)
		result, err := s.screener.Screen(ctx, gcsURI)
		if err != nil {
			s.deleteObject(ctx, pending)
			return "", fmt.Errorf("gcs: screening: %w", err)
		}
		if result.IsUnsafe() {
			log.Printf("[images] screening rejected %s: adult=%s violence=%s racy=%s", pending, result.Adult, result.Violence, result.Racy)
			s.deleteObject(ctx, pending)
			return "", ErrImageRejected
		}
	}

	src := b.Object(pending)
	dst := b.Object(final)
	if _, err := dst.CopierFrom(src).Run(ctx); err != nil {
		s.deleteObject(ctx, pending)
		return "", fmt.Errorf("gcs: promote: %w", err)
	}
	s.deleteObject(ctx, pending)

	return publicURL(s.bucket, final), nil
}

func (s *GCSImageStore) Remove(ctx context.Context, rawURL string) error {
	prefix := publicURL(s.bucket, "")
	if !strings.HasPrefix(rawURL, prefix) {
		return ErrImageNotFound
	}
	name, err := url.PathUnescape(strings.TrimPrefix(rawURL, prefix))
	if err != nil || name == "" {
		return ErrImageNotFound
	}
	if err := s.gcs.Bucket(s.bucket).Object(name).Delete(ctx); err != nil {
		if err == storage.ErrObjectNotExist {
			return ErrImageNotFound
		}
		return fmt.Errorf("gcs: delete: %w", err)
	}
	return nil
}

func (s *GCSImageStore) deleteObject(ctx context.Context, name string) {
	if err := s.gcs.Bucket(s.bucket).Object(name).Delete(ctx); err != nil && err != storage.ErrObjectNotExist {
		log.Printf("[images] delete failed path=%s err=%v", name, err)
	}
}

func publicURL(bucket, objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, url.PathEscape(objectName))
}
