package services

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

type SafeSearchResult struct {
	Adult    string
	Violence string
	Racy     string
}

// IsUnsafe flags LIKELY or VERY_LIKELY adult or violent content.
func (r *SafeSearchResult) IsUnsafe() bool {
	for _, v := range []string{r.Adult, r.Violence} {
		if v == "LIKELY" || v == "VERY_LIKELY" {
			return true
		}
	}
	return r.Racy == "VERY_LIKELY"
}

// ImageScreener inspects an uploaded object before it becomes public.
type ImageScreener interface {
	Screen(ctx context.Context, gcsURI string) (*SafeSearchResult, error)
}

// VisionScreener runs Vision SAFE_SEARCH_DETECTION on GCS objects.
type VisionScreener struct {
	svc *vision.Service
}

func NewVisionScreener(ctx context.Context, credentialsJSON string) (*VisionScreener, error) {
	opts := []option.ClientOption{option.WithScopes(vision.CloudPlatformScope)}
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision: %w", err)
	}
	return &VisionScreener{svc: svc}, nil
}

func (v *VisionScreener) Screen(ctx context.Context, gcsURI string) (*SafeSearchResult, error) {
	req := &vision.AnnotateImageRequest{
		Image: &vision.Image{
			Source: &vision.ImageSource{GcsImageUri: gcsURI},
		},
		Features: []*vision.Feature{
			{Type: "SAFE_SEARCH_DETECTION"},
		},
	}

	resp, err := v.svc.Images.Annotate(&vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{req},
	}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Responses) == 0 || resp.Responses[0].SafeSearchAnnotation == nil {
		return &SafeSearchResult{}, nil
	}
	ss := resp.Responses[0].SafeSearchAnnotation
	return &SafeSearchResult{
		Adult:    ss.Adult,
		Violence: ss.Violence,
		Racy:     ss.Racy,
	}, nil
}
