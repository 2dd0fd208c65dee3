package main

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/opticshop/backend/internal/client"
)

const jpegQuality = 85

// imageLoader reads draft images from disk, shrinking any image wider or
// taller than maxDim. maxDim <= 0 disables resizing.
type imageLoader struct {
	baseDir string
	maxDim  int
}

func (il imageLoader) load(path string) (client.ImageFile, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(il.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return client.ImageFile{}, fmt.Errorf("read image: %w", err)
	}
	img := client.ImageFile{
		Name:        filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Data:        data,
	}
	if il.maxDim > 0 {
		img.Data = shrink(img.Name, data, il.maxDim)
	}
	return img, nil
}

// shrink returns data unchanged when it cannot be decoded or already fits.
func shrink(name string, data []byte, maxDim int) []byte {
	format, err := imaging.FormatFromFilename(name)
	if err != nil {
		return data
	}
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		log.Printf("[images] %s: keeping original: %v", name, err)
		return data
	}
	b := src.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return data
	}

	resized := imaging.Fit(src, maxDim, maxDim, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		log.Printf("[images] %s: keeping original: %v", name, err)
		return data
	}
	log.Printf("[images] %s: resized %dx%d -> %dx%d", name, b.Dx(), b.Dy(), resized.Bounds().Dx(), resized.Bounds().Dy())
	return buf.Bytes()
}
