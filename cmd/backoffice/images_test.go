package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImageLoaderShrinksLargeImages(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "big.png"), pngBytes(t, 40, 20), 0o644)
	os.WriteFile(filepath.Join(dir, "small.png"), pngBytes(t, 8, 8), 0o644)
	os.WriteFile(filepath.Join(dir, "fake.jpg"), jpegBytes, 0o644)

	il := imageLoader{baseDir: dir, maxDim: 10}

	tests := []struct {
		file       string
		wantW      int
		wantH      int
		decodeable bool
	}{
		{"big.png", 10, 5, true},
		{"small.png", 8, 8, true},
		{"fake.jpg", 0, 0, false},
	}
	for _, tt := range tests {
		img, err := il.load(tt.file)
		if err != nil {
			t.Fatalf("%s: %v", tt.file, err)
		}
		if img.Name != tt.file {
			t.Errorf("%s: name = %q", tt.file, img.Name)
		}
		if !tt.decodeable {
			if !bytes.Equal(img.Data, jpegBytes) {
				t.Errorf("%s: undecodable image was modified", tt.file)
			}
			continue
		}
		if img.ContentType != "image/png" {
			t.Errorf("%s: content type = %q", tt.file, img.ContentType)
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
		if err != nil {
			t.Fatalf("%s: %v", tt.file, err)
		}
		if cfg.Width != tt.wantW || cfg.Height != tt.wantH {
			t.Errorf("%s: %dx%d, want %dx%d", tt.file, cfg.Width, cfg.Height, tt.wantW, tt.wantH)
		}
	}

	if _, err := il.load("missing.png"); err == nil {
		t.Error("missing file accepted")
	}
}
