package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeGrayPNG(t *testing.T, width, height int, value uint8) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: value})
		}
	}
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestAnalyzeUniformImage(t *testing.T) {
	path := writeGrayPNG(t, 10, 6, 128)

	stats, err := Analyze(path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if stats.Width != 10 || stats.Height != 6 {
		t.Errorf("dimensions: got %dx%d want 10x6", stats.Width, stats.Height)
	}
	if math.Abs(stats.Mean-128) > 1e-9 {
		t.Errorf("mean: got %v want 128", stats.Mean)
	}
	if stats.Std != 0 {
		t.Errorf("std of a uniform image: got %v want 0", stats.Std)
	}
}

func TestAnalyzeTwoToneImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(1, 0, color.Gray{Y: 200})
	path := filepath.Join(t.TempDir(), "img.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.Close()

	stats, err := Analyze(path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if math.Abs(stats.Mean-100) > 1e-9 {
		t.Errorf("mean: got %v want 100", stats.Mean)
	}
	if math.Abs(stats.Std-100) > 1e-9 {
		t.Errorf("std: got %v want 100", stats.Std)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	if _, err := Analyze(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for a missing file")
	}

	path := filepath.Join(t.TempDir(), "junk.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Analyze(path); err == nil {
		t.Error("expected error for an undecodable file")
	}
}

func TestPlaceholder(t *testing.T) {
	a := Placeholder(1)
	img, err := png.Decode(bytes.NewReader(a))
	if err != nil {
		t.Fatalf("placeholder is not a decodable PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 256 {
		t.Errorf("placeholder size: got %dx%d want 256x256", b.Dx(), b.Dy())
	}

	if bytes.Equal(a, Placeholder(2)) {
		t.Error("placeholders for different scans should differ")
	}
	if !bytes.Equal(a, Placeholder(1)) {
		t.Error("placeholder for the same scan should be stable")
	}
}
