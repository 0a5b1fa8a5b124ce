package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// writeTestPNG writes a solid-colour PNG into a test temp dir and returns its
// path.
func writeTestPNG(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestImageCache_Load(t *testing.T) {
	path := writeTestPNG(t, 10, 7, color.NRGBA{10, 20, 30, 255})
	cache := NewImageCache()

	img, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := img.Bounds().Size(); got != (image.Point{10, 7}) {
		t.Errorf("size = %v, want 10x7", got)
	}

	again, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if again != img {
		t.Error("second Load returned a different image")
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestImageCache_LoadErrors(t *testing.T) {
	cache := NewImageCache()

	if _, err := cache.Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}

	notImage := filepath.Join(t.TempDir(), "text.png")
	if err := os.WriteFile(notImage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Load(notImage); err == nil {
		t.Error("expected error for undecodable file")
	}
	if cache.Len() != 0 {
		t.Errorf("failed loads were cached: Len() = %d", cache.Len())
	}
}

func TestImageCache_Raster(t *testing.T) {
	path := writeTestPNG(t, 6, 5, color.NRGBA{200, 100, 50, 255})
	cache := NewImageCache()

	r, err := cache.Raster(path)
	if err != nil {
		t.Fatalf("Raster: %v", err)
	}
	if r.Width != 6 || r.Height != 5 {
		t.Fatalf("raster size = %dx%d, want 6x5", r.Width, r.Height)
	}
	red, green, blue := r.At(5, 4)
	if red != 200 || green != 100 || blue != 50 {
		t.Errorf("At(5,4) = (%g,%g,%g), want (200,100,50)", red, green, blue)
	}

	again, err := cache.Raster(path)
	if err != nil {
		t.Fatalf("second Raster: %v", err)
	}
	if again != r {
		t.Error("Raster was rebuilt instead of served from cache")
	}
}

func TestImageCache_EvictAndClear(t *testing.T) {
	a := writeTestPNG(t, 2, 2, color.White)
	b := writeTestPNG(t, 3, 3, color.Black)
	cache := NewImageCache()

	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load(%s): %v", p, err)
		}
	}
	cache.Evict(a)
	if cache.Len() != 1 {
		t.Errorf("after Evict Len() = %d, want 1", cache.Len())
	}
	cache.Evict("not-cached")
	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("after Clear Len() = %d, want 0", cache.Len())
	}
}

func TestImageCache_Concurrent(t *testing.T) {
	path := writeTestPNG(t, 8, 8, color.White)
	cache := NewImageCache()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Raster(path); err != nil {
				t.Errorf("Raster: %v", err)
			}
		}()
	}
	wg.Wait()

	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestLoadImageInfo(t *testing.T) {
	path := writeTestPNG(t, 10, 7, color.White)
	cache := NewImageCache()

	info, err := LoadImageInfo(cache, path, 4)
	if err != nil {
		t.Fatalf("LoadImageInfo: %v", err)
	}
	if info.Width != 10 || info.Height != 7 {
		t.Errorf("size = %dx%d, want 10x7", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format = %q, want png", info.Format)
	}
	if info.TileRows != 2 || info.TileCols != 3 {
		t.Errorf("tiles = %dx%d, want 2x3", info.TileRows, info.TileCols)
	}
	if info.FileSizeBytes <= 0 {
		t.Errorf("FileSizeBytes = %d, want > 0", info.FileSizeBytes)
	}

	if _, err := LoadImageInfo(cache, path, 0); err == nil {
		t.Error("expected error for zero tile size")
	}
}

func TestGetDimensions(t *testing.T) {
	path := writeTestPNG(t, 13, 4, color.White)
	dims, err := GetDimensions(NewImageCache(), path)
	if err != nil {
		t.Fatalf("GetDimensions: %v", err)
	}
	if dims.Width != 13 || dims.Height != 4 {
		t.Errorf("dims = %+v, want 13x4", dims)
	}
}
