package pixels

import (
	"image"
	"image/color"
	"testing"
)

func createTestImage(width, height int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestFromImageEmpty(t *testing.T) {
	if _, err := FromImage(image.NewRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Error("expected error for empty image")
	}
}

func TestDownscaleIdentity(t *testing.T) {
	img := createTestImage(200, 100, color.RGBA{10, 20, 30, 255})
	buf, factor, err := Downscale(img, 1024)
	if err != nil {
		t.Fatalf("Downscale failed: %v", err)
	}
	if factor != 1.0 {
		t.Errorf("expected factor 1.0 for image within cap, got %g", factor)
	}
	if buf.W != 200 || buf.H != 100 {
		t.Errorf("expected 200x100, got %dx%d", buf.W, buf.H)
	}
	if got := buf.Bounds(); got != image.Rect(0, 0, 200, 100) {
		t.Errorf("Bounds() = %v, want (0,0)-(200,100)", got)
	}
}

func TestDownscaleCapsLargerDimension(t *testing.T) {
	img := createTestImage(2000, 1000, color.RGBA{128, 128, 128, 255})
	buf, factor, err := Downscale(img, 500)
	if err != nil {
		t.Fatalf("Downscale failed: %v", err)
	}
	if buf.W > 500 || buf.H > 500 {
		t.Errorf("working image %dx%d exceeds cap 500", buf.W, buf.H)
	}
	if buf.W != 500 {
		t.Errorf("expected larger dimension to hit the cap, got %d", buf.W)
	}
	// Aspect ratio preserved within a pixel of rounding.
	if buf.H < 249 || buf.H > 251 {
		t.Errorf("aspect ratio not preserved: %dx%d", buf.W, buf.H)
	}
	if factor <= 0 || factor >= 1 {
		t.Errorf("expected factor in (0, 1), got %g", factor)
	}
}

func TestDownscalePortrait(t *testing.T) {
	img := createTestImage(600, 1200, color.RGBA{128, 128, 128, 255})
	buf, _, err := Downscale(img, 300)
	if err != nil {
		t.Fatalf("Downscale failed: %v", err)
	}
	if buf.H != 300 {
		t.Errorf("expected height 300, got %d", buf.H)
	}
}

func TestDownscaleEmpty(t *testing.T) {
	if _, _, err := Downscale(image.NewRGBA(image.Rect(0, 0, 0, 10)), 100); err == nil {
		t.Error("expected error for zero-width image")
	}
}

func TestLuminance(t *testing.T) {
	buf, err := FromImage(createTestImage(4, 4, color.RGBA{255, 255, 255, 255}))
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if got := buf.Lum(2, 2); got < 254 || got > 256 {
		t.Errorf("white luminance = %g, want ~255", got)
	}

	buf, err = FromImage(createTestImage(4, 4, color.RGBA{0, 0, 0, 255}))
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	if got := buf.Lum(0, 0); got != 0 {
		t.Errorf("black luminance = %g, want 0", got)
	}
}

func TestRGBAccessor(t *testing.T) {
	buf, err := FromImage(createTestImage(4, 4, color.RGBA{10, 20, 30, 255}))
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	r, g, b := buf.RGB(1, 3)
	if r != 10 || g != 20 || b != 30 {
		t.Errorf("RGB(1,3) = (%g, %g, %g), want (10, 20, 30)", r, g, b)
	}
}
