package texture

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/scenegl/internal/scene"
)

// tgaHeader builds an 18-byte header for a width x height true-color image.
func tgaHeader(imageType byte, width, height int, bpp byte, descriptor byte) []byte {
	h := make([]byte, 18)
	h[2] = imageType
	h[12], h[13] = byte(width), byte(width>>8)
	h[14], h[15] = byte(height), byte(height>>8)
	h[16] = bpp
	h[17] = descriptor
	return h
}

func TestDecodeTGAUncompressedBottomUp(t *testing.T) {
	// Stored bottom row first: blue, then red. BGR order.
	data := tgaHeader(TGATypeUncompressed, 1, 2, 24, 0)
	data = append(data, 255, 0, 0) // bottom: blue
	data = append(data, 0, 0, 255) // top: red

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA: %v", err)
	}

	if got := color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("top pixel = %v, want red", got)
	}
	if got := color.NRGBAModel.Convert(img.At(0, 1)).(color.NRGBA); got != (color.NRGBA{B: 255, A: 255}) {
		t.Errorf("bottom pixel = %v, want blue", got)
	}
}

func TestDecodeTGARLE(t *testing.T) {
	data := tgaHeader(TGATypeRLE, 3, 1, 32, 0x20)
	data = append(data, 0x81, 0, 255, 0, 128) // run of 2 green, alpha 128
	data = append(data, 0x00, 255, 255, 255, 255)

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA: %v", err)
	}

	want := []color.NRGBA{
		{G: 255, A: 128},
		{G: 255, A: 128},
		{R: 255, G: 255, B: 255, A: 255},
	}
	for x, w := range want {
		if got := img.(*image.NRGBA).NRGBAAt(x, 0); got != w {
			t.Errorf("pixel %d = %v, want %v", x, got, w)
		}
	}
}

func TestDecodeTGAErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short header", []byte{0, 0, 2}},
		{"color mapped", func() []byte { h := tgaHeader(1, 1, 1, 24, 0); h[1] = 1; return h }()},
		{"bad bpp", tgaHeader(TGATypeUncompressed, 1, 1, 16, 0)},
		{"truncated pixels", append(tgaHeader(TGATypeUncompressed, 2, 2, 24, 0), 1, 2, 3)},
		{"truncated rle", append(tgaHeader(TGATypeRLE, 2, 1, 24, 0), 0x81)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeTGA(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		uri     string
		want    string
		wantErr bool
	}{
		{uri: "textures/a.png", want: filepath.FromSlash("textures/a.png")},
		{uri: "file:///tmp/a.png", want: filepath.FromSlash("/tmp/a.png")},
		{uri: "file://localhost/tmp/a.png", want: filepath.FromSlash("/tmp/a.png")},
		{uri: "file://textures/a.png", want: filepath.FromSlash("textures/a.png")},
		{uri: "https://example.com/a.png", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ResolvePath(tt.uri)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ResolvePath(%q) expected error", tt.uri)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ResolvePath(%q) = %q, %v; want %q", tt.uri, got, err, tt.want)
		}
	}
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255}) // top-left red
	img.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255}) // bottom-left blue

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestLoaderFlipsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.png")
	writePNG(t, path)

	l := NewLoader(zaptest.NewLogger(t))
	img, err := l.Load(context.Background(), "file://"+filepath.ToSlash(path))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if img.Width != 2 || img.Height != 2 || len(img.Pixels) != 16 {
		t.Fatalf("unexpected image %dx%d (%d bytes)", img.Width, img.Height, len(img.Pixels))
	}
	// First stored row is the bottom of the picture.
	if img.Pixels[2] != 255 || img.Pixels[0] != 0 {
		t.Errorf("first row should start blue, got %v", img.Pixels[:4])
	}
	if img.Pixels[8] != 255 {
		t.Errorf("second row should start red, got %v", img.Pixels[8:12])
	}
}

func TestLoaderErrors(t *testing.T) {
	l := NewLoader(zaptest.NewLogger(t))
	ctx := context.Background()

	if _, err := l.Load(ctx, "file:///does/not/exist.png"); err == nil {
		t.Error("expected error for missing file")
	}

	junk := filepath.Join(t.TempDir(), "junk.png")
	if err := os.WriteFile(junk, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load(ctx, junk); err == nil {
		t.Error("expected error for undecodable file")
	}
}

func TestCacheIsIDKeyed(t *testing.T) {
	uploads := 0
	freed := map[uint32]bool{}
	c := newCache(zaptest.NewLogger(t),
		func(*scene.Image) (uint32, error) {
			uploads++
			return uint32(100 + uploads), nil
		},
		func(tex uint32) { freed[tex] = true },
	)

	a := &scene.Image{Width: 1, Height: 1, Pixels: make([]byte, 4)}
	b := &scene.Image{Width: 2, Height: 2, Pixels: make([]byte, 16)}

	first, err := c.Get(1, a)
	if err != nil {
		t.Fatal(err)
	}
	again, err := c.Get(1, b)
	if err != nil {
		t.Fatal(err)
	}
	if first != again || uploads != 1 {
		t.Errorf("same id must reuse the GPU texture: %d vs %d after %d uploads", first, again, uploads)
	}

	if _, err := c.Get(2, b); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 cached textures, got %d", c.Len())
	}

	if _, err := c.Get(3, nil); err == nil {
		t.Error("expected error for unknown texture without image")
	}

	c.Release()
	if c.Len() != 0 || len(freed) != 2 {
		t.Errorf("release should free everything, freed %v", freed)
	}
}
