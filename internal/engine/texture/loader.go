package texture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/scenegl/internal/scene"
)

var (
	// ErrUnsupportedScheme is returned for URIs other than file:// or plain paths.
	ErrUnsupportedScheme = errors.New("unsupported texture uri scheme")
	// ErrUnsupportedFormat is returned for data no decoder recognizes.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Loader reads and decodes texture images. It never touches GL and runs on
// the assertion side of the pipeline.
type Loader struct {
	log *zap.Logger
}

func NewLoader(log *zap.Logger) *Loader {
	return &Loader{log: log}
}

// Load decodes the image at uri into RGBA8 rows ordered bottom-up.
func (l *Loader) Load(ctx context.Context, uri string) (*scene.Image, error) {
	start := time.Now()

	path, err := ResolvePath(uri)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := Decode(data, path)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	out := ToBottomUpRGBA(img)

	l.log.Debug("texture loaded",
		zap.String("uri", uri),
		zap.Int("width", out.Width),
		zap.Int("height", out.Height),
		zap.Duration("took", time.Since(start)),
	)
	return out, nil
}

// ResolvePath maps a file:// URI or bare path to a filesystem path.
func ResolvePath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Bare paths, including Windows drive letters.
		return filepath.FromSlash(uri), nil
	}
	if !strings.EqualFold(u.Scheme, "file") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	path := u.Path
	if u.Host != "" && u.Host != "localhost" {
		// file://textures/a.png names a relative path.
		path = u.Host + u.Path
	}
	return filepath.FromSlash(path), nil
}

// Decode sniffs data and decodes it. TGA has no magic number and is picked by
// the name's extension.
func Decode(data []byte, name string) (image.Image, error) {
	kind, _ := filetype.Match(data)
	switch kind.Extension {
	case "png", "jpg", "bmp", "webp":
		img, _, err := image.Decode(bytes.NewReader(data))
		return img, err
	}
	if kind == filetype.Unknown && strings.EqualFold(filepath.Ext(name), ".tga") {
		return DecodeTGA(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind.MIME.Value)
}

// ToBottomUpRGBA converts img to non-premultiplied RGBA8 with the first row at
// the bottom, the order GL expects texture rows in.
func ToBottomUpRGBA(img image.Image) *scene.Image {
	b := img.Bounds()
	rgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)

	w, h := b.Dx(), b.Dy()
	row := w * 4
	pixels := make([]byte, row*h)
	for y := 0; y < h; y++ {
		src := rgba.Pix[y*rgba.Stride : y*rgba.Stride+row]
		copy(pixels[(h-1-y)*row:], src)
	}
	return &scene.Image{Pixels: pixels, Width: w, Height: h}
}
