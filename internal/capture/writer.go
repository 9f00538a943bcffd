package capture

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/anthonynsimon/bild/transform"

	"github.com/Faultbox/scenegl/internal/events"
)

// Writer saves captured frames as PNG files.
type Writer struct {
	outputDir string
	prefix    string

	mu   sync.Mutex
	last string
	seq  int
	now  func() time.Time
}

// NewWriter creates a writer saving into outputDir. An empty outputDir
// writes into the working directory.
func NewWriter(outputDir, prefix string) *Writer {
	return &Writer{outputDir: outputDir, prefix: prefix, now: time.Now}
}

// Image converts a capture into a top-down image.
func Image(ev events.ScreenCapture) (*image.RGBA, error) {
	if len(ev.RGB) != ev.Width*ev.Height*3 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", ev.Width*ev.Height*3, len(ev.RGB))
	}

	img := image.NewRGBA(image.Rect(0, 0, ev.Width, ev.Height))
	for i, j := 0, 0; i < len(ev.RGB); i, j = i+3, j+4 {
		img.Pix[j] = ev.RGB[i]
		img.Pix[j+1] = ev.RGB[i+1]
		img.Pix[j+2] = ev.RGB[i+2]
		img.Pix[j+3] = 0xff
	}
	// GL rows start at the bottom.
	return transform.FlipV(img), nil
}

// Save writes ev to a new timestamped file and returns its path.
func (w *Writer) Save(ev events.ScreenCapture) (string, error) {
	img, err := Image(ev)
	if err != nil {
		return "", err
	}

	if w.outputDir != "" {
		if err := os.MkdirAll(w.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := w.filename()
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return filename, nil
}

// filename is unique per writer even for captures within the same second.
func (w *Writer) filename() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	stamp := w.now().Format("2006-01-02_15-04-05")
	if stamp == w.last {
		w.seq++
	} else {
		w.last, w.seq = stamp, 0
	}

	name := fmt.Sprintf("%s_%s.png", w.prefix, stamp)
	if w.seq > 0 {
		name = fmt.Sprintf("%s_%s_%d.png", w.prefix, stamp, w.seq)
	}
	if w.outputDir != "" {
		name = filepath.Join(w.outputDir, name)
	}
	return name
}
