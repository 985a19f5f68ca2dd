package camera

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nfnt/resize"
	"hazard-monitor/internal/vision"
)

// FrameSource delivers a small batch of still frames. It never fails: a
// source that cannot deliver returns fewer frames, possibly none.
type FrameSource interface {
	Capture(ctx context.Context, count int, delay time.Duration) []vision.PixelBuffer
}

// Downscale shrinks img to the given width keeping its aspect ratio.
// Images already at or below width, or a non-positive width, pass through.
func Downscale(img image.Image, width int) image.Image {
	if width <= 0 || img.Bounds().Dx() <= width {
		return img
	}
	return resize.Resize(uint(width), 0, img, resize.Bilinear)
}

// ToBuffer downscales img and converts it to a pixel buffer
func ToBuffer(img image.Image, width int) vision.PixelBuffer {
	return vision.FromImage(Downscale(img, width))
}

// Wait sleeps for d or until ctx is done. It reports whether the full
// delay elapsed.
func Wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// StaticSource replays a fixed set of frames
type StaticSource struct {
	Frames []vision.PixelBuffer
}

func (s *StaticSource) Capture(ctx context.Context, count int, delay time.Duration) []vision.PixelBuffer {
	if count > len(s.Frames) {
		count = len(s.Frames)
	}
	frames := make([]vision.PixelBuffer, count)
	copy(frames, s.Frames[:count])
	return frames
}

// DirSource reads frames from image files in a directory, in name order,
// cycling when the directory holds fewer files than requested.
type DirSource struct {
	dir   string
	width int
}

// NewDirSource creates a source over the JPEG and PNG files in dir
func NewDirSource(dir string, width int) *DirSource {
	return &DirSource{dir: dir, width: width}
}

func (s *DirSource) Capture(ctx context.Context, count int, delay time.Duration) []vision.PixelBuffer {
	paths, err := s.list()
	if err != nil {
		log.Printf("DirSource: %v", err)
		return nil
	}
	if len(paths) == 0 {
		log.Printf("DirSource: No image files in %s", s.dir)
		return nil
	}

	frames := make([]vision.PixelBuffer, 0, count)
	for i := 0; i < count; i++ {
		path := paths[i%len(paths)]
		img, err := LoadImage(path)
		if err != nil {
			log.Printf("DirSource: Failed to load frame %d/%d: %v", i+1, count, err)
		} else {
			frames = append(frames, ToBuffer(img, s.width))
		}

		if i < count-1 && !Wait(ctx, delay) {
			log.Printf("DirSource: Capture cancelled after %d frames", len(frames))
			break
		}
	}

	return frames
}

func (s *DirSource) list() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frames directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// IsImageFile reports whether name has a decodable image extension
func IsImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// LoadImage decodes one JPEG or PNG file
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}
