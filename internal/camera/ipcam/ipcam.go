package ipcam

import (
	"context"
	"log"
	"time"

	"gocv.io/x/gocv"
	"hazard-monitor/internal/camera"
	"hazard-monitor/internal/vision"
)

// Source captures frames from a network camera stream such as an MJPEG URL
type Source struct {
	url   string
	width int
}

// NewSource creates a source for the stream at url. Frames are downscaled to width.
func NewSource(url string, width int) *Source {
	return &Source{url: url, width: width}
}

// Capture opens the stream, reads up to count frames and releases it.
// Frames that fail to read or convert are skipped.
func (s *Source) Capture(ctx context.Context, count int, delay time.Duration) []vision.PixelBuffer {
	frames := make([]vision.PixelBuffer, 0, count)

	log.Printf("IPCamera: Connecting to %s", s.url)
	webcam, err := gocv.OpenVideoCapture(s.url)
	if err != nil {
		log.Printf("IPCamera: Failed to open video stream from %s: %v", s.url, err)
		return frames
	}
	defer func() {
		webcam.Close()
		log.Println("IPCamera: Camera connection released")
	}()

	if !webcam.IsOpened() {
		log.Printf("IPCamera: Video stream %s is not open", s.url)
		return frames
	}

	mat := gocv.NewMat()
	defer mat.Close()

	for i := 0; i < count; i++ {
		if ok := webcam.Read(&mat); !ok || mat.Empty() {
			log.Printf("IPCamera: Failed to capture frame %d/%d", i+1, count)
		} else if img, err := mat.ToImage(); err != nil {
			log.Printf("IPCamera: Failed to convert frame %d/%d: %v", i+1, count, err)
		} else {
			frames = append(frames, camera.ToBuffer(img, s.width))
		}

		if i < count-1 && !camera.Wait(ctx, delay) {
			log.Printf("IPCamera: Capture cancelled after %d frames", len(frames))
			break
		}
	}

	log.Printf("IPCamera: Captured %d/%d frames", len(frames), count)
	return frames
}

// Ping reports whether the stream can be opened
func (s *Source) Ping() bool {
	webcam, err := gocv.OpenVideoCapture(s.url)
	if err != nil {
		log.Printf("IPCamera: Cannot access camera at %s: %v", s.url, err)
		return false
	}
	defer webcam.Close()

	opened := webcam.IsOpened()
	if opened {
		log.Printf("IPCamera: Camera at %s is accessible", s.url)
	} else {
		log.Printf("IPCamera: Cannot access camera at %s", s.url)
	}
	return opened
}
