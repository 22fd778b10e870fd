package sink

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/bft-labs/rdstream/internal/domain"
	"github.com/bft-labs/rdstream/internal/ports"
)

// SnapshotSink saves the first raw frame of every Nth payload as PNG.
type SnapshotSink struct {
	dir    string
	every  uint64
	logger ports.Logger

	saved   atomic.Uint64
	dropped atomic.Uint64
}

// NewSnapshotSink creates dir if needed.
func NewSnapshotSink(dir string, every int, logger ports.Logger) (*SnapshotSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	if every <= 0 {
		every = 1
	}
	return &SnapshotSink{dir: dir, every: uint64(every), logger: logger}, nil
}

func (s *SnapshotSink) OnWidth(uint32)  {}
func (s *SnapshotSink) OnHeight(uint32) {}

func (s *SnapshotSink) OnFrame(ev domain.FrameEvent) {
	if (ev.Seq-1)%s.every != 0 {
		return
	}
	path, err := s.Save(ev)
	if err != nil {
		s.logger.Warn("snapshot failed", ports.Uint64("seq", ev.Seq), ports.Err(err))
		return
	}
	s.logger.Debug("snapshot saved", ports.String("path", path))
}

// Save writes the first raw frame of ev and returns the file path.
func (s *SnapshotSink) Save(ev domain.FrameEvent) (string, error) {
	frames := ev.Frames()
	if len(frames) == 0 {
		s.dropped.Add(1)
		return "", fmt.Errorf("payload %d holds no complete frame", ev.Seq)
	}

	img, err := rgbToRGBA(ev.Dimensions, frames[0])
	if err != nil {
		s.dropped.Add(1)
		return "", err
	}

	path := filepath.Join(s.dir, fmt.Sprintf("frame_%06d.png", ev.Seq))
	f, err := os.Create(path)
	if err != nil {
		s.dropped.Add(1)
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		s.dropped.Add(1)
		return "", fmt.Errorf("encode png: %w", err)
	}

	s.saved.Add(1)
	return path, nil
}

// Saved returns the number of snapshots written.
func (s *SnapshotSink) Saved() uint64 { return s.saved.Load() }

// Dropped returns the number of snapshots that failed.
func (s *SnapshotSink) Dropped() uint64 { return s.dropped.Load() }

// rgbToRGBA widens packed RGB to opaque RGBA.
func rgbToRGBA(d domain.Dimensions, rgb []byte) (*image.RGBA, error) {
	if uint64(len(rgb)) != d.FrameSize() {
		return nil, fmt.Errorf("invalid RGB data size: got %d, expected %d", len(rgb), d.FrameSize())
	}

	w, h := int(d.Width), int(d.Height)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		img.Pix[i*4+0] = rgb[i*3+0]
		img.Pix[i*4+1] = rgb[i*3+1]
		img.Pix[i*4+2] = rgb[i*3+2]
		img.Pix[i*4+3] = 255
	}
	return img, nil
}
