package domain

import "fmt"

// BytesPerPixel is the size of one RGB pixel on the wire. There is no alpha.
const BytesPerPixel = 3

// Dimensions is the remote screen size, fixed for the life of a session.
type Dimensions struct {
	Width  uint32
	Height uint32
}

// FrameSize returns the byte size of one raw frame.
func (d Dimensions) FrameSize() uint64 {
	return uint64(d.Width) * uint64(d.Height) * BytesPerPixel
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// FrameEvent is one decompressed payload. Data may hold Count raw frames
// back to back; consumers that want single frames use Frames.
type FrameEvent struct {
	// Seq numbers payloads from 1 within a session.
	Seq uint64

	Dimensions Dimensions

	// Data is the decompressed payload. It must not be modified.
	Data []byte

	// Count is len(Data) / Dimensions.FrameSize().
	Count int
}

// Frames splits Data into Count slices of one raw frame each.
// The slices alias Data.
func (e FrameEvent) Frames() [][]byte {
	size := int(e.Dimensions.FrameSize())
	if size == 0 || e.Count == 0 {
		return nil
	}
	out := make([][]byte, 0, e.Count)
	for off := 0; off+size <= len(e.Data); off += size {
		out = append(out, e.Data[off:off+size:off+size])
	}
	return out
}
