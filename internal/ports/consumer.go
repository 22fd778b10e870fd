package ports

import "github.com/bft-labs/rdstream/internal/domain"

// Consumer receives decoded protocol events. OnWidth and OnHeight are
// called exactly once per session, before any OnFrame. Calls are made from
// a single delivery goroutine, never concurrently.
type Consumer interface {
	OnWidth(width uint32)
	OnHeight(height uint32)
	OnFrame(frame domain.FrameEvent)
}
