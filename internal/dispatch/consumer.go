package dispatch

import (
	"github.com/bft-labs/rdstream/internal/domain"
	"github.com/bft-labs/rdstream/internal/ports"
)

// ConsumerFuncs adapts optional callbacks to ports.Consumer. Nil fields
// are skipped.
type ConsumerFuncs struct {
	Width  func(width uint32)
	Height func(height uint32)
	Frame  func(frame domain.FrameEvent)
}

func (c ConsumerFuncs) OnWidth(width uint32) {
	if c.Width != nil {
		c.Width(width)
	}
}

func (c ConsumerFuncs) OnHeight(height uint32) {
	if c.Height != nil {
		c.Height(height)
	}
}

func (c ConsumerFuncs) OnFrame(frame domain.FrameEvent) {
	if c.Frame != nil {
		c.Frame(frame)
	}
}

// Multi delivers every event to each consumer in argument order.
func Multi(consumers ...ports.Consumer) ports.Consumer {
	out := make(multi, 0, len(consumers))
	for _, c := range consumers {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

type multi []ports.Consumer

func (m multi) OnWidth(width uint32) {
	for _, c := range m {
		c.OnWidth(width)
	}
}

func (m multi) OnHeight(height uint32) {
	for _, c := range m {
		c.OnHeight(height)
	}
}

func (m multi) OnFrame(frame domain.FrameEvent) {
	for _, c := range m {
		c.OnFrame(frame)
	}
}
