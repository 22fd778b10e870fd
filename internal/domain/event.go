package domain

// EventKind identifies which consumer callback an Event is for.
type EventKind int

const (
	EventWidth EventKind = iota + 1
	EventHeight
	EventFrame
)

func (k EventKind) String() string {
	switch k {
	case EventWidth:
		return "width"
	case EventHeight:
		return "height"
	case EventFrame:
		return "frame"
	default:
		return "unknown"
	}
}

// Event is one decoded protocol event. Value is set for width and height
// events, Frame for frame events.
type Event struct {
	Kind  EventKind
	Value uint32
	Frame FrameEvent
}
