package protocol

// State is the parser position in the stream grammar.
type State int

const (
	AwaitingWidth State = iota
	AwaitingHeight
	AwaitingFrame
)

func (s State) String() string {
	switch s {
	case AwaitingWidth:
		return "AwaitingWidth"
	case AwaitingHeight:
		return "AwaitingHeight"
	case AwaitingFrame:
		return "AwaitingFrame"
	default:
		return "Unknown"
	}
}
