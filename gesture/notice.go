package gesture

import "go.aimuz.me/dragscroll/internal/types"

// NoticeKind identifies a drag-state change.
type NoticeKind int

const (
	DragStarted NoticeKind = iota + 1
	DragMoved
	DragEnded
)

func (k NoticeKind) String() string {
	switch k {
	case DragStarted:
		return "started"
	case DragMoved:
		return "moved"
	case DragEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Notice reports a drag-state change to observers such as the safety
// monitor.
type Notice struct {
	Kind  NoticeKind
	Point types.Point
}
