package gesture

import (
	"time"

	"go.aimuz.me/dragscroll/internal/types"
)

// ReplayEmitter gives suppressed interactions back to the OS as ordinary
// primary-button events. Every event it posts is tagged Synthetic so the tap
// passes it through.
type ReplayEmitter struct {
	out   Emitter
	clock func() time.Time
}

// NewReplayEmitter creates a ReplayEmitter posting through out.
func NewReplayEmitter(out Emitter, clock func() time.Time) *ReplayEmitter {
	if clock == nil {
		clock = time.Now
	}
	return &ReplayEmitter{out: out, clock: clock}
}

// Click posts a press+release pair at p.
func (r *ReplayEmitter) Click(p types.Point, clickState int64) {
	r.Press(p, clickState)
	r.Release(p, clickState)
}

// Press posts only a press so the window server starts tracking a live drag.
func (r *ReplayEmitter) Press(p types.Point, clickState int64) {
	r.post(types.PointerPress, p, clickState)
}

// Release posts the release matching an earlier Press.
func (r *ReplayEmitter) Release(p types.Point, clickState int64) {
	r.post(types.PointerRelease, p, clickState)
}

func (r *ReplayEmitter) post(kind types.PointerKind, p types.Point, clickState int64) {
	r.out.PostPointer(types.PointerEvent{
		Kind:       kind,
		Point:      p,
		Time:       r.clock(),
		ClickState: clickState,
		Synthetic:  true,
	})
}
