//go:build darwin

package hotkey

import (
	hook "github.com/robotn/gohook"
)

// gohookListener drives the process-wide gohook event loop. gohook keeps
// its registrations in package state, so only one listener may run.
type gohookListener struct {
	done chan struct{}
}

func newListener() listener {
	return &gohookListener{}
}

func (l *gohookListener) Listen(keys []string, cb func()) error {
	hook.Register(hook.KeyDown, keys, func(hook.Event) {
		// Off the hook goroutine so a slow toggle never delays input.
		go cb()
	})
	s := hook.Start()
	l.done = make(chan struct{})
	go func(done chan struct{}) {
		<-hook.Process(s)
		close(done)
	}(l.done)
	return nil
}

// Close ends the hook loop and drops all registrations.
func (l *gohookListener) Close() {
	if l.done == nil {
		return
	}
	hook.End()
	<-l.done
	l.done = nil
}
