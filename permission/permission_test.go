package permission

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestPollerReportsTransitions(t *testing.T) {
	seq := []bool{false, false, true, true, false}

	var (
		mu      sync.Mutex
		i       int
		changes []bool
	)
	ticks := make(chan time.Time)
	waits := make(chan struct{})

	p := &Poller{
		Check: func() bool {
			mu.Lock()
			defer mu.Unlock()
			v := seq[i]
			if i < len(seq)-1 {
				i++
			}
			return v
		},
		After: func(time.Duration) <-chan time.Time {
			waits <- struct{}{}
			return ticks
		},
		OnChange: func(granted bool) { changes = append(changes, granted) },
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	for n := 0; n < len(seq); n++ {
		<-waits
		if n < len(seq)-1 {
			ticks <- time.Time{}
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() = %v", err)
	}

	want := []bool{false, true, false}
	if len(changes) != len(want) {
		t.Fatalf("changes = %v, want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("changes[%d] = %v, want %v", i, changes[i], want[i])
		}
	}
}
