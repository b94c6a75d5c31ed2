package gesture

import "time"

const (
	MinHoldDelay     = 250 * time.Millisecond
	MaxHoldDelay     = 5 * time.Second
	DefaultHoldDelay = time.Second
)

// Settings are the user-facing knobs the engine reads at press time.
type Settings struct {
	// ClickThrough defers the click/drag decision until the pointer leaves
	// the dead zone. When false every press starts a drag immediately.
	ClickThrough bool

	HoldToPassthrough bool
	HoldDelay         time.Duration

	Momentum bool
	// Intensity in [0,1]; 0.5 is the baseline momentum feel.
	Intensity float64

	// InvertDirection makes content move opposite to the pointer.
	InvertDirection bool
}

// DefaultSettings returns the out-of-box behaviour.
func DefaultSettings() Settings {
	return Settings{
		ClickThrough: true,
		HoldDelay:    DefaultHoldDelay,
		Momentum:     true,
		Intensity:    0.5,
	}
}

func (s Settings) normalize() Settings {
	switch {
	case s.HoldDelay == 0:
		s.HoldDelay = DefaultHoldDelay
	case s.HoldDelay < MinHoldDelay:
		s.HoldDelay = MinHoldDelay
	case s.HoldDelay > MaxHoldDelay:
		s.HoldDelay = MaxHoldDelay
	}
	if s.Intensity < 0 {
		s.Intensity = 0
	}
	if s.Intensity > 1 {
		s.Intensity = 1
	}
	return s
}

// direction is the sign applied to pointer deltas. Natural scrolling moves
// content with the pointer.
func (s Settings) direction() float64 {
	if s.InvertDirection {
		return -1
	}
	return 1
}
