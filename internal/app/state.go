package app

// State is the host-level scroll mode state.
type State struct {
	Trusted    bool
	Active     bool
	SafetyMode bool
}

// Input is something that happened to the host.
type Input interface {
	isInput()
}

type (
	PermissionChanged struct{ Granted bool }
	ToggleRequested   struct{}
	SetActive         struct{ Active bool }
	SafetyTimeout     struct{}
	TapFailed         struct{ Err error }
	SettingsChanged   struct{ SafetyMode bool }
)

func (PermissionChanged) isInput() {}
func (ToggleRequested) isInput()   {}
func (SetActive) isInput()         {}
func (SafetyTimeout) isInput()     {}
func (TapFailed) isInput()         {}
func (SettingsChanged) isInput()   {}

// EffectKind names a side effect the service must perform.
type EffectKind int

const (
	StartTap EffectKind = iota + 1
	StopTap
	StartMonitors
	StopMonitors
	StartHotkey
	StopHotkey
	RequestPermission
	NotifyActive
	ReportError
)

func (k EffectKind) String() string {
	switch k {
	case StartTap:
		return "start-tap"
	case StopTap:
		return "stop-tap"
	case StartMonitors:
		return "start-monitors"
	case StopMonitors:
		return "stop-monitors"
	case StartHotkey:
		return "start-hotkey"
	case StopHotkey:
		return "stop-hotkey"
	case RequestPermission:
		return "request-permission"
	case NotifyActive:
		return "notify-active"
	case ReportError:
		return "report-error"
	default:
		return "unknown"
	}
}

// Effect is one side effect. Err is set for ReportError.
type Effect struct {
	Kind EffectKind
	Err  error
}

var (
	activate   = []Effect{{Kind: StartTap}, {Kind: StartMonitors}, {Kind: NotifyActive}}
	deactivate = []Effect{{Kind: StopTap}, {Kind: StopMonitors}, {Kind: NotifyActive}}
)

// Transition computes the next state and the effects that realize it. It
// has no side effects; the caller runs the effects in order.
func Transition(s State, in Input) (State, []Effect) {
	switch in := in.(type) {
	case PermissionChanged:
		if in.Granted == s.Trusted {
			return s, nil
		}
		s.Trusted = in.Granted
		if in.Granted {
			return s, []Effect{{Kind: StartHotkey}}
		}
		var effects []Effect
		if s.Active {
			s.Active = false
			effects = append(effects, deactivate...)
		}
		return s, append(effects, Effect{Kind: StopHotkey})

	case ToggleRequested:
		return Transition(s, SetActive{Active: !s.Active})

	case SetActive:
		if in.Active == s.Active {
			return s, nil
		}
		if in.Active && !s.Trusted {
			return s, []Effect{{Kind: RequestPermission}}
		}
		s.Active = in.Active
		if in.Active {
			return s, clone(activate)
		}
		return s, clone(deactivate)

	case SafetyTimeout:
		if !s.Active || !s.SafetyMode {
			return s, nil
		}
		s.Active = false
		return s, clone(deactivate)

	case TapFailed:
		var effects []Effect
		if s.Active {
			s.Active = false
			effects = append(effects, deactivate...)
		}
		return s, append(effects, Effect{Kind: ReportError, Err: in.Err})

	case SettingsChanged:
		if in.SafetyMode == s.SafetyMode {
			return s, nil
		}
		s.SafetyMode = in.SafetyMode
		if s.Active {
			return s, []Effect{{Kind: StopMonitors}, {Kind: StartMonitors}}
		}
		return s, nil
	}
	return s, nil
}

func clone(effects []Effect) []Effect {
	return append([]Effect(nil), effects...)
}
