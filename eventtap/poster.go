package eventtap

// Poster posts synthetic events through the OS. It satisfies
// gesture.Emitter and inertia.Emitter. On unsupported platforms posts are
// dropped.
type Poster struct{}
