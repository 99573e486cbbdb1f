package core

// Action represents a semantic player action, abstracted from physical input.
type Action int

const (
	ActionNone    Action = iota
	ActionGrab           // Player picked up a shape
	ActionRelease        // Player let go of a shape
	ActionRotate         // Player rotated a held shape
	ActionRestart        // Start a new attempt at the current level
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionGrab:
		return "Grab"
	case ActionRelease:
		return "Release"
	case ActionRotate:
		return "Rotate"
	case ActionRestart:
		return "Restart"
	default:
		return "Unknown"
	}
}

// InputFrame is the set of actions triggered during one tick.
type InputFrame struct {
	actions uint32
}

// NewInputFrame creates an empty input frame.
func NewInputFrame(actions ...Action) InputFrame {
	var f InputFrame
	for _, a := range actions {
		f.Set(a)
	}
	return f
}

// Set marks an action as triggered for this frame.
func (f *InputFrame) Set(a Action) {
	f.actions |= 1 << uint(a)
}

// Has returns true if the given action was triggered this frame.
func (f InputFrame) Has(a Action) bool {
	return f.actions&(1<<uint(a)) != 0
}

// Interacted reports whether the frame contains any shape interaction.
// Releasing a shape alone does not count.
func (f InputFrame) Interacted() bool {
	return f.Has(ActionGrab) || f.Has(ActionRotate)
}

// Clear resets all actions for the next frame.
func (f *InputFrame) Clear() {
	f.actions = 0
}
