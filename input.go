package cubefield

// Action is a logical input action reported by the windowing layer.
// Actions are edge-triggered: each fires once per physical key press,
// regardless of how many frames the key stays held.
type Action int

const (
	// ActionGridUp increases the grid side by one.
	ActionGridUp Action = iota
	// ActionGridDown decreases the grid side by one.
	ActionGridDown
	// ActionCycleMode advances to the next render mode.
	ActionCycleMode
	// ActionToggleUpload flips the per-draw constant upload strategy.
	ActionToggleUpload
	// ActionToggleLoad flips the simulated CPU load.
	ActionToggleLoad
	// ActionWorkersUp adds a recording worker.
	ActionWorkersUp
	// ActionWorkersDown removes a recording worker.
	ActionWorkersDown
	// ActionExit requests termination after the current frame.
	ActionExit

	numActions
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionGridUp:
		return "GridUp"
	case ActionGridDown:
		return "GridDown"
	case ActionCycleMode:
		return "CycleMode"
	case ActionToggleUpload:
		return "ToggleUpload"
	case ActionToggleLoad:
		return "ToggleLoad"
	case ActionWorkersUp:
		return "WorkersUp"
	case ActionWorkersDown:
		return "WorkersDown"
	case ActionExit:
		return "Exit"
	default:
		return "Unknown"
	}
}

// Input is the set of actions newly triggered since the previous frame.
// The zero value means no input.
type Input struct {
	pressed [numActions]bool
}

// Press marks an action as triggered for this frame.
func (in *Input) Press(a Action) {
	if a >= 0 && a < numActions {
		in.pressed[a] = true
	}
}

// Pressed reports whether the action was triggered this frame.
func (in Input) Pressed(a Action) bool {
	return a >= 0 && a < numActions && in.pressed[a]
}

// Empty reports whether no action was triggered.
func (in Input) Empty() bool {
	return in == Input{}
}

// ApplyInput applies the frame's actions to a copy of cfg and returns the
// resulting configuration together with whether anything changed. Values
// pushed out of range by an action are clamped silently.
func ApplyInput(cfg Config, in Input) (Config, bool) {
	if in.Empty() {
		return cfg, false
	}

	next := cfg
	if in.Pressed(ActionGridUp) {
		next.GridSize++
	}
	if in.Pressed(ActionGridDown) {
		next.GridSize--
	}
	if in.Pressed(ActionWorkersUp) {
		next.WorkerCount++
	}
	if in.Pressed(ActionWorkersDown) {
		next.WorkerCount--
	}
	if in.Pressed(ActionCycleMode) {
		next.Mode = next.Mode.Next()
	}
	if in.Pressed(ActionToggleUpload) {
		next.MapUpload = !next.MapUpload
	}
	if in.Pressed(ActionToggleLoad) {
		next.SimulateLoad = !next.SimulateLoad
	}
	if in.Pressed(ActionExit) {
		next.ExitRequested = true
	}
	next = next.Clamped()

	return next, next != cfg
}
