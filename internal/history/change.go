package history

// ChangeKind identifies what produced a Change.
type ChangeKind int

const (
	// ChangeSet indicates a new present value was recorded.
	ChangeSet ChangeKind = iota

	// ChangeUndo indicates an undo step.
	ChangeUndo

	// ChangeRedo indicates a redo step.
	ChangeRedo

	// ChangeClear indicates past and future were dropped.
	ChangeClear

	// ChangeReset indicates the timeline was restarted with a new value.
	ChangeReset

	// ChangeGroup indicates a group closed with no net effect and the
	// timeline was restored to its state before the group.
	ChangeGroup

	// ChangeCancel indicates a group was cancelled.
	ChangeCancel
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeSet:
		return "set"
	case ChangeUndo:
		return "undo"
	case ChangeRedo:
		return "redo"
	case ChangeClear:
		return "clear"
	case ChangeReset:
		return "reset"
	case ChangeGroup:
		return "group"
	case ChangeCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Change describes a state transition delivered to observers.
type Change[T any] struct {
	Kind     ChangeKind
	Previous T // Present value before the change
	Current  T // Present value after the change

	CanUndo bool
	CanRedo bool

	// Group is the name of the enclosing group, if any.
	Group string
}
