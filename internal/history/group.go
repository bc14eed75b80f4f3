package history

// BeginGroup starts a group. Sets made while grouping collapse into a
// single undo step. Nested calls are counted; only the outermost
// EndGroup closes the group.
func (m *Manager[T]) BeginGroup(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.groupDepth++
	if m.grouping {
		return
	}

	m.grouping = true
	m.groupName = name
	m.groupBase = m.stateLocked()
	m.groupSeq = m.seq
	m.groupOpen = false
}

// EndGroup finishes a group.
// If the group's edits net out to the value it started from, the timeline
// is restored to what it was before the group began.
func (m *Manager[T]) EndGroup() {
	m.mu.Lock()
	if !m.grouping {
		m.mu.Unlock()
		return
	}

	m.groupDepth--
	if m.groupDepth > 0 {
		m.mu.Unlock()
		return
	}

	change, changed := m.endGroupLocked()
	m.mu.Unlock()

	if changed {
		m.notifier.Notify(change)
	}
}

// CancelGroup abandons the current group and restores the timeline to its
// state before BeginGroup, including the present value.
func (m *Manager[T]) CancelGroup() {
	m.mu.Lock()
	if !m.grouping {
		m.mu.Unlock()
		return
	}

	name := m.groupName
	base := m.groupBase
	seq := m.groupSeq
	open := m.groupOpen
	m.resetGroupLocked()

	if !open {
		m.mu.Unlock()
		return
	}

	prev := m.present
	m.past = base.Past
	m.present = base.Present
	m.future = base.Future
	m.seq = seq

	change := m.changeLocked(ChangeCancel, prev)
	change.Group = name
	m.mu.Unlock()

	m.notifier.Notify(change)
}

// IsGrouping returns true if a group is open.
func (m *Manager[T]) IsGrouping() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.grouping
}

// Transaction runs fn inside a group.
// If fn returns an error the group is cancelled and the error returned.
func (m *Manager[T]) Transaction(name string, fn func() error) error {
	m.BeginGroup(name)

	if err := fn(); err != nil {
		m.CancelGroup()
		return err
	}

	m.EndGroup()
	return nil
}

// endGroupLocked closes the group regardless of depth and reports the
// change to publish, if any.
func (m *Manager[T]) endGroupLocked() (Change[T], bool) {
	if !m.grouping {
		return Change[T]{}, false
	}

	name := m.groupName
	base := m.groupBase
	seq := m.groupSeq
	open := m.groupOpen
	m.resetGroupLocked()

	if !open || !m.equal(m.present, base.Present) {
		return Change[T]{}, false
	}

	prev := m.present
	m.past = base.Past
	m.present = base.Present
	m.future = base.Future
	m.seq = seq

	change := m.changeLocked(ChangeGroup, prev)
	change.Group = name
	return change, true
}

func (m *Manager[T]) resetGroupLocked() {
	var zero State[T]
	m.grouping = false
	m.groupDepth = 0
	m.groupName = ""
	m.groupBase = zero
	m.groupSeq = 0
	m.groupOpen = false
}

// Checkpoint marks a position in the timeline. It stays valid while the
// past is at capacity; a checkpoint older than the oldest retained entry
// undoes as far as the past allows.
type Checkpoint struct {
	seq int
}

// Checkpoint returns a checkpoint at the present position.
func (m *Manager[T]) Checkpoint() Checkpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Checkpoint{seq: m.seq}
}

// UndoTo undoes until the present is at the checkpoint or the past is
// exhausted.
func (m *Manager[T]) UndoTo(cp Checkpoint) {
	for {
		m.mu.Lock()
		more := m.seq > cp.seq && len(m.past) > 0
		m.mu.Unlock()
		if !more {
			return
		}
		m.Undo()
	}
}

// RedoTo redoes until the present is at the checkpoint or the future is
// exhausted.
func (m *Manager[T]) RedoTo(cp Checkpoint) {
	for {
		m.mu.Lock()
		more := m.seq < cp.seq && len(m.future) > 0
		m.mu.Unlock()
		if !more {
			return
		}
		m.Redo()
	}
}
