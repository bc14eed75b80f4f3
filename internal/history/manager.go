package history

import (
	"reflect"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/dshills/pkgbuilder/internal/notify"
)

// DefaultMaxEntries is the undo depth used when no positive limit is given.
const DefaultMaxEntries = 50

// defaultCmpOptions let cmp.Equal compare any value: unexported fields are
// read and NaN equals NaN.
var defaultCmpOptions = []cmp.Option{
	cmp.Exporter(func(reflect.Type) bool { return true }),
	cmpopts.EquateNaNs(),
}

// State is a snapshot of a history timeline.
type State[T any] struct {
	Past    []T // Oldest first
	Present T
	Future  []T // Nearest redo first
}

// Manager maintains a bounded timeline of values.
type Manager[T any] struct {
	mu sync.Mutex

	past    []T
	present T
	future  []T

	// seq is the position of the present on the timeline. It grows on
	// every recorded Set and Redo and shrinks on Undo; evictions leave it
	// unchanged.
	seq int

	// Grouping state
	grouping   bool
	groupDepth int
	groupName  string
	groupBase  State[T]
	groupSeq   int
	groupOpen  bool // an entry was recorded for the current group

	// Configuration
	maxEntries int
	equal      func(a, b T) bool

	notifier *notify.Notifier[Change[T]]
}

// Option configures a Manager.
type Option[T any] func(*Manager[T])

// WithMaxEntries sets the maximum number of past entries.
// Values <= 0 select DefaultMaxEntries.
func WithMaxEntries[T any](n int) Option[T] {
	return func(m *Manager[T]) {
		if n <= 0 {
			n = DefaultMaxEntries
		}
		m.maxEntries = n
	}
}

// WithEqual replaces the equality used to skip redundant Sets.
func WithEqual[T any](equal func(a, b T) bool) Option[T] {
	return func(m *Manager[T]) {
		if equal != nil {
			m.equal = equal
		}
	}
}

// WithCmpOptions adds options to the default cmp.Equal comparison.
func WithCmpOptions[T any](opts ...cmp.Option) Option[T] {
	all := append(append([]cmp.Option(nil), defaultCmpOptions...), opts...)
	return func(m *Manager[T]) {
		m.equal = func(a, b T) bool {
			return cmp.Equal(a, b, all...)
		}
	}
}

// New creates a history whose present value is initial.
func New[T any](initial T, opts ...Option[T]) *Manager[T] {
	m := &Manager[T]{
		present:    initial,
		maxEntries: DefaultMaxEntries,
		equal: func(a, b T) bool {
			return cmp.Equal(a, b, defaultCmpOptions...)
		},
		notifier: notify.New[Change[T]](),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Set records v as the new present value.
// A value equal to the present is ignored. Otherwise the present moves to
// the past, the oldest past entry is dropped when the limit is exceeded,
// and the future is discarded.
func (m *Manager[T]) Set(v T) {
	m.mu.Lock()
	if m.equal(m.present, v) {
		m.mu.Unlock()
		return
	}

	prev := m.present
	if !m.grouping || !m.groupOpen {
		m.pushPastLocked(prev)
		m.seq++
		m.groupOpen = m.grouping
	}
	m.present = v
	m.future = nil

	change := m.changeLocked(ChangeSet, prev)
	m.mu.Unlock()

	m.notifier.Notify(change)
}

// Undo moves the last past value into the present.
// Does nothing when there is nothing to undo. An open group is ended first.
func (m *Manager[T]) Undo() {
	m.mu.Lock()
	groupChange, grouped := m.endGroupLocked()

	if len(m.past) == 0 {
		m.mu.Unlock()
		if grouped {
			m.notifier.Notify(groupChange)
		}
		return
	}

	prev := m.present
	last := len(m.past) - 1
	m.present = m.past[last]

	var zero T
	m.past[last] = zero
	m.past = m.past[:last]

	m.future = append([]T{prev}, m.future...)
	m.seq--

	change := m.changeLocked(ChangeUndo, prev)
	m.mu.Unlock()

	if grouped {
		m.notifier.Notify(groupChange)
	}
	m.notifier.Notify(change)
}

// Redo moves the nearest future value into the present.
// Does nothing when there is nothing to redo. An open group is ended first.
func (m *Manager[T]) Redo() {
	m.mu.Lock()
	groupChange, grouped := m.endGroupLocked()

	if len(m.future) == 0 {
		m.mu.Unlock()
		if grouped {
			m.notifier.Notify(groupChange)
		}
		return
	}

	prev := m.present
	m.present = m.future[0]

	var zero T
	m.future[0] = zero
	m.future = m.future[1:]
	if len(m.future) == 0 {
		m.future = nil
	}

	m.pushPastLocked(prev)
	m.seq++

	change := m.changeLocked(ChangeRedo, prev)
	m.mu.Unlock()

	if grouped {
		m.notifier.Notify(groupChange)
	}
	m.notifier.Notify(change)
}

// CanUndo returns true if undo is available.
func (m *Manager[T]) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past) > 0
}

// CanRedo returns true if redo is available.
func (m *Manager[T]) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.future) > 0
}

// Current returns the present value.
func (m *Manager[T]) Current() T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.present
}

// UndoCount returns the number of undo steps available.
func (m *Manager[T]) UndoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past)
}

// RedoCount returns the number of redo steps available.
func (m *Manager[T]) RedoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.future)
}

// Past returns a copy of the past values, oldest first.
func (m *Manager[T]) Past() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneValues(m.past)
}

// Future returns a copy of the future values, nearest redo first.
func (m *Manager[T]) Future() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneValues(m.future)
}

// State returns a snapshot of the whole timeline.
func (m *Manager[T]) State() State[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// Clear drops all past and future values, keeping the present.
func (m *Manager[T]) Clear() {
	m.mu.Lock()
	if len(m.past) == 0 && len(m.future) == 0 && !m.grouping {
		m.mu.Unlock()
		return
	}

	m.past = nil
	m.future = nil
	m.resetGroupLocked()

	change := m.changeLocked(ChangeClear, m.present)
	m.mu.Unlock()

	m.notifier.Notify(change)
}

// Reset replaces the present with v and starts a fresh timeline.
func (m *Manager[T]) Reset(v T) {
	m.mu.Lock()
	prev := m.present
	m.present = v
	m.past = nil
	m.future = nil
	m.seq = 0
	m.resetGroupLocked()

	change := m.changeLocked(ChangeReset, prev)
	m.mu.Unlock()

	m.notifier.Notify(change)
}

// SetMaxEntries changes the maximum number of past entries.
// If the past is longer, the oldest entries are removed.
func (m *Manager[T]) SetMaxEntries(max int) {
	if max <= 0 {
		max = DefaultMaxEntries
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.maxEntries = max
	m.trimLocked()
}

// MaxEntries returns the maximum number of past entries.
func (m *Manager[T]) MaxEntries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxEntries
}

// Subscribe registers an observer called after every state change.
func (m *Manager[T]) Subscribe(observer func(Change[T])) *notify.Subscription {
	return m.notifier.Subscribe(observer)
}

// pushPastLocked appends v to the past and enforces the limit.
func (m *Manager[T]) pushPastLocked(v T) {
	m.past = append(m.past, v)
	m.trimLocked()
}

func (m *Manager[T]) trimLocked() {
	if excess := len(m.past) - m.maxEntries; excess > 0 {
		// Copy so evicted values are not retained by the backing array
		m.past = append(make([]T, 0, m.maxEntries), m.past[excess:]...)
	}
}

func (m *Manager[T]) stateLocked() State[T] {
	return State[T]{
		Past:    cloneValues(m.past),
		Present: m.present,
		Future:  cloneValues(m.future),
	}
}

func (m *Manager[T]) changeLocked(kind ChangeKind, prev T) Change[T] {
	return Change[T]{
		Kind:     kind,
		Previous: prev,
		Current:  m.present,
		CanUndo:  len(m.past) > 0,
		CanRedo:  len(m.future) > 0,
		Group:    m.groupName,
	}
}

func cloneValues[T any](values []T) []T {
	return append(make([]T, 0, len(values)), values...)
}
