// Package history provides bounded undo/redo over values of any type.
//
// A Manager keeps three sequences: the past (oldest first), the present
// value, and the future (nearest redo first). Editors call Set after every
// user edit and Undo/Redo from the corresponding controls:
//
//	h := history.New(doc) // at most 50 undo steps by default
//
//	h.Set(edited)
//	h.Undo()
//	h.Redo()
//
//	undoEnabled, redoEnabled := h.CanUndo(), h.CanRedo()
//
// # Deduplication
//
// Set ignores a value that is structurally equal to the present one, so
// redundant writes never create history entries. Equality defaults to
// cmp.Equal from github.com/google/go-cmp, reading unexported fields and
// treating NaN as equal to NaN. WithCmpOptions adds options; WithEqual
// replaces the comparison.
//
// # Bounds
//
// The past is capped (WithMaxEntries, default 50). Once full, the oldest
// entry is dropped on every new Set. Any effective Set discards the future.
//
// Undo on an empty past and Redo on an empty future are no-ops; nothing in
// this package returns an error for an empty history.
//
// # Grouping
//
// A run of Sets can be folded into a single undo step:
//
//	h.BeginGroup("Drag node")
//	// ... many Set calls ...
//	h.EndGroup()
//
// # Observers
//
// Subscribe registers a callback invoked after every state change. No-ops
// do not notify.
//
// Values are stored as given. Callers that mutate values in place after
// handing them to Set must pass copies instead.
package history
