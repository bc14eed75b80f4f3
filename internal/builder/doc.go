// Package builder models the package builder canvas.
//
// A Document is a graph of nodes joined by edges. Course, term, and grade
// nodes are wired into a package node; the package's totals are the sum of
// the unique courses reachable through its direct incomers.
//
// Documents are values. Every operation in this package returns a fresh
// Document that shares no slices with its input, so a document recorded in
// an undo history never changes afterwards.
package builder
