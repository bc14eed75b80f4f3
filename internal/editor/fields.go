package editor

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/pkgbuilder/internal/builder"
)

// ErrReadOnlyField is returned when SetField would change a node id or
// type, or add or remove nodes.
var ErrReadOnlyField = errors.New("field is read-only")

// Field returns the raw JSON value at path in the current document.
// Paths use gjson syntax, for example "nodes.0.data.label" or
// `nodes.#(id=="course-101").data.price`.
func (s *Session) Field(path string) (string, bool, error) {
	data, err := builder.Marshal(s.history.Current())
	if err != nil {
		return "", false, fmt.Errorf("encoding document: %w", err)
	}
	res := gjson.GetBytes(data, path)
	if !res.Exists() {
		return "", false, nil
	}
	return res.Raw, true, nil
}

// NodeField returns the raw JSON value of a node data field.
func (s *Session) NodeField(id, field string) (string, bool, error) {
	idx, err := s.nodeIndex(id)
	if err != nil {
		return "", false, err
	}
	return s.Field(fmt.Sprintf("nodes.%d.data.%s", idx, field))
}

// SetField sets the value at path in the current document and records the
// result as one undo step. The edited document must still be valid and
// keep every node's id and type.
func (s *Session) SetField(path string, value any) error {
	cur := s.history.Current()
	data, err := builder.Marshal(cur)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	data, err = sjson.SetBytes(data, path, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	doc, err := builder.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	if !sameNodes(cur, doc) {
		return fmt.Errorf("set %s: %w", path, ErrReadOnlyField)
	}

	s.commit("set", doc)
	return nil
}

// SetNodeField sets a node data field, for example "description" or
// "coverImage".
func (s *Session) SetNodeField(id, field string, value any) error {
	idx, err := s.nodeIndex(id)
	if err != nil {
		return err
	}
	return s.SetField(fmt.Sprintf("nodes.%d.data.%s", idx, field), value)
}

func (s *Session) nodeIndex(id string) (int, error) {
	for i, n := range s.history.Current().Nodes {
		if n.ID == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("field %s: %w", id, builder.ErrNodeNotFound)
}

// sameNodes reports whether a and b hold the same node ids and types in
// the same order.
func sameNodes(a, b builder.Document) bool {
	if len(a.Nodes) != len(b.Nodes) {
		return false
	}
	for i := range a.Nodes {
		if a.Nodes[i].ID != b.Nodes[i].ID || a.Nodes[i].Type != b.Nodes[i].Type {
			return false
		}
	}
	return true
}
