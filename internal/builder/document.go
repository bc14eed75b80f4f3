package builder

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Common errors for document operations.
var (
	ErrNodeNotFound  = errors.New("node not found")
	ErrNodeExists    = errors.New("node already exists")
	ErrPackageExists = errors.New("workspace already has a package")
	ErrSelfLoop      = errors.New("cannot connect a node to itself")
	ErrDuplicateEdge = errors.New("nodes are already connected")
	ErrEdgeNotFound  = errors.New("edge not found")
	ErrNoPackage     = errors.New("workspace has no package")
	ErrInvalidNode   = errors.New("invalid node")
)

// NodeType identifies the kind of a node.
type NodeType string

const (
	NodePackage NodeType = "packageNode"
	NodeCourse  NodeType = "courseNode"
	NodeTerm    NodeType = "termNode"
	NodeGrade   NodeType = "gradeNode"
)

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	switch t {
	case NodePackage, NodeCourse, NodeTerm, NodeGrade:
		return true
	default:
		return false
	}
}

// Position is a canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IncludedCourse is a course folded into a term or grade total.
type IncludedCourse struct {
	ID      int     `json:"id"`
	Price   float64 `json:"price"`
	Name    string  `json:"name"`
	Subject string  `json:"subject,omitempty"`
}

// NodeData holds the fields of every node type. Fields that do not apply
// to a node's type stay zero.
type NodeData struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	OriginalID  int    `json:"originalId,omitempty"` // Backend id

	// Package
	IsRoot             bool    `json:"isRoot,omitempty"`
	TotalPrice         float64 `json:"totalPrice,omitempty"`
	FinalPrice         float64 `json:"finalPrice,omitempty"`
	CoursesCount       int     `json:"coursesCount,omitempty"`
	CoverImage         string  `json:"coverImage,omitempty"`
	IsDiscountActive   bool    `json:"isDiscountActive,omitempty"`
	DiscountPercentage float64 `json:"discountPercentage,omitempty"`
	DiscountAmount     float64 `json:"discountAmount,omitempty"`
	DiscountStartDate  string  `json:"discountStartDate,omitempty"`
	DiscountEndDate    string  `json:"discountEndDate,omitempty"`

	// Course
	Price float64 `json:"price,omitempty"`
	Hours float64 `json:"hours,omitempty"`

	// Term and grade
	IsFetched       bool             `json:"isFetched,omitempty"`
	CalculatedPrice float64          `json:"calculatedPrice,omitempty"`
	CalculatedCount int              `json:"calculatedCount,omitempty"`
	IncludedCourses []IncludedCourse `json:"includedCourses,omitempty"`
}

// Node is a canvas node.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// Edge connects a source node into a target node.
type Edge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Animated bool   `json:"animated,omitempty"`
}

// Document is the builder canvas.
type Document struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := Document{
		Nodes: make([]Node, len(d.Nodes)),
		Edges: make([]Edge, len(d.Edges)),
	}
	for i, n := range d.Nodes {
		out.Nodes[i] = n.Clone()
	}
	copy(out.Edges, d.Edges)
	return out
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	if n.Data.IncludedCourses != nil {
		courses := make([]IncludedCourse, len(n.Data.IncludedCourses))
		copy(courses, n.Data.IncludedCourses)
		n.Data.IncludedCourses = courses
	}
	return n
}

// Node returns the node with the given id.
func (d Document) Node(id string) (Node, bool) {
	if i := d.nodeIndex(id); i >= 0 {
		return d.Nodes[i], true
	}
	return Node{}, false
}

// Package returns the package node, if any.
func (d Document) Package() (Node, bool) {
	for _, n := range d.Nodes {
		if n.Type == NodePackage {
			return n, true
		}
	}
	return Node{}, false
}

// Incomers returns the nodes with an edge into id, in edge order.
// Each source appears once.
func (d Document) Incomers(id string) []Node {
	seen := make(map[string]bool)
	var out []Node
	for _, e := range d.Edges {
		if e.Target != id || seen[e.Source] {
			continue
		}
		seen[e.Source] = true
		if n, ok := d.Node(e.Source); ok {
			out = append(out, n)
		}
	}
	return out
}

func (d Document) nodeIndex(id string) int {
	for i, n := range d.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (d Document) edgeIndex(id string) int {
	for i, e := range d.Edges {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Marshal encodes the document as JSON.
func Marshal(d Document) ([]byte, error) {
	if d.Nodes == nil {
		d.Nodes = []Node{}
	}
	if d.Edges == nil {
		d.Edges = []Edge{}
	}
	return json.MarshalIndent(d, "", "  ")
}

// Unmarshal decodes a JSON document and checks its structure.
func Unmarshal(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("decoding document: %w", err)
	}
	if err := Validate(d); err != nil {
		return Document{}, err
	}
	return d, nil
}

// Validate checks node types, id uniqueness, edge endpoints, and that at
// most one package node exists.
func Validate(d Document) error {
	ids := make(map[string]bool, len(d.Nodes))
	packages := 0
	for _, n := range d.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: empty id", ErrInvalidNode)
		}
		if !n.Type.Valid() {
			return fmt.Errorf("%w: %s has unknown type %q", ErrInvalidNode, n.ID, n.Type)
		}
		if ids[n.ID] {
			return fmt.Errorf("%w: %s", ErrNodeExists, n.ID)
		}
		ids[n.ID] = true
		if n.Type == NodePackage {
			packages++
		}
	}
	if packages > 1 {
		return ErrPackageExists
	}

	for _, e := range d.Edges {
		if !ids[e.Source] {
			return fmt.Errorf("edge %s source %s: %w", e.ID, e.Source, ErrNodeNotFound)
		}
		if !ids[e.Target] {
			return fmt.Errorf("edge %s target %s: %w", e.ID, e.Target, ErrNodeNotFound)
		}
	}
	return nil
}
