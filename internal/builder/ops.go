package builder

import "fmt"

// AddNode returns a copy of d with n appended.
// Only one package node may exist.
func AddNode(d Document, n Node) (Document, error) {
	if n.ID == "" {
		return d, fmt.Errorf("%w: empty id", ErrInvalidNode)
	}
	if !n.Type.Valid() {
		return d, fmt.Errorf("%w: unknown type %q", ErrInvalidNode, n.Type)
	}
	if d.nodeIndex(n.ID) >= 0 {
		return d, fmt.Errorf("add %s: %w", n.ID, ErrNodeExists)
	}
	if n.Type == NodePackage {
		if _, ok := d.Package(); ok {
			return d, ErrPackageExists
		}
	}

	out := d.Clone()
	out.Nodes = append(out.Nodes, n.Clone())
	return out, nil
}

// RemoveNode returns a copy of d without the node and its edges.
func RemoveNode(d Document, id string) (Document, error) {
	idx := d.nodeIndex(id)
	if idx < 0 {
		return d, fmt.Errorf("remove %s: %w", id, ErrNodeNotFound)
	}

	out := Document{
		Nodes: make([]Node, 0, len(d.Nodes)-1),
		Edges: make([]Edge, 0, len(d.Edges)),
	}
	for i, n := range d.Nodes {
		if i != idx {
			out.Nodes = append(out.Nodes, n.Clone())
		}
	}
	for _, e := range d.Edges {
		if e.Source != id && e.Target != id {
			out.Edges = append(out.Edges, e)
		}
	}
	return out, nil
}

// MoveNode returns a copy of d with the node at pos.
func MoveNode(d Document, id string, pos Position) (Document, error) {
	return UpdateNode(d, id, func(n *Node) {
		n.Position = pos
	})
}

// UpdateNode returns a copy of d with fn applied to the node.
// The node's id and type cannot be changed by fn.
func UpdateNode(d Document, id string, fn func(*Node)) (Document, error) {
	idx := d.nodeIndex(id)
	if idx < 0 {
		return d, fmt.Errorf("update %s: %w", id, ErrNodeNotFound)
	}

	out := d.Clone()
	n := &out.Nodes[idx]
	nodeID, nodeType := n.ID, n.Type
	fn(n)
	n.ID, n.Type = nodeID, nodeType
	return out, nil
}

// EdgeID returns the id used for an edge from source to target.
func EdgeID(source, target string) string {
	return "e-" + source + "-" + target
}

// Connect returns a copy of d with an edge from source into target.
func Connect(d Document, source, target string) (Document, Edge, error) {
	if source == target {
		return d, Edge{}, ErrSelfLoop
	}
	if d.nodeIndex(source) < 0 {
		return d, Edge{}, fmt.Errorf("connect source %s: %w", source, ErrNodeNotFound)
	}
	if d.nodeIndex(target) < 0 {
		return d, Edge{}, fmt.Errorf("connect target %s: %w", target, ErrNodeNotFound)
	}
	for _, e := range d.Edges {
		if e.Source == source && e.Target == target {
			return d, Edge{}, fmt.Errorf("connect %s -> %s: %w", source, target, ErrDuplicateEdge)
		}
	}

	edge := Edge{
		ID:       EdgeID(source, target),
		Source:   source,
		Target:   target,
		Animated: true,
	}
	out := d.Clone()
	out.Edges = append(out.Edges, edge)
	return out, edge, nil
}

// Disconnect returns a copy of d without the edge.
func Disconnect(d Document, edgeID string) (Document, error) {
	idx := d.edgeIndex(edgeID)
	if idx < 0 {
		return d, fmt.Errorf("disconnect %s: %w", edgeID, ErrEdgeNotFound)
	}

	out := d.Clone()
	out.Edges = append(out.Edges[:idx], out.Edges[idx+1:]...)
	return out, nil
}
