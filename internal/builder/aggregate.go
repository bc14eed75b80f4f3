package builder

import "sort"

// Totals is the price and course count of a node.
type Totals struct {
	TotalPrice   float64
	CoursesCount int
}

// Aggregate computes the totals of a node from its direct incomers.
// Courses contribute their own price; terms and grades contribute their
// included courses. A course reachable through several incomers counts
// once, at the price seen last.
func Aggregate(d Document, id string) Totals {
	if _, ok := d.Node(id); !ok {
		return Totals{}
	}

	unique := collectCourses(d.Incomers(id))

	var totals Totals
	for _, cid := range sortedIDs(unique) {
		totals.TotalPrice += unique[cid].Price
	}
	totals.CoursesCount = len(unique)
	return totals
}

// collectCourses flattens nodes into their courses keyed by course id.
func collectCourses(nodes []Node) map[int]IncludedCourse {
	unique := make(map[int]IncludedCourse)
	for _, n := range nodes {
		switch n.Type {
		case NodeCourse:
			if n.Data.OriginalID != 0 {
				unique[n.Data.OriginalID] = IncludedCourse{
					ID:    n.Data.OriginalID,
					Price: n.Data.Price,
					Name:  n.Data.Label,
				}
			}
		case NodeTerm, NodeGrade:
			for _, c := range n.Data.IncludedCourses {
				unique[c.ID] = c
			}
		}
	}
	return unique
}

// UpdatePackageTotals recomputes totals for every package node.
// It reports whether any package changed; when none did, d is returned
// unchanged.
func UpdatePackageTotals(d Document) (Document, bool) {
	var out Document
	changed := false

	for i, n := range d.Nodes {
		if n.Type != NodePackage {
			continue
		}

		totals := Aggregate(d, n.ID)
		data := n.Data
		data.TotalPrice = totals.TotalPrice
		data.CoursesCount = totals.CoursesCount
		data = ApplyDiscount(data)
		if sameTotals(data, n.Data) {
			continue
		}

		if !changed {
			out = d.Clone()
			changed = true
		}
		dst := &out.Nodes[i].Data
		dst.TotalPrice = data.TotalPrice
		dst.CoursesCount = data.CoursesCount
		dst.FinalPrice = data.FinalPrice
		dst.DiscountAmount = data.DiscountAmount
	}

	if !changed {
		return d, false
	}
	return out, true
}

func sameTotals(a, b NodeData) bool {
	return a.TotalPrice == b.TotalPrice &&
		a.CoursesCount == b.CoursesCount &&
		a.FinalPrice == b.FinalPrice &&
		a.DiscountAmount == b.DiscountAmount
}

// ApplyDiscount recomputes the final price and discount amount of a
// package from its total and discount settings.
func ApplyDiscount(data NodeData) NodeData {
	if data.IsDiscountActive && data.DiscountPercentage > 0 {
		discount := data.TotalPrice * data.DiscountPercentage / 100
		data.FinalPrice = data.TotalPrice - discount
		data.DiscountAmount = discount
		return data
	}
	data.FinalPrice = data.TotalPrice
	data.DiscountAmount = 0
	return data
}

// Preview is the package as a customer would see it.
type Preview struct {
	Package NodeData
	Courses []IncludedCourse
}

// PreviewOf collects the package data and every distinct course placed on
// the canvas, ordered by first appearance.
func PreviewOf(d Document) (Preview, error) {
	pkg, ok := d.Package()
	if !ok {
		return Preview{}, ErrNoPackage
	}

	seen := make(map[int]bool)
	var courses []IncludedCourse
	add := func(c IncludedCourse) {
		if seen[c.ID] {
			return
		}
		seen[c.ID] = true
		courses = append(courses, c)
	}

	for _, n := range d.Nodes {
		switch n.Type {
		case NodeTerm, NodeGrade:
			for _, c := range n.Data.IncludedCourses {
				add(c)
			}
		case NodeCourse:
			if n.Data.OriginalID != 0 {
				add(IncludedCourse{
					ID:      n.Data.OriginalID,
					Price:   n.Data.Price,
					Name:    n.Data.Label,
					Subject: "standalone",
				})
			}
		}
	}

	return Preview{Package: pkg.Clone().Data, Courses: courses}, nil
}

// CourseIDs returns the sorted ids of courses attached to the package,
// directly or through a connected term or grade.
func CourseIDs(d Document) ([]int, error) {
	pkg, ok := d.Package()
	if !ok {
		return nil, ErrNoPackage
	}

	return sortedIDs(collectCourses(d.Incomers(pkg.ID))), nil
}

func sortedIDs(courses map[int]IncludedCourse) []int {
	ids := make([]int, 0, len(courses))
	for id := range courses {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
