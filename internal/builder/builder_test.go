package builder

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func packageNode(id string) Node {
	return Node{
		ID:   id,
		Type: NodePackage,
		Data: NodeData{Label: "New package", IsRoot: true},
	}
}

func courseNode(id string, courseID int, price float64) Node {
	return Node{
		ID:   id,
		Type: NodeCourse,
		Data: NodeData{Label: id, OriginalID: courseID, Price: price},
	}
}

func termNode(id string, courses ...IncludedCourse) Node {
	return Node{
		ID:   id,
		Type: NodeTerm,
		Data: NodeData{Label: id, IsFetched: true, IncludedCourses: courses},
	}
}

func mustAdd(t *testing.T, d Document, nodes ...Node) Document {
	t.Helper()
	for _, n := range nodes {
		var err error
		d, err = AddNode(d, n)
		if err != nil {
			t.Fatalf("AddNode(%s) failed: %v", n.ID, err)
		}
	}
	return d
}

func mustConnect(t *testing.T, d Document, pairs ...[2]string) Document {
	t.Helper()
	for _, p := range pairs {
		var err error
		d, _, err = Connect(d, p[0], p[1])
		if err != nil {
			t.Fatalf("Connect(%s, %s) failed: %v", p[0], p[1], err)
		}
	}
	return d
}

func TestNodeTypeValid(t *testing.T) {
	tests := []struct {
		typ  NodeType
		want bool
	}{
		{NodePackage, true},
		{NodeCourse, true},
		{NodeTerm, true},
		{NodeGrade, true},
		{NodeType("bogus"), false},
		{NodeType(""), false},
	}

	for _, tt := range tests {
		if got := tt.typ.Valid(); got != tt.want {
			t.Errorf("%q.Valid() = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestAddNode(t *testing.T) {
	d := mustAdd(t, Document{}, packageNode("pkg"), courseNode("c1", 1, 100))

	if len(d.Nodes) != 2 {
		t.Fatalf("len(Nodes) = %d, want 2", len(d.Nodes))
	}

	if _, err := AddNode(d, packageNode("pkg2")); !errors.Is(err, ErrPackageExists) {
		t.Errorf("second package error = %v, want %v", err, ErrPackageExists)
	}
	if _, err := AddNode(d, courseNode("c1", 2, 5)); !errors.Is(err, ErrNodeExists) {
		t.Errorf("duplicate id error = %v, want %v", err, ErrNodeExists)
	}
	if _, err := AddNode(d, Node{ID: "x", Type: "bogus"}); !errors.Is(err, ErrInvalidNode) {
		t.Errorf("bad type error = %v, want %v", err, ErrInvalidNode)
	}
	if _, err := AddNode(d, Node{Type: NodeCourse}); !errors.Is(err, ErrInvalidNode) {
		t.Errorf("empty id error = %v, want %v", err, ErrInvalidNode)
	}
}

func TestOperationsDoNotAliasInput(t *testing.T) {
	base := mustAdd(t, Document{}, termNode("t1", IncludedCourse{ID: 1, Price: 10}))
	snapshot := base.Clone()

	next, err := UpdateNode(base, "t1", func(n *Node) {
		n.Data.IncludedCourses[0].Price = 999
		n.Data.Label = "changed"
	})
	if err != nil {
		t.Fatalf("UpdateNode failed: %v", err)
	}
	next, err = AddNode(next, courseNode("c1", 2, 5))
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	if diff := cmp.Diff(snapshot, base); diff != "" {
		t.Errorf("input document changed (-want +got):\n%s", diff)
	}
	if next.Nodes[0].Data.IncludedCourses[0].Price != 999 {
		t.Error("update not applied to result")
	}
}

func TestUpdateNodeKeepsIdentity(t *testing.T) {
	d := mustAdd(t, Document{}, courseNode("c1", 1, 10))

	d, err := UpdateNode(d, "c1", func(n *Node) {
		n.ID = "other"
		n.Type = NodePackage
		n.Data.Price = 20
	})
	if err != nil {
		t.Fatalf("UpdateNode failed: %v", err)
	}

	n, ok := d.Node("c1")
	if !ok {
		t.Fatal("node id was changed")
	}
	if n.Type != NodeCourse || n.Data.Price != 20 {
		t.Errorf("node = %+v", n)
	}

	if _, err := UpdateNode(d, "missing", func(*Node) {}); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("error = %v, want %v", err, ErrNodeNotFound)
	}
}

func TestMoveNode(t *testing.T) {
	d := mustAdd(t, Document{}, packageNode("pkg"))

	d, err := MoveNode(d, "pkg", Position{X: 400, Y: 200})
	if err != nil {
		t.Fatalf("MoveNode failed: %v", err)
	}
	if n, _ := d.Node("pkg"); n.Position != (Position{X: 400, Y: 200}) {
		t.Errorf("position = %+v", n.Position)
	}
}

func TestConnect(t *testing.T) {
	d := mustAdd(t, Document{}, packageNode("pkg"), courseNode("c1", 1, 100))

	d, edge, err := Connect(d, "c1", "pkg")
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	want := Edge{ID: "e-c1-pkg", Source: "c1", Target: "pkg", Animated: true}
	if edge != want {
		t.Errorf("edge = %+v, want %+v", edge, want)
	}

	tests := []struct {
		name           string
		source, target string
		want           error
	}{
		{"self loop", "pkg", "pkg", ErrSelfLoop},
		{"missing source", "nope", "pkg", ErrNodeNotFound},
		{"missing target", "c1", "nope", ErrNodeNotFound},
		{"duplicate", "c1", "pkg", ErrDuplicateEdge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Connect(d, tt.source, tt.target); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDisconnect(t *testing.T) {
	d := mustAdd(t, Document{}, packageNode("pkg"), courseNode("c1", 1, 100))
	d = mustConnect(t, d, [2]string{"c1", "pkg"})

	d, err := Disconnect(d, EdgeID("c1", "pkg"))
	if err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	if len(d.Edges) != 0 {
		t.Errorf("len(Edges) = %d, want 0", len(d.Edges))
	}

	if _, err := Disconnect(d, "e-x-y"); !errors.Is(err, ErrEdgeNotFound) {
		t.Errorf("error = %v, want %v", err, ErrEdgeNotFound)
	}
}

func TestRemoveNodeDropsEdges(t *testing.T) {
	d := mustAdd(t, Document{},
		packageNode("pkg"),
		courseNode("c1", 1, 100),
		courseNode("c2", 2, 50),
	)
	d = mustConnect(t, d, [2]string{"c1", "pkg"}, [2]string{"c2", "pkg"})

	d, err := RemoveNode(d, "c1")
	if err != nil {
		t.Fatalf("RemoveNode failed: %v", err)
	}

	if _, ok := d.Node("c1"); ok {
		t.Error("node still present")
	}
	want := []Edge{{ID: "e-c2-pkg", Source: "c2", Target: "pkg", Animated: true}}
	if diff := cmp.Diff(want, d.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}

	if _, err := RemoveNode(d, "c1"); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("error = %v, want %v", err, ErrNodeNotFound)
	}
}

func TestAggregate(t *testing.T) {
	d := mustAdd(t, Document{},
		packageNode("pkg"),
		courseNode("c1", 1, 100),
		courseNode("c-dup", 2, 40),
		termNode("t1",
			IncludedCourse{ID: 2, Price: 50},
			IncludedCourse{ID: 3, Price: 25},
		),
		courseNode("loose", 9, 1000),
	)
	d = mustConnect(t, d,
		[2]string{"c1", "pkg"},
		[2]string{"c-dup", "pkg"},
		[2]string{"t1", "pkg"},
	)

	got := Aggregate(d, "pkg")

	// Course 2 appears twice; the term's price is seen last
	want := Totals{TotalPrice: 175, CoursesCount: 3}
	if got != want {
		t.Errorf("Aggregate() = %+v, want %+v", got, want)
	}

	if got := Aggregate(d, "missing"); got != (Totals{}) {
		t.Errorf("Aggregate(missing) = %+v, want zero", got)
	}
}

func TestAggregateIgnoresCourseWithoutID(t *testing.T) {
	d := mustAdd(t, Document{}, packageNode("pkg"), courseNode("c0", 0, 100))
	d = mustConnect(t, d, [2]string{"c0", "pkg"})

	if got := Aggregate(d, "pkg"); got != (Totals{}) {
		t.Errorf("Aggregate() = %+v, want zero", got)
	}
}

func TestAggregateCycle(t *testing.T) {
	d := mustAdd(t, Document{}, packageNode("pkg"), courseNode("c1", 1, 10))
	d = mustConnect(t, d, [2]string{"c1", "pkg"}, [2]string{"pkg", "c1"})

	if got := Aggregate(d, "pkg"); got.CoursesCount != 1 || got.TotalPrice != 10 {
		t.Errorf("Aggregate() = %+v", got)
	}
}

func TestUpdatePackageTotals(t *testing.T) {
	d := mustAdd(t, Document{}, packageNode("pkg"), courseNode("c1", 1, 80))

	same, changed := UpdatePackageTotals(d)
	if changed {
		t.Error("empty package reported a change")
	}
	if diff := cmp.Diff(d, same); diff != "" {
		t.Errorf("unchanged document differs (-want +got):\n%s", diff)
	}

	d = mustConnect(t, d, [2]string{"c1", "pkg"})
	updated, changed := UpdatePackageTotals(d)
	if !changed {
		t.Fatal("expected a change")
	}

	pkg, _ := updated.Package()
	if pkg.Data.TotalPrice != 80 || pkg.Data.CoursesCount != 1 || pkg.Data.FinalPrice != 80 {
		t.Errorf("package data = %+v", pkg.Data)
	}

	// Input is untouched
	if orig, _ := d.Package(); orig.Data.TotalPrice != 0 {
		t.Error("input document was modified")
	}

	if _, changed := UpdatePackageTotals(updated); changed {
		t.Error("second pass reported a change")
	}
}

func TestUpdatePackageTotalsNoPackage(t *testing.T) {
	d := mustAdd(t, Document{}, courseNode("c1", 1, 80))
	if _, changed := UpdatePackageTotals(d); changed {
		t.Error("document without package reported a change")
	}
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		name       string
		in         NodeData
		final, off float64
	}{
		{"inactive", NodeData{TotalPrice: 200, DiscountPercentage: 10}, 200, 0},
		{"active", NodeData{TotalPrice: 200, IsDiscountActive: true, DiscountPercentage: 25}, 150, 50},
		{"active zero", NodeData{TotalPrice: 200, IsDiscountActive: true}, 200, 0},
		{"stale amount cleared", NodeData{TotalPrice: 100, DiscountAmount: 30, FinalPrice: 70}, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyDiscount(tt.in)
			if got.FinalPrice != tt.final || got.DiscountAmount != tt.off {
				t.Errorf("final=%v amount=%v, want %v %v", got.FinalPrice, got.DiscountAmount, tt.final, tt.off)
			}
		})
	}
}

func TestPreviewOf(t *testing.T) {
	if _, err := PreviewOf(Document{}); !errors.Is(err, ErrNoPackage) {
		t.Errorf("error = %v, want %v", err, ErrNoPackage)
	}

	d := mustAdd(t, Document{},
		packageNode("pkg"),
		termNode("t1",
			IncludedCourse{ID: 1, Price: 10, Name: "Algebra"},
			IncludedCourse{ID: 2, Price: 20, Name: "Physics"},
		),
		courseNode("Physics", 2, 20),
		courseNode("Chemistry", 3, 30),
	)

	p, err := PreviewOf(d)
	if err != nil {
		t.Fatalf("PreviewOf failed: %v", err)
	}

	want := []IncludedCourse{
		{ID: 1, Price: 10, Name: "Algebra"},
		{ID: 2, Price: 20, Name: "Physics"},
		{ID: 3, Price: 30, Name: "Chemistry", Subject: "standalone"},
	}
	if diff := cmp.Diff(want, p.Courses); diff != "" {
		t.Errorf("courses mismatch (-want +got):\n%s", diff)
	}
	if p.Package.Label != "New package" {
		t.Errorf("package label = %q", p.Package.Label)
	}
}

func TestCourseIDs(t *testing.T) {
	d := mustAdd(t, Document{},
		packageNode("pkg"),
		courseNode("c5", 5, 1),
		termNode("t1", IncludedCourse{ID: 3}, IncludedCourse{ID: 5}),
		courseNode("unattached", 7, 1),
	)
	d = mustConnect(t, d, [2]string{"c5", "pkg"}, [2]string{"t1", "pkg"})

	ids, err := CourseIDs(d)
	if err != nil {
		t.Fatalf("CourseIDs failed: %v", err)
	}
	if diff := cmp.Diff([]int{3, 5}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	d := mustAdd(t, Document{},
		packageNode("pkg"),
		termNode("t1", IncludedCourse{ID: 3, Price: 12.5, Name: "Biology"}),
	)
	d = mustConnect(t, d, [2]string{"t1", "pkg"})

	data, err := Marshal(d)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if diff := cmp.Diff(d, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
	}{
		{"unknown type", `{"nodes":[{"id":"a","type":"blob"}]}`, ErrInvalidNode},
		{"empty id", `{"nodes":[{"id":"","type":"courseNode"}]}`, ErrInvalidNode},
		{"duplicate id", `{"nodes":[{"id":"a","type":"courseNode"},{"id":"a","type":"termNode"}]}`, ErrNodeExists},
		{"two packages", `{"nodes":[{"id":"a","type":"packageNode"},{"id":"b","type":"packageNode"}]}`, ErrPackageExists},
		{"dangling edge", `{"nodes":[{"id":"a","type":"courseNode"}],"edges":[{"id":"e","source":"a","target":"b"}]}`, ErrNodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tt.json)); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Unmarshal([]byte("{")); err == nil {
		t.Error("expected decode error")
	}
}
