// Package editor provides package builder editing sessions.
//
// A Session owns the undo history of one builder document. Every edit is
// applied to a copy of the current document, package totals are
// recomputed, and the result is recorded as a single undo step.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/pkgbuilder/internal/builder"
	"github.com/dshills/pkgbuilder/internal/catalog"
	"github.com/dshills/pkgbuilder/internal/history"
	"github.com/dshills/pkgbuilder/internal/notify"
)

// Errors returned by session edits.
var (
	ErrInvalidDiscount = errors.New("discount percentage must be between 0 and 100")
	ErrWrongNodeType   = errors.New("operation not supported for node type")
	ErrNoCatalog       = errors.New("session has no catalog")
)

// Session is a single editing session over a builder document.
// A Session is meant to be driven by one caller at a time.
type Session struct {
	id      uuid.UUID
	history *history.Manager[builder.Document]
	catalog catalog.Catalog
	logger  zerolog.Logger
}

type sessionOptions struct {
	maxEntries int
	logger     zerolog.Logger
	initial    builder.Document
}

// Option configures a Session.
type Option func(*sessionOptions)

// WithMaxEntries sets the undo depth.
func WithMaxEntries(n int) Option {
	return func(o *sessionOptions) {
		o.maxEntries = n
	}
}

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *sessionOptions) {
		o.logger = l
	}
}

// WithDocument starts the session from doc instead of an empty canvas.
func WithDocument(doc builder.Document) Option {
	return func(o *sessionOptions) {
		o.initial = doc
	}
}

// NewSession creates a session reading term and grade contents from cat.
// cat may be nil, in which case connecting terms or grades does not fetch
// their courses.
func NewSession(cat catalog.Catalog, opts ...Option) *Session {
	o := sessionOptions{
		maxEntries: history.DefaultMaxEntries,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	initial, _ := builder.UpdatePackageTotals(o.initial.Clone())
	id := uuid.New()

	s := &Session{
		id: id,
		history: history.New(initial,
			history.WithMaxEntries[builder.Document](o.maxEntries),
			history.WithCmpOptions[builder.Document](cmpopts.EquateEmpty()),
		),
		catalog: cat,
		logger:  o.logger.With().Str("session", id.String()).Logger(),
	}

	s.logger.Debug().Int("max_entries", s.history.MaxEntries()).Msg("session opened")
	return s
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Document returns the current document.
func (s *Session) Document() builder.Document {
	return s.history.Current().Clone()
}

// History returns a snapshot of the undo timeline.
func (s *Session) History() history.State[builder.Document] {
	return s.history.State()
}

// Undo reverts the last edit. Does nothing when there is nothing to undo.
func (s *Session) Undo() {
	if !s.history.CanUndo() {
		return
	}
	s.history.Undo()
	s.logger.Debug().Int("undo", s.history.UndoCount()).Int("redo", s.history.RedoCount()).Msg("undo")
}

// Redo reapplies the last undone edit. Does nothing when there is nothing
// to redo.
func (s *Session) Redo() {
	if !s.history.CanRedo() {
		return
	}
	s.history.Redo()
	s.logger.Debug().Int("undo", s.history.UndoCount()).Int("redo", s.history.RedoCount()).Msg("redo")
}

// CanUndo returns true if undo is available.
func (s *Session) CanUndo() bool {
	return s.history.CanUndo()
}

// CanRedo returns true if redo is available.
func (s *Session) CanRedo() bool {
	return s.history.CanRedo()
}

// Subscribe registers an observer called after every document change.
func (s *Session) Subscribe(observer func(history.Change[builder.Document])) *notify.Subscription {
	return s.history.Subscribe(observer)
}

// Batch runs fn as one undo step. If fn fails, its edits are discarded.
func (s *Session) Batch(name string, fn func() error) error {
	return s.history.Transaction(name, fn)
}

// Load replaces the document and starts a fresh undo timeline.
func (s *Session) Load(doc builder.Document) error {
	if err := builder.Validate(doc); err != nil {
		return err
	}
	doc, _ = builder.UpdatePackageTotals(doc.Clone())
	s.history.Reset(doc)
	s.logger.Info().Int("nodes", len(doc.Nodes)).Int("edges", len(doc.Edges)).Msg("document loaded")
	return nil
}

// ReadFrom loads a JSON document from r.
func (s *Session) ReadFrom(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}
	doc, err := builder.Unmarshal(data)
	if err != nil {
		return err
	}
	return s.Load(doc)
}

// Save writes the current document to w as JSON.
func (s *Session) Save(w io.Writer) error {
	data, err := builder.Marshal(s.history.Current())
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

// AddPackage places the package node. A workspace holds one package.
func (s *Session) AddPackage(label string, pos builder.Position) (string, error) {
	if label == "" {
		label = "New package"
	}
	id := "package-" + uuid.NewString()[:8]
	node := builder.Node{
		ID:       id,
		Type:     builder.NodePackage,
		Position: pos,
		Data:     builder.NodeData{Label: label, IsRoot: true},
	}
	return id, s.add(node)
}

// AddCourse places a course node.
func (s *Session) AddCourse(c catalog.Course, pos builder.Position) (string, error) {
	id := "course-" + strconv.Itoa(c.ID)
	node := builder.Node{
		ID:       id,
		Type:     builder.NodeCourse,
		Position: pos,
		Data: builder.NodeData{
			Label:      c.Name,
			OriginalID: c.ID,
			Price:      c.Price,
			Hours:      c.Hours,
		},
	}
	return id, s.add(node)
}

// AddTerm places a term node. Its courses are fetched when it is connected.
func (s *Session) AddTerm(t catalog.Term, pos builder.Position) (string, error) {
	id := "term-" + strconv.Itoa(t.ID)
	node := builder.Node{
		ID:       id,
		Type:     builder.NodeTerm,
		Position: pos,
		Data:     builder.NodeData{Label: t.Name, OriginalID: t.ID},
	}
	return id, s.add(node)
}

// AddGrade places a grade node. Its courses are fetched when it is
// connected.
func (s *Session) AddGrade(g catalog.Grade, pos builder.Position) (string, error) {
	id := "grade-" + strconv.Itoa(g.ID)
	node := builder.Node{
		ID:       id,
		Type:     builder.NodeGrade,
		Position: pos,
		Data:     builder.NodeData{Label: g.Name, OriginalID: g.ID},
	}
	return id, s.add(node)
}

func (s *Session) add(node builder.Node) error {
	doc, err := builder.AddNode(s.history.Current(), node)
	if err != nil {
		return err
	}
	s.commit("add", doc)
	return nil
}

// Remove deletes a node and its edges.
func (s *Session) Remove(id string) error {
	doc, err := builder.RemoveNode(s.history.Current(), id)
	if err != nil {
		return err
	}
	s.commit("remove", doc)
	return nil
}

// Move repositions a node.
func (s *Session) Move(id string, pos builder.Position) error {
	doc, err := builder.MoveNode(s.history.Current(), id, pos)
	if err != nil {
		return err
	}
	s.commit("move", doc)
	return nil
}

// Rename changes a node's label.
func (s *Session) Rename(id, label string) error {
	doc, err := builder.UpdateNode(s.history.Current(), id, func(n *builder.Node) {
		n.Data.Label = label
	})
	if err != nil {
		return err
	}
	s.commit("rename", doc)
	return nil
}

// SetDiscount changes the discount of the package node.
func (s *Session) SetDiscount(id string, active bool, percentage float64) error {
	if percentage < 0 || percentage > 100 {
		return ErrInvalidDiscount
	}

	cur := s.history.Current()
	n, ok := cur.Node(id)
	if !ok {
		return fmt.Errorf("discount %s: %w", id, builder.ErrNodeNotFound)
	}
	if n.Type != builder.NodePackage {
		return fmt.Errorf("discount %s: %w", n.Type, ErrWrongNodeType)
	}

	doc, err := builder.UpdateNode(cur, id, func(n *builder.Node) {
		n.Data.IsDiscountActive = active
		n.Data.DiscountPercentage = percentage
		n.Data = builder.ApplyDiscount(n.Data)
	})
	if err != nil {
		return err
	}
	s.commit("discount", doc)
	return nil
}

// Connect wires source into target. When source is a term or grade, its
// courses are fetched from the catalog first so the package totals include
// them. A catalog failure is logged and the edge is still added.
func (s *Session) Connect(ctx context.Context, source, target string) error {
	doc, edge, err := builder.Connect(s.history.Current(), source, target)
	if err != nil {
		return err
	}

	src, _ := doc.Node(source)
	if src.Type == builder.NodeTerm || src.Type == builder.NodeGrade {
		summary, err := s.fetch(ctx, src)
		switch {
		case err == nil:
			doc, err = builder.UpdateNode(doc, source, func(n *builder.Node) {
				applySummary(&n.Data, summary)
			})
			if err != nil {
				return err
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			s.logger.Warn().Err(err).Str("node", source).Msg("failed to calculate totals")
		}
	}

	s.logger.Debug().Str("edge", edge.ID).Msg("connected")
	s.commit("connect", doc)
	return nil
}

func (s *Session) fetch(ctx context.Context, n builder.Node) (catalog.Summary, error) {
	if s.catalog == nil {
		return catalog.Summary{}, ErrNoCatalog
	}
	if n.Type == builder.NodeGrade {
		return catalog.GradeTotal(ctx, s.catalog, n.Data.OriginalID)
	}
	return catalog.TermTotal(ctx, s.catalog, n.Data.OriginalID)
}

func applySummary(data *builder.NodeData, summary catalog.Summary) {
	data.IsFetched = true
	data.CalculatedPrice = summary.TotalPrice
	data.CalculatedCount = summary.CoursesCount
	data.IncludedCourses = make([]builder.IncludedCourse, 0, len(summary.Courses))
	for _, c := range summary.Courses {
		data.IncludedCourses = append(data.IncludedCourses, builder.IncludedCourse{
			ID:      c.ID,
			Price:   c.Price,
			Name:    c.Name,
			Subject: c.Subject,
		})
	}
}

// Disconnect removes an edge.
func (s *Session) Disconnect(edgeID string) error {
	doc, err := builder.Disconnect(s.history.Current(), edgeID)
	if err != nil {
		return err
	}
	s.commit("disconnect", doc)
	return nil
}

// Preview returns the package preview of the current document.
func (s *Session) Preview() (builder.Preview, error) {
	return builder.PreviewOf(s.history.Current())
}

// commit recomputes package totals and records doc as the next step.
func (s *Session) commit(op string, doc builder.Document) {
	doc, _ = builder.UpdatePackageTotals(doc)
	s.history.Set(doc)
	s.logger.Debug().
		Str("op", op).
		Int("nodes", len(doc.Nodes)).
		Int("undo", s.history.UndoCount()).
		Msg("edit")
}
