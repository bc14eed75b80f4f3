// Package catalog provides the course catalog read by the package builder.
//
// A Catalog answers which courses belong to a term and which terms belong
// to a grade. Memory is an in-process catalog that can be loaded from a
// TOML file and reloaded when the file changes (see Watcher).
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Common errors for catalog lookups.
var (
	ErrTermNotFound  = errors.New("term not found")
	ErrGradeNotFound = errors.New("grade not found")
)

// Course is a purchasable course.
type Course struct {
	ID      int     `toml:"id"`
	Name    string  `toml:"name"`
	Subject string  `toml:"subject"`
	Price   float64 `toml:"price"`
	Hours   float64 `toml:"hours"`
	TermID  int     `toml:"term_id"`
}

// Term is a semester within a grade.
type Term struct {
	ID      int    `toml:"id"`
	Name    string `toml:"name"`
	GradeID int    `toml:"grade_id"`
}

// Grade is a school year.
type Grade struct {
	ID   int    `toml:"id"`
	Name string `toml:"name"`
}

// Data is the on-disk catalog layout.
type Data struct {
	Grades  []Grade  `toml:"grades"`
	Terms   []Term   `toml:"terms"`
	Courses []Course `toml:"courses"`
}

// Catalog looks up courses and terms.
type Catalog interface {
	// Courses returns the courses of a term ordered by id.
	Courses(ctx context.Context, termID int) ([]Course, error)

	// Terms returns the terms of a grade ordered by id.
	Terms(ctx context.Context, gradeID int) ([]Term, error)
}

// ParseError reports a malformed catalog file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing catalog %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Memory is a Catalog held in memory. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	grades  map[int]Grade
	terms   map[int]Term
	courses map[int][]Course // by term
	byGrade map[int][]Term
}

// NewMemory builds a catalog from data.
func NewMemory(data Data) (*Memory, error) {
	m := &Memory{}
	if err := m.Replace(data); err != nil {
		return nil, err
	}
	return m, nil
}

// Parse decodes TOML catalog data.
func Parse(source string, raw []byte) (Data, error) {
	var data Data
	if err := toml.Unmarshal(raw, &data); err != nil {
		return Data{}, &ParseError{Path: source, Err: err}
	}
	return data, nil
}

// LoadFile reads a TOML catalog file.
func LoadFile(path string) (*Memory, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return NewMemory(data)
}

// ReloadFile re-reads path and replaces the catalog contents.
// On error the current contents are kept.
func (m *Memory) ReloadFile(path string) error {
	data, err := readFile(path)
	if err != nil {
		return err
	}
	return m.Replace(data)
}

func readFile(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return Parse(path, raw)
}

// Replace swaps the catalog contents after checking references.
func (m *Memory) Replace(data Data) error {
	grades := make(map[int]Grade, len(data.Grades))
	for _, g := range data.Grades {
		if _, dup := grades[g.ID]; dup {
			return fmt.Errorf("duplicate grade id %d", g.ID)
		}
		grades[g.ID] = g
	}

	terms := make(map[int]Term, len(data.Terms))
	byGrade := make(map[int][]Term)
	for _, t := range data.Terms {
		if _, dup := terms[t.ID]; dup {
			return fmt.Errorf("duplicate term id %d", t.ID)
		}
		if _, ok := grades[t.GradeID]; !ok {
			return fmt.Errorf("term %d: grade %d: %w", t.ID, t.GradeID, ErrGradeNotFound)
		}
		terms[t.ID] = t
		byGrade[t.GradeID] = append(byGrade[t.GradeID], t)
	}

	courses := make(map[int][]Course)
	seen := make(map[int]bool, len(data.Courses))
	for _, c := range data.Courses {
		if seen[c.ID] {
			return fmt.Errorf("duplicate course id %d", c.ID)
		}
		seen[c.ID] = true
		if _, ok := terms[c.TermID]; !ok {
			return fmt.Errorf("course %d: term %d: %w", c.ID, c.TermID, ErrTermNotFound)
		}
		courses[c.TermID] = append(courses[c.TermID], c)
	}

	for _, list := range byGrade {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	for _, list := range courses {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.grades = grades
	m.terms = terms
	m.courses = courses
	m.byGrade = byGrade
	return nil
}

// Courses returns the courses of a term.
func (m *Memory) Courses(ctx context.Context, termID int) ([]Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.terms[termID]; !ok {
		return nil, fmt.Errorf("term %d: %w", termID, ErrTermNotFound)
	}
	return append([]Course(nil), m.courses[termID]...), nil
}

// Terms returns the terms of a grade.
func (m *Memory) Terms(ctx context.Context, gradeID int) ([]Term, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.grades[gradeID]; !ok {
		return nil, fmt.Errorf("grade %d: %w", gradeID, ErrGradeNotFound)
	}
	return append([]Term(nil), m.byGrade[gradeID]...), nil
}

// Term returns a term by id.
func (m *Memory) Term(id int) (Term, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.terms[id]
	return t, ok
}

// Grade returns a grade by id.
func (m *Memory) Grade(id int) (Grade, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.grades[id]
	return g, ok
}

// Course returns a course by id.
func (m *Memory) Course(id int) (Course, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, list := range m.courses {
		for _, c := range list {
			if c.ID == id {
				return c, true
			}
		}
	}
	return Course{}, false
}
