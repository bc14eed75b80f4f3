package catalog

import (
	"context"
	"fmt"
)

// Summary is the folded price of every course under a term or grade.
type Summary struct {
	TotalPrice   float64
	CoursesCount int
	Courses      []Course
}

// TermTotal sums the courses of a term.
func TermTotal(ctx context.Context, cat Catalog, termID int) (Summary, error) {
	courses, err := cat.Courses(ctx, termID)
	if err != nil {
		return Summary{}, err
	}

	var s Summary
	for _, c := range courses {
		s.add(c)
	}
	return s, nil
}

// GradeTotal sums the courses of every term in a grade.
func GradeTotal(ctx context.Context, cat Catalog, gradeID int) (Summary, error) {
	terms, err := cat.Terms(ctx, gradeID)
	if err != nil {
		return Summary{}, err
	}

	var s Summary
	for _, t := range terms {
		courses, err := cat.Courses(ctx, t.ID)
		if err != nil {
			return Summary{}, fmt.Errorf("grade %d: %w", gradeID, err)
		}
		for _, c := range courses {
			s.add(c)
		}
	}
	return s, nil
}

func (s *Summary) add(c Course) {
	s.TotalPrice += c.Price
	s.CoursesCount++
	s.Courses = append(s.Courses, c)
}
