// Package roster holds the administrator-supplied whitelist of student ids.
// The roster is replaced wholesale on each successful import, never merged.
package roster

import (
	"context"
	"errors"
	"strings"
)

// Student is one whitelist entry: a unique id and the full name it belongs to.
type Student struct {
	ID       string `json:"student_id"`
	FullName string `json:"full_name"`
}

// ErrEmptyImport means an upload produced zero valid lines; the prior roster
// is kept unchanged.
var ErrEmptyImport = errors.New("no valid roster lines in import")

// Parse reads the newline-separated import format: "id,full name" per line,
// both fields trimmed. Lines with fewer than two comma-separated fields are
// silently skipped.
func Parse(input string) []Student {
	var students []Student
	for _, line := range strings.Split(input, "\n") {
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		students = append(students, Student{
			ID:       strings.TrimSpace(parts[0]),
			FullName: strings.TrimSpace(parts[1]),
		})
	}
	return students
}

// Repository persists the roster snapshot. Replace swaps the whole roster
// atomically.
type Repository interface {
	ListAll(ctx context.Context) ([]Student, error)
	Replace(ctx context.Context, students []Student) error
}

// Service wraps a repository with the import rules.
type Service struct {
	repo Repository
}

// NewService creates a roster service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Import parses the upload and replaces the roster. On ErrEmptyImport the
// existing roster is untouched.
func (s *Service) Import(ctx context.Context, input string) (int, error) {
	students := Parse(input)
	if len(students) == 0 {
		return 0, ErrEmptyImport
	}
	if err := s.repo.Replace(ctx, students); err != nil {
		return 0, err
	}
	return len(students), nil
}

// ListAll returns the current roster.
func (s *Service) ListAll(ctx context.Context) ([]Student, error) {
	return s.repo.ListAll(ctx)
}
