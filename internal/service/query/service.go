package query

import (
	"context"
	"time"
)

// Service implements the dashboard queries.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a query service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetClock replaces the clock used for default periods (useful for testing).
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) today() time.Time {
	t := s.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// readAll pages through fetch until a short page comes back.
func readAll[T any](ctx context.Context, fetch func(ctx context.Context, limit, offset int) ([]T, error)) ([]T, error) {
	var out []T
	for offset := 0; ; offset += PageSize {
		page, err := fetch(ctx, PageSize, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < PageSize {
			return out, nil
		}
	}
}
