package reports

import (
	"context"
	"time"
)

const DefaultWindow = 30 * 24 * time.Hour

type StoreAPI interface {
	TokenStats(ctx context.Context, since, now time.Time) (TokenStats, error)
	BatchStats(ctx context.Context, since time.Time) (BatchStats, error)
	CountJobRuns(ctx context.Context, filter JobRunFilter) (int, error)
	ListJobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, error)
}

type Service struct {
	Store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store, now: time.Now}
}

// Dashboard summarizes activity over the trailing window. A non-positive
// window uses DefaultWindow.
func (s *Service) Dashboard(ctx context.Context, window time.Duration) (Dashboard, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	now := s.now().UTC()
	since := now.Add(-window)
	tokens, err := s.Store.TokenStats(ctx, since, now)
	if err != nil {
		return Dashboard{}, err
	}
	batches, err := s.Store.BatchStats(ctx, since)
	if err != nil {
		return Dashboard{}, err
	}
	return Summarize(since, tokens, batches), nil
}

func (s *Service) JobRuns(ctx context.Context, filter JobRunFilter, limit, offset int) ([]JobRun, int, error) {
	total, err := s.Store.CountJobRuns(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	runs, err := s.Store.ListJobRuns(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}
