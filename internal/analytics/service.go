// Package analytics implements the read-only reporting pipelines: overview,
// monthly, category, trends, comparison, forecast and custom reports. Every
// pipeline derives its result from the transaction store and memoizes it in
// an optional process-local cache.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/calc"
	"fintrack/internal/core"
	logx "fintrack/internal/log"
	"fintrack/internal/store"
)

// Service runs the analytics pipelines for one store.
type Service struct {
	store  store.Reader
	cache  *cache.Store // nil disables memoization
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used for default windows and cache TTLs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Service. c may be nil.
func New(r store.Reader, c *cache.Store, opts ...Option) *Service {
	s := &Service{
		store:  r,
		cache:  c,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logx.FieldComponent, logx.ComponentAnalytics)
	return s
}

// Invalidate drops every cached result belonging to userID and returns the
// number of entries removed.
func (s *Service) Invalidate(userID string) int {
	if s.cache == nil {
		return 0
	}
	n := s.cache.DeletePattern(cache.UserPattern(userID))
	s.logger.Debug("Invalidated analytics cache", logx.FieldUserID, userID, logx.FieldCount, n)
	return n
}

// ttlFor picks a cache lifetime: closed windows change only through
// back-dated writes, so they live longer than windows still accumulating.
func (s *Service) ttlFor(r calc.DateRange) time.Duration {
	if r.End.Before(s.now()) {
		return cache.TTLLong
	}
	return cache.TTLShort
}

// resolveRange fills missing bounds with the current calendar month.
func (s *Service) resolveRange(start, end time.Time) (calc.DateRange, error) {
	month := calc.CurrentMonth(s.now())
	r := calc.DateRange{Start: start, End: end}
	if r.Start.IsZero() {
		r.Start = month.Start
	}
	if r.End.IsZero() {
		r.End = month.End
	}
	if r.End.Before(r.Start) {
		return calc.DateRange{}, core.Invalid("end date %s is before start date %s",
			r.End.Format(time.RFC3339), r.Start.Format(time.RFC3339))
	}
	return r, nil
}

func requireUser(userID string) error {
	if userID == "" {
		return core.Invalid("user id is required")
	}
	return nil
}

// memo runs compute through the cache and logs how long a miss took.
func memo[T any](ctx context.Context, s *Service, pipeline, userID, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	return cache.GetOrSet(ctx, s.cache, key, ttl, func(ctx context.Context) (T, error) {
		start := time.Now()
		v, err := compute(ctx)
		if err != nil {
			return v, fmt.Errorf("%s: %w", pipeline, err)
		}
		s.logger.DebugContext(ctx, "Computed analytics",
			logx.FieldPipeline, pipeline,
			logx.FieldUserID, userID,
			logx.FieldCacheKey, key,
			logx.FieldDuration, time.Since(start).Milliseconds())
		return v, nil
	})
}

// categoryIndex loads the user's categories keyed by id.
func (s *Service) categoryIndex(ctx context.Context, userID string) (map[string]core.Category, error) {
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	idx := make(map[string]core.Category, len(cats))
	for _, c := range cats {
		idx[c.ID] = c
	}
	return idx, nil
}

// categoryRef resolves display fields for id, falling back to the id itself.
func categoryRef(idx map[string]core.Category, id string) CategoryRef {
	c, ok := idx[id]
	if !ok {
		return CategoryRef{ID: id, Name: id}
	}
	return CategoryRef{ID: c.ID, Name: c.Name, Icon: c.Icon, Color: c.Color, Type: c.Type}
}
