package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"patient-companion-server/internal/metrics"
)

// Searcher answers a free-text question.
type Searcher interface {
	Answer(ctx context.Context, query string) (string, error)
}

// SearchService answers the agent's free-text questions.
type SearchService struct {
	searcher Searcher
	metrics  *metrics.Collector
	log      *zap.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(searcher Searcher, m *metrics.Collector, log *zap.Logger) *SearchService {
	return &SearchService{searcher: searcher, metrics: m, log: log}
}

// Search returns the upstream answer verbatim.
func (s *SearchService) Search(ctx context.Context, query string) (string, error) {
	ctx, span := tracer.Start(ctx, "SearchService.Search")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return "", invalid("search_query: required")
	}

	answer, err := s.searcher.Answer(ctx, query)
	if err != nil {
		span.RecordError(err)
		s.metrics.UpstreamErrorsTotal.WithLabelValues("search").Inc()
		s.log.Error("search failed", zap.Error(err))
		return "", &UpstreamError{Service: "search", Err: err}
	}
	return answer, nil
}
