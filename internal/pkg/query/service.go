// Package query runs filter requests against the current inventory snapshot.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/endorses/routefilter/internal/pkg/filtering"
	"github.com/endorses/routefilter/internal/pkg/inventory"
	"github.com/endorses/routefilter/internal/pkg/logger"
	"github.com/endorses/routefilter/internal/pkg/routing"
)

// UnknownKindError is returned for a record kind without a filter set.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown record kind %q (expected one of: %s)", e.Kind, strings.Join(routing.Kinds(), ", "))
}

// Result is the outcome of one query
type Result struct {
	Kind    string
	Records []filtering.Record
	Total   int      // records of this kind in the snapshot
	Filters []string // compiled filters in evaluation order

	// Snapshot is the inventory the query ran against. It resolves the
	// references of the returned records.
	Snapshot *inventory.Snapshot
}

// Service answers filter queries. Metrics may be nil.
type Service struct {
	Store   *inventory.Store
	Metrics *Metrics
}

// NewService creates a query service
func NewService(store *inventory.Store, metrics *Metrics) *Service {
	return &Service{Store: store, Metrics: metrics}
}

// Query applies req to the records of kind in the current snapshot.
func (s *Service) Query(ctx context.Context, kind string, req filtering.Request) (*Result, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set, ok := routing.ForKind(kind)
	if !ok {
		s.Metrics.ObserveQuery("unknown", OutcomeInvalid, time.Since(start), 0)
		return nil, &UnknownKindError{Kind: kind}
	}

	snap := s.Store.Snapshot()
	m, err := filtering.Compile(req, set, snap)
	if err != nil {
		s.Metrics.ObserveQuery(kind, outcome(err), time.Since(start), 0)
		logger.DebugContext(ctx, "query rejected", "kind", kind, "error", err)
		return nil, err
	}

	records := snap.Records(kind)
	matched := filtering.Select(records, m)

	if err := ctx.Err(); err != nil {
		s.Metrics.ObserveQuery(kind, OutcomeError, time.Since(start), 0)
		return nil, err
	}

	elapsed := time.Since(start)
	s.Metrics.ObserveQuery(kind, OutcomeOK, elapsed, len(matched))
	logger.DebugContext(ctx, "query evaluated",
		"kind", kind,
		"filters", m.Filters(),
		"total", len(records),
		"matches", len(matched),
		"duration", elapsed)

	return &Result{
		Kind:     kind,
		Records:  matched,
		Total:    len(records),
		Filters:  m.Filters(),
		Snapshot: snap,
	}, nil
}

// IsInvalid reports whether err is caused by the request itself: an unknown
// kind, an unknown filter or a value that cannot be coerced.
func IsInvalid(err error) bool {
	var unknownKind *UnknownKindError
	var unknownFilter *filtering.UnknownFilterError
	var coercion *filtering.CoercionError
	return errors.As(err, &unknownKind) ||
		errors.As(err, &unknownFilter) ||
		errors.As(err, &coercion)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case IsInvalid(err):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}
