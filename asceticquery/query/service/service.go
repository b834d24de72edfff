package service

import (
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/logger"
	query "github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain/inmemory"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain/operators"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/query/domain/planner"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/schema"
	"github.com/krew-solutions/ascetic-query-go/asceticquery/session"
)

// StoreEngine is the engine that evaluates the persisted part of a query.
type StoreEngine interface {
	Query(s session.Session, q query.Query) ([]any, error)
	Count(s session.Session, q query.Query) (int64, error)
}

// ResultTransformer post-processes the final result list. Its output is returned as is.
type ResultTransformer func(result []any) []any

func Identity(result []any) []any {
	return result
}

func Discard([]any) []any {
	return []any{}
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

func WithPlanner(p *planner.Planner) Option {
	return func(s *Service) {
		s.planner = p
	}
}

// WithMaxPageSize caps maxResults of every query; zero disables the cap.
func WithMaxPageSize(n int) Option {
	return func(s *Service) {
		s.maxPageSize = n
	}
}

// Service runs a query on the store and finishes in memory what the store cannot evaluate.
type Service struct {
	planner     *planner.Planner
	store       StoreEngine
	memory      *inmemory.Engine
	maxPageSize int
	logger      *slog.Logger
}

// capable stores tell the planner which restrictions they can evaluate.
type capable interface {
	Supports(op operators.Operator, path []schema.Property) bool
}

// New plans with the store's Supports when it has one, unless WithPlanner is given.
func New(store StoreEngine, opts ...Option) *Service {
	s := &Service{
		store:  store,
		memory: inmemory.New(),
	}
	for i := range opts {
		opts[i](s)
	}
	if s.planner == nil {
		var capability planner.Capability
		if c, ok := store.(capable); ok {
			capability = c.Supports
		}
		s.planner = planner.New(capability)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s
}

func (s *Service) Query(sess session.Session, q query.Query) ([]any, error) {
	return s.QueryWith(sess, q, Identity)
}

// QueryWith runs q and hands the final page to transform.
func (s *Service) QueryWith(sess session.Session, q query.Query, transform ResultTransformer) ([]any, error) {
	q = s.clamp(q)
	log := s.logger.With("execution", ulid.Make().String(), "schema", q.Schema().Name())
	plan, err := s.planner.Plan(q)
	if err != nil {
		return nil, err
	}
	log.Debug("query planned", "store", plan.Store.String(), "memory", plan.NeedsMemory())

	result, err := s.store.Query(sess, plan.Store)
	if err != nil {
		return nil, err
	}
	if plan.NeedsMemory() {
		if result, err = s.evaluate(sess, plan, result); err != nil {
			return nil, err
		}
		log.Debug("memory evaluated", "criteria", plan.MemoryCriteria, "orders", plan.MemoryOrders, "rows", len(result))
	}
	if transform != nil {
		result = transform(result)
	}
	return result, nil
}

// Count counts q without pagination. A query with a memory part is counted after filtering.
func (s *Service) Count(sess session.Session, q query.Query) (int64, error) {
	q = q.WithoutPagination()
	plan, err := s.planner.Plan(q)
	if err != nil {
		return 0, err
	}
	if !plan.MemoryCriteria {
		return s.store.Count(sess, plan.Store)
	}
	result, err := s.store.Query(sess, plan.Store)
	if err != nil {
		return 0, err
	}
	plan.Memory = plan.Memory.WithOrders()
	result, err = s.evaluate(sess, plan, result)
	if err != nil {
		return 0, err
	}
	return int64(len(result)), nil
}

func (s *Service) evaluate(sess session.Session, plan planner.Plan, entities []any) ([]any, error) {
	if (plan.MemoryCriteria || plan.MemoryOrders) && plan.Memory.Schema().HasHydrator() {
		if err := plan.Memory.Schema().Hydrate(sess, entities); err != nil {
			return nil, errors.Wrapf(err, "hydrate %s", plan.Memory.Schema().Name())
		}
	}
	return s.memory.Execute(entities, plan.Memory, plan.PaginateInMemory)
}

func (s *Service) clamp(q query.Query) query.Query {
	if s.maxPageSize <= 0 {
		return q
	}
	return q.WithPagination(q.FirstResult(), q.MaxResults().Min(query.Limit(s.maxPageSize)))
}

// QueryAs runs q and converts every entity to T.
func QueryAs[T any](s *Service, sess session.Session, q query.Query) ([]T, error) {
	result, err := s.Query(sess, q)
	if err != nil {
		return nil, err
	}
	typed := make([]T, 0, len(result))
	for _, entity := range result {
		t, ok := entity.(T)
		if !ok {
			return nil, fmt.Errorf("%s returned %T", q.Schema().Name(), entity)
		}
		typed = append(typed, t)
	}
	return typed, nil
}
