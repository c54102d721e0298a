package core

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"

	"recordcore/internal/infra/persistence/memory"
	"recordcore/pkg/record"
	"recordcore/pkg/schema"
)

// Service exposes transactional CRUD over registered models. Models are
// encoded into column-keyed envelopes, versioned optimistically, and
// checked against the rules engine on every commit.
type Service struct {
	store    record.PersistentStore
	registry *schema.Registry
	engine   *record.RulesEngine
	plugins  map[string]PluginMetadata
	logger   Logger
	metrics  MetricsRecorder
	tracer   Tracer
	now      func() time.Time
}

// Option customizes service construction.
type Option func(*Service)

// WithLogger attaches a structured logger.
func WithLogger(l Logger) Option { return func(s *Service) { s.logger = l } }

// WithMetrics attaches an operation metrics recorder.
func WithMetrics(m MetricsRecorder) Option { return func(s *Service) { s.metrics = m } }

// WithTracer attaches a span tracer.
func WithTracer(t Tracer) Option { return func(s *Service) { s.tracer = t } }

// WithClock overrides the time source, primarily for tests.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithRulesEngine hands the service the engine its store commits
// through, enabling plugin rule installation.
func WithRulesEngine(engine *record.RulesEngine) Option {
	return func(s *Service) { s.engine = engine }
}

// NewService constructs a service over an existing store and registry.
func NewService(store record.PersistentStore, registry *schema.Registry, opts ...Option) *Service {
	s := &Service{
		store:    store,
		registry: registry,
		plugins:  make(map[string]PluginMetadata),
		logger:   NopLogger{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService wires a memory store with the default rules engine.
func NewInMemoryService(registry *schema.Registry, opts ...Option) *Service {
	if registry == nil {
		registry = schema.NewRegistry()
	}
	engine := NewDefaultEngine(registry)
	store := memory.NewStore(engine)
	return NewService(store, registry, append([]Option{WithRulesEngine(engine)}, opts...)...)
}

// Store returns the underlying persistent store.
func (s *Service) Store() record.PersistentStore { return s.store }

// Registry returns the schema registry backing the service.
func (s *Service) Registry() *schema.Registry { return s.registry }

// RegisterModels scans and registers each model's schema.
func (s *Service) RegisterModels(models ...record.Model) error {
	for _, m := range models {
		if _, err := s.registry.Register(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) tableFor(model record.Model) (*schema.Table, error) {
	return s.registry.Register(model)
}

// observe wraps an operation with tracing, metrics and logging.
func (s *Service) observe(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	start := s.now()
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operation)
	}
	err := fn(ctx)
	if span != nil {
		span.End(err)
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err == nil, time.Since(start))
	}
	if err != nil {
		s.logger.Error("record operation failed", "operation", operation, "error", err)
	} else {
		s.logger.Debug("record operation", "operation", operation, "duration", time.Since(start))
	}
	return err
}

// checkConfirmations validates confirm-paired fields. A confirmation
// field is only checked when set, mirroring how password confirmations
// behave on partial updates.
func (s *Service) checkConfirmations(model record.Model, table *schema.Table) record.Result {
	var result record.Result
	rv := reflect.ValueOf(model)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	for _, pair := range table.Confirmations {
		confirm := rv.FieldByName(pair.Field)
		target := rv.FieldByName(pair.Target)
		if !confirm.IsValid() || !target.IsValid() || confirm.IsZero() {
			continue
		}
		if !reflect.DeepEqual(confirm.Interface(), target.Interface()) {
			result.Violations = append(result.Violations, record.Violation{
				Rule:     "confirmation",
				Severity: record.SeverityBlock,
				Message:  fmt.Sprintf("%s.%s does not match %s", table.Name, pair.Field, pair.Target),
				Table:    table.Name,
			})
		}
	}
	return result
}

// Create persists a new record. The model's Base receives the assigned
// id, timestamps and initial version.
func (s *Service) Create(ctx context.Context, model record.Model) (record.Result, error) {
	var result record.Result
	err := s.observe(ctx, "create", func(ctx context.Context) error {
		table, err := s.tableFor(model)
		if err != nil {
			return err
		}
		base, err := record.BaseOf(model)
		if err != nil {
			return err
		}
		if res := s.checkConfirmations(model, table); res.HasBlocking() {
			result = res
			return record.RuleViolationError{Result: res}
		}
		now := s.now()
		if base.ID == "" {
			base.ID = uuid.NewString()
		}
		base.CreatedAt = now
		base.UpdatedAt = now
		base.Version = 1
		payload, err := encodePayload(model, table)
		if err != nil {
			return err
		}
		res, err := s.store.RunInTransaction(ctx, func(tx record.Transaction) error {
			_, err := tx.Insert(record.Envelope{Table: table.Name, ID: base.ID, Version: base.Version, Payload: payload})
			return err
		})
		result.Merge(res)
		return err
	})
	return result, err
}

// Update persists the model's current field values. The stored version
// must match the model's; on success the model's version increments.
func (s *Service) Update(ctx context.Context, model record.Model) (record.Result, error) {
	var result record.Result
	err := s.observe(ctx, "update", func(ctx context.Context) error {
		table, err := s.tableFor(model)
		if err != nil {
			return err
		}
		base, err := record.BaseOf(model)
		if err != nil {
			return err
		}
		if base.ID == "" {
			return fmt.Errorf("update %s: record was never created", table.Name)
		}
		if res := s.checkConfirmations(model, table); res.HasBlocking() {
			result = res
			return record.RuleViolationError{Result: res}
		}
		expected := base.Version
		base.UpdatedAt = s.now()
		base.Version = expected + 1
		payload, err := encodePayload(model, table)
		if err != nil {
			base.Version = expected
			return err
		}
		res, err := s.store.RunInTransaction(ctx, func(tx record.Transaction) error {
			_, err := tx.Update(table.Name, base.ID, expected, payload)
			return err
		})
		result.Merge(res)
		if err != nil {
			base.Version = expected
		}
		return err
	})
	return result, err
}

// Delete removes the record, enforcing the model's version.
func (s *Service) Delete(ctx context.Context, model record.Model) (record.Result, error) {
	var result record.Result
	err := s.observe(ctx, "delete", func(ctx context.Context) error {
		table, err := s.tableFor(model)
		if err != nil {
			return err
		}
		base, err := record.BaseOf(model)
		if err != nil {
			return err
		}
		res, err := s.store.RunInTransaction(ctx, func(tx record.Transaction) error {
			return tx.Delete(table.Name, base.ID, base.Version)
		})
		result.Merge(res)
		return err
	})
	return result, err
}

// Find hydrates dest with the stored record identified by id.
func (s *Service) Find(ctx context.Context, dest record.Model, id string) error {
	return s.observe(ctx, "find", func(ctx context.Context) error {
		table, err := s.tableFor(dest)
		if err != nil {
			return err
		}
		env, ok := s.store.Get(table.Name, id)
		if !ok {
			return fmt.Errorf("%s/%s: %w", table.Name, id, record.ErrNotFound)
		}
		return decodePayload(env.Payload, dest, table)
	})
}

// List returns all envelopes of the model's table sorted by id.
func (s *Service) List(ctx context.Context, model record.Model) ([]record.Envelope, error) {
	var envs []record.Envelope
	err := s.observe(ctx, "list", func(ctx context.Context) error {
		table, err := s.tableFor(model)
		if err != nil {
			return err
		}
		envs = s.store.List(table.Name)
		sort.Slice(envs, func(i, j int) bool { return envs[i].ID < envs[j].ID })
		return nil
	})
	return envs, err
}

// Find hydrates a typed record by id.
func Find[T any, PT interface {
	record.Model
	*T
}](ctx context.Context, s *Service, id string) (T, error) {
	var item T
	err := s.Find(ctx, PT(&item), id)
	return item, err
}

// List returns all records of a table as typed values sorted by id.
func List[T any, PT interface {
	record.Model
	*T
}](ctx context.Context, s *Service) ([]T, error) {
	var zero T
	envs, err := s.List(ctx, PT(&zero))
	if err != nil {
		return nil, err
	}
	table, err := s.tableFor(PT(&zero))
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(envs))
	for _, env := range envs {
		var item T
		if err := decodePayload(env.Payload, PT(&item), table); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
