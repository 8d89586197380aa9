// Package core hosts the essay organizer service: entity upserts, the
// essay/institution association, application status transitions, queries and
// import/export over a transactional store.
package core

import (
	"context"
	"io"
	"time"

	"essaycore/internal/blob"
	"essaycore/internal/infra/persistence/memory"
)

// Operation names used for tracing, metrics and audit.
const (
	opCreateEssay       = "create_essay"
	opUpdateEssay       = "update_essay"
	opDeleteEssay       = "delete_essay"
	opImportEssays      = "import_essays"
	opExportEssays      = "export_essays"
	opExportEssaysBlob  = "export_essays_blob"
	opCreateInstitution = "create_institution"
	opUpdateInstitution = "update_institution"
	opDeleteInstitution = "delete_institution"
	opSetStatus         = "set_status"
	opAssignEssay       = "assign_essay"
	opUnassignEssay     = "unassign_essay"
)

type auditTarget struct {
	entity EntityType
	action Action
}

// auditOperations lists the mutating operations that produce audit entries.
var auditOperations = map[string]auditTarget{
	opCreateEssay:       {EntityEssay, ActionCreate},
	opUpdateEssay:       {EntityEssay, ActionUpdate},
	opDeleteEssay:       {EntityEssay, ActionDelete},
	opImportEssays:      {EntityEssay, ActionCreate},
	opAssignEssay:       {EntityEssay, ActionUpdate},
	opUnassignEssay:     {EntityEssay, ActionUpdate},
	opCreateInstitution: {EntityInstitution, ActionCreate},
	opUpdateInstitution: {EntityInstitution, ActionUpdate},
	opDeleteInstitution: {EntityInstitution, ActionDelete},
	opSetStatus:         {EntityInstitution, ActionUpdate},
}

// Service exposes transactional operations over essays and institutions.
type Service struct {
	store   *MemoryStore
	clock   Clock
	logger  Logger
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
	blobs   blob.Store
	prefix  string
	loadErr error
}

// NewService constructs a service backed by the supplied store.
func NewService(store *MemoryStore, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	if store != nil {
		if now := store.NowFunc(); now != nil {
			o.clock = ClockFunc(now)
		}
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		store:   store,
		clock:   o.clock,
		logger:  o.logger,
		audit:   o.audit,
		metrics: o.metrics,
		tracer:  o.tracer,
		blobs:   o.blobs,
		prefix:  o.prefix,
	}
}

// NewInMemoryService creates a service over a fresh in-memory store. A nil
// engine selects NewDefaultRulesEngine. The service clock also drives store
// timestamps.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	store := NewMemoryStore(engine, memory.WithClock(o.clock.Now))
	return NewService(store, opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() *MemoryStore { return s.store }

// BlobStore returns the configured blob store, if any.
func (s *Service) BlobStore() blob.Store { return s.blobs }

// BlobPrefix returns the prefix applied to blob keys.
func (s *Service) BlobPrefix() string { return s.prefix }

// LoadError reports collections that failed to load when the service was
// opened from persistent storage. The service starts with whatever loaded.
func (s *Service) LoadError() error { return s.loadErr }

// Close releases the blob store when it holds resources.
func (s *Service) Close() error {
	if c, ok := s.blobs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// observe wraps op with tracing, metrics, logging and audit.
func (s *Service) observe(ctx context.Context, op string, fn func(context.Context) (string, Result, error)) (Result, error) {
	ctx, span := s.tracer.Start(ctx, op)
	started := time.Now()
	entityID, res, err := fn(ctx)
	duration := time.Since(started)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "entity_id", entityID, "error", err)
		s.recordAuditError(ctx, op, entityID, duration, err)
		return res, err
	}
	for _, w := range res.Warnings() {
		s.logger.Warn("rule warning", "operation", op, "rule", w.Rule, "entity_id", w.EntityID, "message", w.Message)
	}
	s.logger.Debug("operation completed", "operation", op, "entity_id", entityID, "duration", duration)
	s.recordAuditSuccess(ctx, op, entityID, duration)
	return res, nil
}

func (s *Service) recordAuditSuccess(ctx context.Context, op, entityID string, duration time.Duration) {
	s.recordAudit(ctx, op, entityID, duration, nil)
}

func (s *Service) recordAuditError(ctx context.Context, op, entityID string, duration time.Duration, err error) {
	s.recordAudit(ctx, op, entityID, duration, err)
}

func (s *Service) recordAudit(ctx context.Context, op, entityID string, duration time.Duration, err error) {
	target, ok := auditOperations[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    target.entity,
		Action:    target.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}
