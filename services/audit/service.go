package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vetnova/clinic-platform/models"
	"go.uber.org/zap"
)

// Sink accepts structured audit records for durable storage
type Sink interface {
	Write(ctx context.Context, event *models.AuditEvent) error
}

// Service builds audit events and routes them to sinks by severity.
// Emission is fire-and-forget: it never returns an error to the caller and
// never delays the request path. Critical/high events are written immediately
// in a detached goroutine (and surfaced on the high-visibility log channel);
// medium/low events go through a buffered worker pool and may be dropped when
// the buffer is full.
type Service struct {
	sink         Sink
	logger       *zap.Logger
	eventChan    chan *models.AuditEvent
	workerCount  int
	bufferSize   int
	writeTimeout time.Duration
	wg           sync.WaitGroup
	mu           sync.Mutex
	started      bool
}

// Config holds configuration for the audit Service
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  10000,
		WorkerCount: 5,
	}
}

// NewService creates a new audit Service
func NewService(sink Sink, logger *zap.Logger, config Config) *Service {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}
	return &Service{
		sink:         sink,
		logger:       logger,
		eventChan:    make(chan *models.AuditEvent, config.BufferSize),
		workerCount:  config.WorkerCount,
		bufferSize:   config.BufferSize,
		writeTimeout: 5 * time.Second,
	}
}

// Start starts the background workers for the standard (medium/low) path
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop gracefully stops the audit service, draining pending events.
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("audit service not started")
	}
	s.started = false
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", len(s.eventChan)))

	close(s.eventChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// Emit finalizes and routes an audit event. The event's ID and Timestamp are
// assigned here, never taken from the caller; an unset RiskLevel is filled in
// by the classifier. Emit never panics and never blocks on the sink.
func (s *Service) Emit(event *models.AuditEvent) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in audit emission", zap.Any("panic", r))
		}
	}()

	if event == nil {
		return
	}

	// Emission-time identity: callers never control id or timestamp.
	event.ID = uuid.New()
	event.Timestamp = time.Now().UTC()

	if event.RiskLevel == "" {
		event.RiskLevel = ClassifyRisk(event.EventType, event.Success, detailsMap(event))
	}

	if event.RiskLevel.AtLeast(models.RiskHigh) {
		s.emitHighVisibility(event)
		return
	}
	s.enqueue(event)
}

// emitHighVisibility writes critical/high events immediately in a detached
// goroutine and mirrors them onto the alerting log channel. The request is
// never blocked, but the sink write is not buffered either.
func (s *Service) emitHighVisibility(event *models.AuditEvent) {
	s.logHighVisibility(event)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic writing high-visibility audit event", zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		defer cancel()
		if err := s.sink.Write(ctx, event); err != nil {
			s.logger.Error("failed to write high-visibility audit event",
				zap.Error(err),
				zap.String("event_type", string(event.EventType)),
				zap.String("risk_level", string(event.RiskLevel)))
		}
	}()
}

func (s *Service) logHighVisibility(event *models.AuditEvent) {
	fields := []zap.Field{
		zap.String("audit_id", event.ID.String()),
		zap.String("event_type", string(event.EventType)),
		zap.String("risk_level", string(event.RiskLevel)),
		zap.String("ip_address", event.IPAddress),
		zap.String("endpoint", event.Endpoint),
		zap.String("method", event.Method),
		zap.Bool("success", event.Success),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.String()))
	}
	if event.TenantID != nil {
		fields = append(fields, zap.String("tenant_id", event.TenantID.String()))
	}

	if event.RiskLevel == models.RiskCritical {
		s.logger.Error("critical audit event", fields...)
		return
	}
	s.logger.Warn("high-risk audit event", fields...)
}

// enqueue sends a medium/low event to the worker pool without blocking.
// A full buffer drops the event with a warning; audit is best effort.
func (s *Service) enqueue(event *models.AuditEvent) {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	if !started {
		s.logger.Warn("audit service not started, dropping event",
			zap.String("event_type", string(event.EventType)))
		return
	}

	select {
	case s.eventChan <- event:
	default:
		s.logger.Warn("audit event buffer full, dropping event",
			zap.String("event_type", string(event.EventType)),
			zap.String("endpoint", event.Endpoint))
	}
}

// worker processes standard events from the channel
func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for event := range s.eventChan {
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		if err := s.sink.Write(ctx, event); err != nil {
			s.logger.Error("failed to write audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("event_type", string(event.EventType)))
		}
		cancel()
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

// Pending returns the number of buffered events awaiting a worker
func (s *Service) Pending() int {
	return len(s.eventChan)
}

func detailsMap(event *models.AuditEvent) map[string]interface{} {
	if len(event.Details) == 0 {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(event.Details, &m); err != nil {
		return nil
	}
	return m
}
