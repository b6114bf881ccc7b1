package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetnova/clinic-platform/models"
	"github.com/vetnova/clinic-platform/services"
	"github.com/vetnova/clinic-platform/services/audit"
	"github.com/vetnova/clinic-platform/utils"
	"go.uber.org/zap"
)

// stubAuthenticator returns a fixed auth context or error
type stubAuthenticator struct {
	authCtx *services.AuthContext
	err     error
}

func (s *stubAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*services.AuthContext, error) {
	return s.authCtx, s.err
}

// recordingSink collects audit events written by the pipeline's audit service
type recordingSink struct {
	mu     sync.Mutex
	events []*models.AuditEvent
}

func (s *recordingSink) Write(ctx context.Context, event *models.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Events() []*models.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSink) CountByType(eventType models.EventType) int {
	n := 0
	for _, e := range s.Events() {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

type pipelineFixture struct {
	pipeline *Pipeline
	sink     *recordingSink
	audit    *audit.Service
}

func newPipelineFixture(t *testing.T, authenticator Authenticator, production bool) *pipelineFixture {
	t.Helper()
	sink := &recordingSink{}
	auditSvc := audit.NewService(sink, zap.NewNop(), audit.Config{BufferSize: 64, WorkerCount: 1})
	require.NoError(t, auditSvc.Start())
	t.Cleanup(func() { _ = auditSvc.Stop(time.Second) })

	return &pipelineFixture{
		pipeline: NewPipeline(authenticator, auditSvc, zap.NewNop(), production),
		sink:     sink,
		audit:    auditSvc,
	}
}

func authenticatedStub() *stubAuthenticator {
	user := &models.User{ID: uuid.New(), Role: models.RoleStaff}
	clinic := &models.Clinic{ID: uuid.New()}
	user.ClinicID = clinic.ID
	return &stubAuthenticator{authCtx: &services.AuthContext{User: user, Clinic: clinic}}
}

func okHandler(w http.ResponseWriter, r *http.Request, rc *RequestContext) error {
	return utils.WriteOK(w, map[string]string{"status": "ok"})
}

func TestPipeline_AuthenticationGate(t *testing.T) {
	t.Run("failed auth responds 401 and skips the handler", func(t *testing.T) {
		fx := newPipelineFixture(t, &stubAuthenticator{err: services.ErrAuthenticationRequired}, false)

		invoked := false
		h := fx.pipeline.Secure(func(w http.ResponseWriter, r *http.Request, rc *RequestContext) error {
			invoked = true
			return nil
		}, Options{})

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("GET", "/api/v1/appointments", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, invoked)

		// permission_denied is critical and written out of band
		require.Eventually(t, func() bool {
			return fx.sink.CountByType(models.EventPermissionDenied) == 1
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("anonymous routes skip the gate", func(t *testing.T) {
		fx := newPipelineFixture(t, &stubAuthenticator{err: services.ErrAuthenticationRequired}, false)

		h := fx.pipeline.Secure(okHandler, Options{AllowAnonymous: true})
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("GET", "/api/v1/public/hours", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("authenticated request reaches the handler with context", func(t *testing.T) {
		auth := authenticatedStub()
		fx := newPipelineFixture(t, auth, false)

		var got *RequestContext
		h := fx.pipeline.Secure(func(w http.ResponseWriter, r *http.Request, rc *RequestContext) error {
			got = rc
			return utils.WriteOK(w, nil)
		}, Options{})

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("GET", "/api/v1/appointments", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, got)
		assert.Equal(t, auth.authCtx.User.ID, got.User.ID)
		assert.Equal(t, auth.authCtx.Clinic.ID, got.Clinic.ID)
	})
}

type echoQuery struct {
	Limit int `query:"limit" validate:"omitempty,gte=1,lte=100"`
}

type echoBody struct {
	Name string `json:"name" validate:"required,min=3"`
}

func TestPipeline_Validation(t *testing.T) {
	t.Run("invalid query responds 400", func(t *testing.T) {
		fx := newPipelineFixture(t, authenticatedStub(), false)

		h := fx.pipeline.Secure(okHandler, Options{
			QuerySchema: func() interface{} { return &echoQuery{} },
		})

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("GET", "/api/v1/appointments?limit=9999", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("valid query is coerced and attached", func(t *testing.T) {
		fx := newPipelineFixture(t, authenticatedStub(), false)

		var limit int
		h := fx.pipeline.Secure(func(w http.ResponseWriter, r *http.Request, rc *RequestContext) error {
			limit = rc.Query.(*echoQuery).Limit
			return utils.WriteOK(w, nil)
		}, Options{QuerySchema: func() interface{} { return &echoQuery{} }})

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("GET", "/api/v1/appointments?limit=25", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 25, limit)
	})

	t.Run("malformed body responds 400", func(t *testing.T) {
		fx := newPipelineFixture(t, authenticatedStub(), false)

		h := fx.pipeline.Secure(okHandler, Options{
			BodySchema: func() interface{} { return &echoBody{} },
		})

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("POST", "/api/v1/things", strings.NewReader(`{"name":`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown body fields are rejected", func(t *testing.T) {
		fx := newPipelineFixture(t, authenticatedStub(), false)

		h := fx.pipeline.Secure(okHandler, Options{
			BodySchema: func() interface{} { return &echoBody{} },
		})

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("POST", "/api/v1/things", strings.NewReader(`{"name":"abc","typo":1}`)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("body schema is skipped for GET and DELETE", func(t *testing.T) {
		fx := newPipelineFixture(t, authenticatedStub(), false)

		h := fx.pipeline.Secure(okHandler, Options{
			BodySchema: func() interface{} { return &echoBody{} },
		})

		for _, method := range []string{"GET", "DELETE"} {
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(method, "/api/v1/things", nil))
			assert.Equal(t, http.StatusOK, w.Code, method)
		}
	})
}

func TestPipeline_HandlerFaults(t *testing.T) {
	t.Run("handler error responds 500 with one security event", func(t *testing.T) {
		fx := newPipelineFixture(t, authenticatedStub(), false)

		h := fx.pipeline.Secure(func(w http.ResponseWriter, r *http.Request, rc *RequestContext) error {
			return errors.New("records table missing")
		}, Options{})

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("GET", "/api/v1/appointments", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "records table missing",
			"development responses carry the diagnostic")
		assert.Contains(t, w.Body.String(), services.ErrHandlerFault.Message,
			"handler errors surface as handler faults")

		require.NoError(t, fx.audit.Stop(time.Second))
		assert.Equal(t, 1, fx.sink.CountByType(models.EventSecurityEvent))
		assert.Equal(t, 0, fx.sink.CountByType(models.EventDataAccess),
			"no access audit after a fault")
	})

	t.Run("production responses are sanitized", func(t *testing.T) {
		fx := newPipelineFixture(t, authenticatedStub(), true)

		h := fx.pipeline.Secure(func(w http.ResponseWriter, r *http.Request, rc *RequestContext) error {
			return errors.New("records table missing")
		}, Options{})

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("GET", "/api/v1/appointments", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "records table missing")
		assert.Contains(t, w.Body.String(), "Internal server error")
	})

	t.Run("handler panic becomes a 500", func(t *testing.T) {
		fx := newPipelineFixture(t, authenticatedStub(), true)

		h := fx.pipeline.Secure(func(w http.ResponseWriter, r *http.Request, rc *RequestContext) error {
			panic("nil map write")
		}, Options{})

		w := httptest.NewRecorder()
		assert.NotPanics(t, func() {
			h(w, httptest.NewRequest("GET", "/api/v1/appointments", nil))
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestPipeline_ConfigurationErrors(t *testing.T) {
	t.Run("tenant scoped without clinic responds 500", func(t *testing.T) {
		user := &models.User{ID: uuid.New(), Role: models.RoleStaff}
		authenticator := &stubAuthenticator{authCtx: &services.AuthContext{User: user}}
		fx := newPipelineFixture(t, authenticator, true)

		invoked := false
		h := fx.pipeline.TenantScoped(func(w http.ResponseWriter, r *http.Request, rc *RequestContext) error {
			invoked = true
			return nil
		}, Options{})

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("GET", "/api/v1/appointments", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.False(t, invoked)

		require.NoError(t, fx.audit.Stop(time.Second))
		assert.Equal(t, 1, fx.sink.CountByType(models.EventSecurityEvent))
	})
}

func TestPipeline_AdminTier(t *testing.T) {
	t.Run("non-admin role responds 403 with permission denied audit", func(t *testing.T) {
		fx := newPipelineFixture(t, authenticatedStub(), false)

		invoked := false
		h := fx.pipeline.Admin(func(w http.ResponseWriter, r *http.Request, rc *RequestContext) error {
			invoked = true
			return nil
		}, Options{})

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("GET", "/api/v1/admin/audit-events", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, invoked)

		require.Eventually(t, func() bool {
			return fx.sink.CountByType(models.EventPermissionDenied) == 1
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("admin request emits an admin action audit", func(t *testing.T) {
		admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
		clinic := &models.Clinic{ID: uuid.New()}
		fx := newPipelineFixture(t, &stubAuthenticator{
			authCtx: &services.AuthContext{User: admin, Clinic: clinic},
		}, false)

		h := fx.pipeline.Admin(okHandler, Options{ResourceType: "audit_event"})

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("GET", "/api/v1/admin/audit-events", nil))

		assert.Equal(t, http.StatusOK, w.Code)

		// Admin audits are high risk and written out of band
		require.Eventually(t, func() bool {
			return fx.sink.CountByType(models.EventAdminAction) == 1
		}, 2*time.Second, 10*time.Millisecond)
	})
}

func TestPipeline_AccessAudit(t *testing.T) {
	t.Run("successful read emits data access", func(t *testing.T) {
		fx := newPipelineFixture(t, authenticatedStub(), false)

		h := fx.pipeline.Secure(okHandler, Options{ResourceType: "appointment"})
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("GET", "/api/v1/appointments", nil))

		require.NoError(t, fx.audit.Stop(time.Second))
		events := fx.sink.Events()
		require.Len(t, events, 1)
		assert.Equal(t, models.EventDataAccess, events[0].EventType)
		assert.Equal(t, "appointment", events[0].Resource)
		assert.True(t, events[0].Success)
	})

	t.Run("POST maps to data create", func(t *testing.T) {
		fx := newPipelineFixture(t, authenticatedStub(), false)

		h := fx.pipeline.Secure(func(w http.ResponseWriter, r *http.Request, rc *RequestContext) error {
			return utils.WriteCreated(w, nil)
		}, Options{ResourceType: "appointment"})
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("POST", "/api/v1/appointments", strings.NewReader(`{}`)))

		require.NoError(t, fx.audit.Stop(time.Second))
		events := fx.sink.Events()
		require.Len(t, events, 1)
		assert.Equal(t, models.EventDataCreate, events[0].EventType)
	})

	t.Run("handler written 4xx records failure", func(t *testing.T) {
		fx := newPipelineFixture(t, authenticatedStub(), false)

		h := fx.pipeline.Secure(func(w http.ResponseWriter, r *http.Request, rc *RequestContext) error {
			return utils.WriteNotFound(w, "")
		}, Options{ResourceType: "appointment"})
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("GET", "/api/v1/appointments", nil))

		require.NoError(t, fx.audit.Stop(time.Second))
		events := fx.sink.Events()
		require.Len(t, events, 1)
		assert.False(t, events[0].Success)
	})

	t.Run("sensitive tier forces a high risk record", func(t *testing.T) {
		fx := newPipelineFixture(t, authenticatedStub(), false)

		h := fx.pipeline.SensitiveData(okHandler, Options{ResourceType: "medical_record"})
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest("GET", "/api/v1/records/abc", nil))

		require.Eventually(t, func() bool {
			return fx.sink.CountByType(models.EventSensitiveDataAccess) == 1
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, models.RiskHigh, fx.sink.Events()[0].RiskLevel)
	})
}

func TestPipeline_ResponseTiming(t *testing.T) {
	fx := newPipelineFixture(t, authenticatedStub(), false)

	h := fx.pipeline.Secure(okHandler, Options{})
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/api/v1/appointments", nil))

	timing := w.Header().Get("X-Response-Time")
	require.NotEmpty(t, timing)
	assert.True(t, strings.HasSuffix(timing, "ms"), "timing renders as whole milliseconds")
}
