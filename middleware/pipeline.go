package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vetnova/clinic-platform/models"
	"github.com/vetnova/clinic-platform/services"
	"github.com/vetnova/clinic-platform/services/audit"
	"github.com/vetnova/clinic-platform/utils"
	"go.uber.org/zap"
)

// AuditLevel selects the emitter variant used for the post-handler audit record
type AuditLevel string

const (
	AuditStandard  AuditLevel = "standard"
	AuditSensitive AuditLevel = "sensitive"
	AuditAdmin     AuditLevel = "admin"
)

// Handler is a domain handler invoked by the pipeline. It writes its own
// response through w and returns an error only for faults it could not handle;
// such errors are logged as security events and answered with a sanitized 500.
type Handler func(w http.ResponseWriter, r *http.Request, rc *RequestContext) error

// Authenticator resolves the principal and tenant behind a request
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (*services.AuthContext, error)
}

// Options configures one wrapped handler. Every recognized key and its effect
// is explicit; the zero value means: authentication required, no schemas,
// standard audit tier.
type Options struct {
	// AllowAnonymous skips the authentication gate. Auth is required by default.
	AllowAnonymous bool

	// QuerySchema, when set, produces a fresh struct the query parameters are
	// decoded and validated into. Validation failure responds 400.
	QuerySchema func() interface{}

	// BodySchema, when set, produces a fresh struct the JSON body is decoded
	// and validated into. Skipped for GET/HEAD/DELETE, which carry no
	// semantic body.
	BodySchema func() interface{}

	// ResourceType tags the post-handler audit record
	ResourceType string

	// AuditLevel selects the audit emitter variant. Empty means standard.
	AuditLevel AuditLevel

	// RequireTenant treats an authenticated principal without a tenant as a
	// configuration error (500), not a normal failure.
	RequireTenant bool

	// RequireUser treats a missing resolved user as a configuration error (500)
	RequireUser bool

	// RequireRole, when set, rejects authenticated principals whose role does
	// not match with a 403 and a permission_denied audit record.
	RequireRole models.UserRole
}

// Pipeline composes authentication, validation, handler invocation, audit
// emission and response instrumentation into one request/response cycle.
// It holds no cross-request mutable state; everything per-request lives in
// the RequestContext.
type Pipeline struct {
	auth       Authenticator
	audit      *audit.Service
	logger     *zap.Logger
	production bool
}

// NewPipeline creates a new Pipeline
func NewPipeline(auth Authenticator, auditService *audit.Service, logger *zap.Logger, production bool) *Pipeline {
	return &Pipeline{
		auth:       auth,
		audit:      auditService,
		logger:     logger,
		production: production,
	}
}

// Secure wraps a domain handler with the full request pipeline. The steps are
// strictly sequential and short-circuit on first failure: authenticate,
// validate query, validate body, invoke, audit, respond. Every response,
// success or failure, carries X-Response-Time.
func (p *Pipeline) Secure(h Handler, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tw := newTimingWriter(w)
		ctx := r.Context()
		rc := &RequestContext{}

		// Step 1: authenticate
		if !opts.AllowAnonymous {
			authCtx, err := p.auth.Authenticate(ctx, r)
			if err != nil {
				// No user id is available on a failed gate; the record still
				// carries the network identity.
				info := audit.ExtractRequestInfo(r, nil, nil)
				p.audit.LogSecurityEvent(info, models.EventPermissionDenied, false, map[string]interface{}{
					"reason": "authentication failed",
				})
				_ = utils.WriteUnauthorized(tw, "Authentication required")
				return
			}
			rc.User = authCtx.User
			rc.Clinic = authCtx.Clinic

			if opts.RequireUser && rc.User == nil {
				p.failConfiguration(tw, r, rc, services.ErrUserMissing)
				return
			}
			if opts.RequireTenant && rc.Clinic == nil {
				p.failConfiguration(tw, r, rc, services.ErrTenantMissing)
				return
			}
			if opts.RequireRole != "" && (rc.User == nil || rc.User.Role != opts.RequireRole) {
				info := audit.ExtractRequestInfo(r, rc.UserID(), rc.TenantID())
				p.audit.LogSecurityEvent(info, models.EventPermissionDenied, false, map[string]interface{}{
					"required_role": string(opts.RequireRole),
				})
				_ = utils.WriteForbidden(tw, "")
				return
			}
		}

		info := audit.ExtractRequestInfo(r, rc.UserID(), rc.TenantID())

		// Step 2: validate query
		if opts.QuerySchema != nil {
			query := opts.QuerySchema()
			if err := utils.DecodeAndValidateQuery(r.URL.Query(), query); err != nil {
				_ = utils.WriteBadRequest(tw, "Invalid query parameters", validationDetails(err))
				return
			}
			rc.Query = query
		}

		// Step 3: validate body (GET/HEAD/DELETE carry no semantic body)
		if opts.BodySchema != nil && methodHasBody(r.Method) {
			body := opts.BodySchema()
			if err := utils.DecodeAndValidateBody(r, body); err != nil {
				_ = utils.WriteBadRequest(tw, "Invalid request body", validationDetails(err))
				return
			}
			rc.Body = body
		}

		// Step 4: invoke
		if err := p.invoke(h, tw, r, rc); err != nil {
			// Step 7: uncaught handler error. The security event is the one
			// thing guaranteed to happen even when the response is minimal.
			fault := fmt.Errorf("%w: %v", services.ErrHandlerFault, err)
			p.audit.LogSecurityEvent(info, models.EventSecurityEvent, false, map[string]interface{}{
				"error": fault.Error(),
			})
			p.logger.Error("handler fault",
				zap.String("endpoint", r.URL.Path),
				zap.String("method", r.Method),
				zap.Error(err))
			_ = utils.WriteInternalServerError(tw, p.faultMessage(fault))
			return
		}

		// Step 5: audit the completed request
		p.emitAccessAudit(info, r, opts, tw.Status() < http.StatusBadRequest)
	}
}

// TenantScoped wraps a handler that must always run with a resolved tenant.
// A tenant-less authenticated principal is a configuration error and surfaces
// as a 500, never as a silent cross-tenant request.
func (p *Pipeline) TenantScoped(h Handler, opts Options) http.HandlerFunc {
	opts.AllowAnonymous = false
	opts.RequireTenant = true
	return p.Secure(h, opts)
}

// Admin wraps a handler whose invocations are audited at the admin tier
func (p *Pipeline) Admin(h Handler, opts Options) http.HandlerFunc {
	opts.AllowAnonymous = false
	opts.AuditLevel = AuditAdmin
	opts.RequireRole = models.RoleAdmin
	return p.Secure(h, opts)
}

// SensitiveData wraps a handler over PII or medical data: every invocation
// produces a mandatory high-risk audit record, and a missing resolved user is
// a configuration error.
func (p *Pipeline) SensitiveData(h Handler, opts Options) http.HandlerFunc {
	opts.AllowAnonymous = false
	opts.AuditLevel = AuditSensitive
	opts.RequireUser = true
	return p.Secure(h, opts)
}

// invoke calls the handler, converting panics into errors at the pipeline
// boundary.
func (p *Pipeline) invoke(h Handler, w http.ResponseWriter, r *http.Request, rc *RequestContext) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h(w, r, rc)
}

// failConfiguration handles missing-tenant/missing-user wiring defects:
// always logged as security events, always a sanitized 500.
func (p *Pipeline) failConfiguration(w http.ResponseWriter, r *http.Request, rc *RequestContext, cfgErr *services.DomainError) {
	info := audit.ExtractRequestInfo(r, rc.UserID(), rc.TenantID())
	p.audit.LogSecurityEvent(info, models.EventSecurityEvent, false, map[string]interface{}{
		"error": cfgErr.Message,
	})
	p.logger.Error("pipeline configuration error",
		zap.String("endpoint", r.URL.Path),
		zap.String("error", cfgErr.Message))
	_ = utils.WriteInternalServerError(w, p.faultMessage(cfgErr))
}

// faultMessage keeps diagnostic detail out of production responses
func (p *Pipeline) faultMessage(err error) string {
	if p.production {
		return "Internal server error"
	}
	return err.Error()
}

// emitAccessAudit emits the post-handler audit record, routed through the
// emitter variant the audit level selects.
func (p *Pipeline) emitAccessAudit(info audit.RequestInfo, r *http.Request, opts Options, success bool) {
	accessType := accessEventForMethod(r.Method)
	resourceID := chi.URLParam(r, "id")

	switch opts.AuditLevel {
	case AuditSensitive:
		p.audit.LogSensitiveDataAccess(info, accessType, success, opts.ResourceType, resourceID)
	case AuditAdmin:
		p.audit.LogAdminAction(info, fmt.Sprintf("%s %s", r.Method, opts.ResourceType), success, map[string]interface{}{
			"access_type": accessType,
			"resource_id": resourceID,
		})
	default:
		p.audit.LogDataAccessEvent(info, accessType, success, opts.ResourceType, resourceID)
	}
}

// accessEventForMethod maps an HTTP verb to its data-access event type
func accessEventForMethod(method string) models.EventType {
	switch method {
	case http.MethodPost:
		return models.EventDataCreate
	case http.MethodPut, http.MethodPatch:
		return models.EventDataUpdate
	case http.MethodDelete:
		return models.EventDataDelete
	default:
		return models.EventDataAccess
	}
}

// methodHasBody reports whether the verb carries a semantic request body
func methodHasBody(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return false
	default:
		return true
	}
}

// validationDetails extracts per-field messages from a validation error
func validationDetails(err error) map[string]interface{} {
	fields := utils.GetValidationFields(err)
	if fields == nil {
		return map[string]interface{}{"error": err.Error()}
	}
	details := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return details
}

// timingWriter stamps X-Response-Time on every response and records the
// status code for the audit step. The header must be set before the first
// byte of the response is written.
type timingWriter struct {
	http.ResponseWriter
	start       time.Time
	status      int
	wroteHeader bool
}

func newTimingWriter(w http.ResponseWriter) *timingWriter {
	return &timingWriter{
		ResponseWriter: w,
		start:          time.Now(),
	}
}

// WriteHeader implements http.ResponseWriter
func (w *timingWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.Header().Set("X-Response-Time", fmt.Sprintf("%dms", time.Since(w.start).Milliseconds()))
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// Write implements http.ResponseWriter
func (w *timingWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Status returns the recorded response status, defaulting to 200 when the
// handler wrote nothing explicit.
func (w *timingWriter) Status() int {
	if !w.wroteHeader {
		return http.StatusOK
	}
	return w.status
}
