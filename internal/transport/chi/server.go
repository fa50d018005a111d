package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sitekit/internal/dataset"
	"github.com/kailas-cloud/sitekit/internal/domain"
	dombatch "github.com/kailas-cloud/sitekit/internal/domain/batch"
	domcat "github.com/kailas-cloud/sitekit/internal/domain/catalog"
	domcompletion "github.com/kailas-cloud/sitekit/internal/domain/completion"
	"github.com/kailas-cloud/sitekit/internal/domain/search/category"
	logpkg "github.com/kailas-cloud/sitekit/internal/logger"
	"github.com/kailas-cloud/sitekit/internal/session"
	catalogsvc "github.com/kailas-cloud/sitekit/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/sitekit/internal/usecase/health"
)

// LegacyCompletionPath is the string-only completion entry point kept for old pages.
const LegacyCompletionPath = "/functions/getChatGptResponse"

// maxBodyBytes bounds request bodies; imports of MaxBatchSize items fit comfortably.
const maxBodyBytes = 8 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Completer produces a chat completion for a prompt.
type Completer interface {
	GetCompletion(ctx context.Context, prompt string) domcompletion.Result
}

// Catalog imports and reads items.
type Catalog interface {
	Import(ctx context.Context, in []catalogsvc.ItemInput) ([]dombatch.Result, error)
	Get(ctx context.Context, id string) (domcat.Item, error)
	Delete(ctx context.Context, id string) error
}

// Pages creates and looks up page sessions.
type Pages interface {
	Create(ctx context.Context) (*session.Session, error)
	Get(id string) (*session.Session, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the sitekit HTTP API.
type Server struct {
	completions   Completer
	catalog       Catalog
	pages         Pages
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	completions Completer,
	catalog Catalog,
	pages Pages,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		completions: completions,
		catalog:     catalog,
		pages:       pages,
		health:      health,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrInvalidItem, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidEvent, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrUnknownCategory, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrBatchTooLarge, http.StatusRequestEntityTooLarge, codeBatchTooLarge),
	}
	return s
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Post(LegacyCompletionPath, s.LegacyCompletion)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/completions", s.CreateCompletion)

		r.Get("/categories", s.ListCategories)

		r.Post("/items", s.ImportItems)
		r.Get("/items/{id}", s.GetItem)
		r.Delete("/items/{id}", s.DeleteItem)

		r.Post("/pages", s.CreatePage)
		r.Post("/pages/{id}/events", s.DispatchEvent)
		r.Get("/pages/{id}/results", s.GetResults)
	})
}

// Handler returns a router with all endpoints mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Routes(r)
	return r
}

// CreateCompletion handles POST /api/v1/completions.
// Provider failures are part of the tagged body, so the status is 200 once the body decodes.
func (s *Server) CreateCompletion(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if !s.decode(w, r, &req) {
		return
	}

	res := s.completions.GetCompletion(r.Context(), req.Prompt)
	writeJSON(w, http.StatusOK, completionToResponse(res))
}

// LegacyCompletion handles POST /functions/getChatGptResponse.
func (s *Server) LegacyCompletion(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if !s.decode(w, r, &req) {
		return
	}

	res := s.completions.GetCompletion(r.Context(), req.Prompt)
	writeJSON(w, http.StatusOK, legacyCompletionResponse{Result: res.String()})
}

// ListCategories handles GET /api/v1/categories.
func (s *Server) ListCategories(w http.ResponseWriter, _ *http.Request) {
	all := category.All()
	items := make([]categoryResponse, len(all))
	for i, c := range all {
		f, _ := c.Field()
		items[i] = categoryResponse{Name: string(c), Field: f}
	}
	writeJSON(w, http.StatusOK, categoryListResponse{Items: items})
}

// ImportItems handles POST /api/v1/items.
func (s *Server) ImportItems(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "items must not be empty")
		return
	}

	results, err := s.catalog.Import(r.Context(), req.Items)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]batchResultItem, len(results))
	for i, res := range results {
		items[i] = batchResultToResponse(res)
	}
	succeeded, failed := dombatch.Count(results)

	writeJSON(w, http.StatusOK, importResponse{
		Items:     items,
		Succeeded: succeeded,
		Failed:    failed,
	})
}

// GetItem handles GET /api/v1/items/{id}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	it, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemToResponse(it))
}

// DeleteItem handles DELETE /api/v1/items/{id}.
func (s *Server) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.catalog.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreatePage handles POST /api/v1/pages.
func (s *Server) CreatePage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.pages.Create(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pageResponse{
		ID:       sess.Page.ID,
		Input:    sess.Page.Input.Value(),
		Category: sess.Page.Category.Value(),
		Options:  sess.Page.Category.Options(),
		View:     snapshotToResponse(sess.Page.Results.View()),
	})
}

// DispatchEvent handles POST /api/v1/pages/{id}/events.
func (s *Server) DispatchEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	r = r.WithContext(logpkg.ContextWithLogger(r.Context(), s.log(r).With(zap.String("page_id", id))))

	sess, err := s.pages.Get(id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var req eventRequest
	if !s.decode(w, r, &req) {
		return
	}

	snap, err := sess.Dispatch(r.Context(), session.Event{
		Type:     req.Type,
		Key:      req.Key,
		Input:    req.Input,
		Category: req.Category,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotToResponse(snap))
}

// GetResults handles GET /api/v1/pages/{id}/results.
func (s *Server) GetResults(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	sess, err := s.pages.Get(id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotToResponse(sess.Page.Results.View()))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// pathID binds the {id} path parameter, writing 400 on failure.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := pathParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid format for parameter id: "+err.Error())
		return "", false
	}
	return id, true
}

// pathParam binds a simple-style path parameter the way generated OpenAPI handlers do.
// chi routes on RawPath when the request has one, so its segments are escaped only then;
// decoded segments are re-escaped to keep a literal '%' intact.
func pathParam(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		raw = url.PathEscape(raw)
	}
	var v string
	if err := runtime.BindStyledParameterWithLocation("simple", false, name, runtime.ParamLocationPath, raw, &v); err != nil {
		return "", err
	}
	return v, nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidItem,
		domain.ErrInvalidEvent,
		domain.ErrUnknownCategory,
		domain.ErrBatchTooLarge,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// log returns the request-scoped logger when the request carries one.
func (s *Server) log(r *http.Request) *zap.Logger {
	return logpkg.FromContextOr(r.Context(), s.logger)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := s.log(r)
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func completionToResponse(r domcompletion.Result) completionResponse {
	if r.OK() {
		return completionResponse{Status: statusOK, Content: r.Text()}
	}
	return completionResponse{
		Status:  statusError,
		Kind:    string(r.Kind()),
		Message: r.Message(),
	}
}

func itemToResponse(it domcat.Item) itemResponse {
	return itemResponse{
		ID:          it.ID(),
		Title:       it.Title(),
		SKUs:        it.SKUs(),
		Description: it.Description(),
		MfgPartNos:  it.MfgPartNos(),
	}
}

func snapshotToResponse(snap dataset.Snapshot) viewResponse {
	items := make([]itemResponse, len(snap.Items))
	for i, it := range snap.Items {
		items[i] = itemToResponse(it)
	}
	var f *filterResponse
	if !snap.Filter.IsEmpty() {
		f = &filterResponse{
			Op:    string(snap.Filter.Op()),
			Field: snap.Filter.Field(),
			Value: snap.Filter.Value(),
		}
	}
	return viewResponse{
		Filter:   f,
		Items:    items,
		Total:    snap.Total,
		Revision: snap.Revision,
	}
}

func batchResultToResponse(r dombatch.Result) batchResultItem {
	item := batchResultItem{
		ID:     r.ID(),
		Status: string(r.Status()),
	}
	if r.Err() != nil {
		item.Error = &errorResponse{
			Code:    batchErrorCode(r.Err()),
			Message: batchErrorMessage(r.Err()),
		}
	}
	return item
}

func batchErrorCode(err error) errorCode {
	if errors.Is(err, domain.ErrInvalidItem) {
		return codeValidationFailed
	}
	return codeInternalError
}

// batchErrorMessage keeps validation detail (it only echoes the caller's input) and hides the rest.
func batchErrorMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidItem) {
		return err.Error()
	}
	return safeDomainMessage(err)
}
