// Package server exposes a vecsearch backend over HTTP/JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsearch/internal/domain"
	"github.com/kailas-cloud/vecsearch/internal/domain/index"
	"github.com/kailas-cloud/vecsearch/internal/domain/table"
	"github.com/kailas-cloud/vecsearch/internal/domain/topk"
	logpkg "github.com/kailas-cloud/vecsearch/internal/logger"
	"github.com/kailas-cloud/vecsearch/internal/metrics"
	"github.com/kailas-cloud/vecsearch/internal/transport/wire"
)

// maxBodyBytes caps request bodies; 64 MiB fits a few thousand 4k-dim rows.
const maxBodyBytes = 64 << 20

// Backend is the storage the server fronts.
//
//nolint:interfacebloat // one method per route
type Backend interface {
	Ping(ctx context.Context) error

	CreateTable(ctx context.Context, schema table.Schema) error
	HasTable(ctx context.Context, name string) (bool, error)
	DeleteTable(ctx context.Context, name string) error
	DescribeTable(ctx context.Context, name string) (table.Schema, error)
	CountTable(ctx context.Context, name string) (int64, error)
	ListTables(ctx context.Context) ([]string, error)

	Insert(ctx context.Context, name string, records [][]float32, ids []int64) ([]int64, error)
	Search(ctx context.Context, req *topk.Request) (*topk.Response, error)

	CreateIndex(ctx context.Context, p index.Param) error
	DescribeIndex(ctx context.Context, name string) (index.Param, error)
	DropIndex(ctx context.Context, name string) error
	PreloadTable(ctx context.Context, name string) error

	ServerVersion(ctx context.Context) (string, error)
	ServerStatus(ctx context.Context) (string, error)
}

// Server holds the HTTP handlers.
type Server struct {
	backend       Backend
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// New creates a Server over backend.
func New(backend Backend, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{backend: backend, logger: logger}
	s.errorHandlers = []errorHandler{
		statusHandler(http.StatusNotFound, domain.StatusTableNotExists, domain.StatusFileNotFound),
		statusHandler(http.StatusConflict, domain.StatusTableExists),
		statusHandler(http.StatusBadRequest,
			domain.StatusIllegalArgument, domain.StatusIllegalRange, domain.StatusIllegalDimension,
			domain.StatusIllegalIndexType, domain.StatusIllegalTableName, domain.StatusIllegalTopK,
			domain.StatusIllegalRowRecord, domain.StatusIllegalVectorID, domain.StatusIllegalNList,
			domain.StatusIllegalMetricType),
		statusHandler(http.StatusForbidden, domain.StatusPermissionDenied),
		statusHandler(http.StatusServiceUnavailable, domain.StatusConnectFailed),
	}
	return s
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Ping(r.Context()); err != nil {
		logpkg.FromContext(r.Context()).Warn("backend ping failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, wire.Status{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, wire.Status{Status: "ok"})
}

// Version handles GET /version.
func (s *Server) Version(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	v, err := s.backend.ServerVersion(r.Context())
	metrics.ObserveBackend("server_version", start, err)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.Version{Version: v})
}

// Status handles GET /status.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	st, err := s.backend.ServerStatus(r.Context())
	metrics.ObserveBackend("server_status", start, err)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.Status{Status: st})
}

// CreateTable handles POST /tables.
func (s *Server) CreateTable(w http.ResponseWriter, r *http.Request) {
	var req wire.TableSchema
	if !s.decode(w, r, &req) {
		return
	}
	schema, err := req.Schema()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	start := time.Now()
	err = s.backend.CreateTable(r.Context(), schema)
	metrics.ObserveBackend("create_table", start, err)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wire.FromSchema(schema))
}

// ListTables handles GET /tables.
func (s *Server) ListTables(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	names, err := s.backend.ListTables(r.Context())
	metrics.ObserveBackend("list_tables", start, err)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, wire.TableList{Tables: names})
}

// DescribeTable handles GET /tables/{table}.
func (s *Server) DescribeTable(w http.ResponseWriter, r *http.Request) {
	name, ok := s.tableParam(w, r)
	if !ok {
		return
	}
	start := time.Now()
	schema, err := s.backend.DescribeTable(r.Context(), name)
	metrics.ObserveBackend("describe_table", start, err)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromSchema(schema))
}

// DeleteTable handles DELETE /tables/{table}.
func (s *Server) DeleteTable(w http.ResponseWriter, r *http.Request) {
	name, ok := s.tableParam(w, r)
	if !ok {
		return
	}
	start := time.Now()
	err := s.backend.DeleteTable(r.Context(), name)
	metrics.ObserveBackend("delete_table", start, err)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CountTable handles GET /tables/{table}/count.
func (s *Server) CountTable(w http.ResponseWriter, r *http.Request) {
	name, ok := s.tableParam(w, r)
	if !ok {
		return
	}
	start := time.Now()
	n, err := s.backend.CountTable(r.Context(), name)
	metrics.ObserveBackend("count_table", start, err)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.Count{Count: n})
}

// Insert handles POST /tables/{table}/vectors.
func (s *Server) Insert(w http.ResponseWriter, r *http.Request) {
	name, ok := s.tableParam(w, r)
	if !ok {
		return
	}
	var req wire.InsertRequest
	if !s.decode(w, r, &req) {
		return
	}

	start := time.Now()
	ids, err := s.backend.Insert(r.Context(), name, req.Records, req.IDs)
	metrics.ObserveBackend("insert", start, err)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	metrics.RowsInsertedTotal.Add(float64(len(ids)))
	writeJSON(w, http.StatusCreated, wire.InsertResponse{IDs: ids})
}

// Search handles POST /tables/{table}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	name, ok := s.tableParam(w, r)
	if !ok {
		return
	}
	var body wire.SearchRequest
	if !s.decode(w, r, &body) {
		return
	}
	req, err := body.Request(name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	start := time.Now()
	resp, err := s.backend.Search(r.Context(), req)
	metrics.ObserveBackend("search", start, err)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	metrics.SearchQueriesTotal.Add(float64(len(req.Queries)))
	writeJSON(w, http.StatusOK, resp)
}

// PreloadTable handles POST /tables/{table}/preload.
func (s *Server) PreloadTable(w http.ResponseWriter, r *http.Request) {
	name, ok := s.tableParam(w, r)
	if !ok {
		return
	}
	start := time.Now()
	err := s.backend.PreloadTable(r.Context(), name)
	metrics.ObserveBackend("preload_table", start, err)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateIndex handles PUT /tables/{table}/index.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	name, ok := s.tableParam(w, r)
	if !ok {
		return
	}
	var body wire.IndexParam
	if !s.decode(w, r, &body) {
		return
	}
	p, err := body.Param(name)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	start := time.Now()
	err = s.backend.CreateIndex(r.Context(), p)
	metrics.ObserveBackend("create_index", start, err)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromIndex(p))
}

// DescribeIndex handles GET /tables/{table}/index.
func (s *Server) DescribeIndex(w http.ResponseWriter, r *http.Request) {
	name, ok := s.tableParam(w, r)
	if !ok {
		return
	}
	start := time.Now()
	p, err := s.backend.DescribeIndex(r.Context(), name)
	metrics.ObserveBackend("describe_index", start, err)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wire.FromIndex(p))
}

// DropIndex handles DELETE /tables/{table}/index.
func (s *Server) DropIndex(w http.ResponseWriter, r *http.Request) {
	name, ok := s.tableParam(w, r)
	if !ok {
		return
	}
	start := time.Now()
	err := s.backend.DropIndex(r.Context(), name)
	metrics.ObserveBackend("drop_index", start, err)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) tableParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	var name string
	err := runtime.BindStyledParameterWithOptions("simple", "table", chi.URLParam(r, "table"), &name,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.StatusIllegalTableName, "invalid table parameter: "+err.Error())
		return "", false
	}
	if err := table.ValidateName(name); err != nil {
		writeError(w, http.StatusBadRequest, domain.StatusIllegalTableName, err.Error())
		return "", false
	}
	return name, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, domain.StatusIllegalArgument, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, domain.StatusIllegalArgument, "invalid request body: "+err.Error())
		return false
	}
	return true
}
