package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/hupe1980/vecsight"
	"github.com/hupe1980/vecsight/aggregate"
	"github.com/hupe1980/vecsight/codec"
)

// DefaultMaxBodyBytes bounds request bodies.
const DefaultMaxBodyBytes = 64 << 20

var errNoSnapshot = errors.New("no snapshot published")

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	engine        *vecsight.Engine
	codec         codec.Codec
	logger        *slog.Logger
	referenceName string
	bucket        aggregate.Bucket
	maxBodyBytes  int64
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithReferenceName sets the blob name used when a retrain request asks to save.
func WithReferenceName(name string) HandlerOption {
	return func(h *Handler) { h.referenceName = name }
}

// WithDefaultBucket sets the time bucket used when a request names none.
func WithDefaultBucket(b aggregate.Bucket) HandlerOption {
	return func(h *Handler) { h.bucket = b }
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handler) { h.maxBodyBytes = n }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// NewHandler creates a Handler serving engine.
func NewHandler(engine *vecsight.Engine, opts ...HandlerOption) *Handler {
	h := &Handler{
		engine:        engine,
		codec:         engine.Codec(),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		referenceName: "reference.vsm",
		bucket:        aggregate.BucketWeek,
		maxBodyBytes:  DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleHealth handles GET /healthz requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if s, ok := h.engine.Current(); ok {
		resp.SnapshotVersion = s.Version
	}
	_, resp.ReferenceLoaded = h.engine.Reference()
	h.sendJSON(w, http.StatusOK, resp)
}

// HandleSnapshot handles GET /snapshot requests. ?points=false omits the
// per-row coordinates.
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	s, ok := h.engine.Current()
	if !ok {
		h.sendJSON(w, http.StatusNotFound, ErrorResponse{Error: errNoSnapshot.Error(), Kind: "no_snapshot"})
		return
	}
	withPoints := true
	if v := r.URL.Query().Get("points"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.sendJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid points parameter", Kind: "request"})
			return
		}
		withPoints = b
	}
	h.sendJSON(w, http.StatusOK, NewSnapshotResponse(s, withPoints))
}

// HandleOutliers handles GET /snapshot/outliers requests. ?flagged=true
// restricts the rows to outliers.
func (h *Handler) HandleOutliers(w http.ResponseWriter, r *http.Request) {
	s, ok := h.engine.Current()
	if !ok {
		h.sendJSON(w, http.StatusNotFound, ErrorResponse{Error: errNoSnapshot.Error(), Kind: "no_snapshot"})
		return
	}
	flagged, _ := strconv.ParseBool(r.URL.Query().Get("flagged"))
	h.sendJSON(w, http.StatusOK, NewOutliersResponse(s, flagged))
}

// HandleRebuild handles POST /rebuild requests.
func (h *Handler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	var req RebuildRequest
	if !h.decode(w, r, &req) {
		return
	}

	ds, err := h.engine.Ingest(r.Context(), req.Vectors, req.Metadata)
	if err != nil {
		h.sendError(w, err)
		return
	}
	snap, err := h.engine.Rebuild(r.Context(), ds)
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, NewSnapshotResponse(snap, false))
}

// HandleRetrain handles POST /reference/retrain requests.
func (h *Handler) HandleRetrain(w http.ResponseWriter, r *http.Request) {
	var req RetrainRequest
	if !h.decode(w, r, &req) {
		return
	}

	m, err := h.engine.RetrainReference(r.Context(), req.Vectors)
	if err != nil {
		h.sendError(w, err)
		return
	}
	resp := RetrainResponse{
		Points:       m.Len(),
		Dimension:    m.Dim(),
		K:            m.K(),
		Metric:       m.Metric().String(),
		Standardized: m.Standardized(),
	}
	if req.Save {
		if _, err := h.engine.SaveReference(r.Context(), h.referenceName); err != nil {
			h.sendError(w, err)
			return
		}
		resp.Saved = true
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// HandleListReferences handles GET /references requests.
func (h *Handler) HandleListReferences(w http.ResponseWriter, r *http.Request) {
	names, err := h.engine.ListReferences(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		h.sendError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	h.sendJSON(w, http.StatusOK, ReferencesResponse{References: names})
}

// HandleGetReference handles GET /references/{name} requests.
func (h *Handler) HandleGetReference(w http.ResponseWriter, r *http.Request) {
	man, err := h.engine.LoadManifest(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, man)
}

// HandleLoadReference handles POST /references/{name}/load requests.
func (h *Handler) HandleLoadReference(w http.ResponseWriter, r *http.Request) {
	m, err := h.engine.LoadReference(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, RetrainResponse{
		Points:       m.Len(),
		Dimension:    m.Dim(),
		K:            m.K(),
		Metric:       m.Metric().String(),
		Standardized: m.Standardized(),
		Saved:        true,
	})
}

// HandleDeleteReference handles DELETE /references/{name} requests.
func (h *Handler) HandleDeleteReference(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteReference(r.Context(), mux.Vars(r)["name"]); err != nil {
		h.sendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleScore handles POST /novelty/score requests.
func (h *Handler) HandleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if !h.decode(w, r, &req) {
		return
	}

	report, err := h.engine.Score(r.Context(), batches(req.Batches)...)
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, NewScoreResponse(report, h.engine.Classifier()))
}

// HandleMarkets handles POST /aggregates/markets requests.
func (h *Handler) HandleMarkets(w http.ResponseWriter, r *http.Request) {
	var req AggregateRequest
	if !h.decode(w, r, &req) {
		return
	}
	records, err := h.aggregateRecords(r, req)
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, NewMarketsResponse(h.engine.MarketReport(records)))
}

// HandleTime handles POST /aggregates/time requests.
func (h *Handler) HandleTime(w http.ResponseWriter, r *http.Request) {
	var req AggregateRequest
	if !h.decode(w, r, &req) {
		return
	}
	bucket := h.bucket
	if req.Bucket != "" {
		b, err := aggregate.ParseBucket(req.Bucket)
		if err != nil {
			h.sendJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "request"})
			return
		}
		bucket = b
	}
	records, err := h.aggregateRecords(r, req)
	if err != nil {
		h.sendError(w, err)
		return
	}
	h.sendJSON(w, http.StatusOK, NewTimeResponse(bucket, h.engine.TimeReport(records, bucket)))
}

func (h *Handler) aggregateRecords(r *http.Request, req AggregateRequest) ([]aggregate.Record, error) {
	switch {
	case len(req.Records) > 0:
		return req.records(), nil
	case len(req.Batches) > 0:
		report, err := h.engine.Score(r.Context(), batches(req.Batches)...)
		if err != nil {
			return nil, err
		}
		return aggregate.FromReport(report), nil
	default:
		s, ok := h.engine.Current()
		if !ok {
			return nil, errNoSnapshot
		}
		return vecsight.SnapshotRecords(s), nil
	}
}

// decode reads the request body into v. It writes a 400 response and
// returns false on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.sendJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error(), Kind: "request"})
		return false
	}
	if err := h.codec.Unmarshal(body, v); err != nil {
		h.sendJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON: " + err.Error(), Kind: "request"})
		return false
	}
	return true
}

func (h *Handler) sendError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNoSnapshot) {
		h.sendJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Kind: "no_snapshot"})
		return
	}
	status, kind := errorStatus(err)
	h.sendJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind})
}

// sendJSON writes a JSON response with the given status code.
func (h *Handler) sendJSON(w http.ResponseWriter, status int, v any) {
	data, err := h.codec.Marshal(v)
	if err != nil {
		h.logger.Error("encode response", slog.String("error", err.Error()))
		http.Error(w, fmt.Sprintf("encode response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
