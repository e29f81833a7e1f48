// Package handlers provides the HTTP handlers of the conversion API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fhirhub/fhirhub/internal/api/middleware"
	"github.com/fhirhub/fhirhub/internal/conversion"
	fhir "github.com/fhirhub/fhirhub/internal/fhir/r4"
	"github.com/fhirhub/fhirhub/internal/infrastructure/postgres"
	"github.com/fhirhub/fhirhub/internal/infrastructure/redpanda"
	"github.com/fhirhub/fhirhub/internal/observability/metrics"
	"github.com/fhirhub/fhirhub/internal/terminology"
)

// maxMessageSize bounds the request body; HL7 v2 messages are small,
// anything larger is not one.
const maxMessageSize = 1 << 20

// ConvertHandler exposes the conversion endpoints.
type ConvertHandler struct {
	engine  *conversion.Engine
	store   *postgres.ConversionStore
	term    terminology.Provider
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewConvertHandler creates a handler.
func NewConvertHandler(engine *conversion.Engine, store *postgres.ConversionStore, term terminology.Provider, m *metrics.Metrics, logger *zap.Logger) *ConvertHandler {
	return &ConvertHandler{
		engine:  engine,
		store:   store,
		term:    term,
		metrics: m,
		logger:  logger,
	}
}

// Routes returns the handler routes.
func (h *ConvertHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/convert", h.Convert)
	r.Get("/conversions", h.List)
	r.Get("/conversions/{id}", h.Get)
	r.Get("/stats", h.Stats)
	return r
}

// ConvertResponse is the response body of a successful conversion.
type ConvertResponse struct {
	ID            string         `json:"id"`
	MessageType   string         `json:"messageType"`
	ControlID     string         `json:"controlId"`
	ResourceCount int            `json:"resourceCount"`
	Warnings      []string       `json:"warnings,omitempty"`
	Bundle        map[string]any `json:"bundle"`
}

// Convert handles POST /convert: the raw HL7 v2 message comes in the
// request body, the FHIR transaction bundle goes out. Completed
// conversions are logged with their outbox events in one transaction.
func (h *ConvertHandler) Convert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("convert-handler")
	ctx, span := tracer.Start(ctx, "convert_message")
	defer span.End()

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize))
	if err != nil {
		h.jsonError(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	start := time.Now()
	res, err := h.engine.Convert(string(raw))
	if err != nil {
		h.metrics.ConversionsFailed.Inc()
		h.logConversionFailure(ctx, err)
		h.operationOutcome(w, err)
		return
	}
	h.metrics.ConversionDuration.Observe(time.Since(start).Seconds())
	h.metrics.MessagesConverted.WithLabelValues(res.MessageType).Inc()
	h.metrics.MappingWarnings.Add(float64(len(res.Warnings)))
	h.countResources(res.Bundle)

	h.validateCodings(ctx, res)

	conversionID, _ := res.Bundle["id"].(string)
	if conversionID == "" {
		conversionID = uuid.New().String()
	}
	span.SetAttributes(
		attribute.String("conversion_id", conversionID),
		attribute.String("message_type", res.MessageType),
		attribute.Int("resources", res.ResourceCount),
	)

	if err := h.saveConversion(ctx, conversionID, res); err != nil {
		h.logger.Error("failed to persist conversion",
			zap.String("id", conversionID),
			zap.Error(err))
		h.jsonError(w, "failed to persist conversion", http.StatusInternalServerError)
		return
	}

	h.logger.Info("message converted",
		zap.String("id", conversionID),
		zap.String("message_type", res.MessageType),
		zap.String("control_id", res.ControlID),
		zap.Int("resources", res.ResourceCount),
		zap.String("request_id", middleware.GetRequestID(ctx)),
	)

	resp := ConvertResponse{
		ID:            conversionID,
		MessageType:   res.MessageType,
		ControlID:     res.ControlID,
		ResourceCount: res.ResourceCount,
		Warnings:      res.Warnings,
		Bundle:        res.Bundle,
	}

	w.Header().Set("Content-Type", "application/fhir+json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Get handles GET /conversions/{id}.
func (h *ConvertHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	rec, err := h.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, postgres.ErrConversionNotFound) {
			h.jsonError(w, "conversion not found", http.StatusNotFound)
			return
		}
		h.jsonError(w, "failed to load conversion", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

// List handles GET /conversions with limit/offset paging.
func (h *ConvertHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	recs, err := h.store.List(ctx, limit, offset)
	if err != nil {
		h.jsonError(w, "failed to list conversions", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []*postgres.ConversionRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"conversions": recs,
		"count":       len(recs),
	})
}

// Stats handles GET /stats.
func (h *ConvertHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		h.jsonError(w, "failed to load stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// saveConversion writes the record plus the bundle and audit events in
// one transaction; the outbox relay publishes them afterwards.
func (h *ConvertHandler) saveConversion(ctx context.Context, id string, res *conversion.Result) error {
	bundle, err := json.Marshal(res.Bundle)
	if err != nil {
		return err
	}

	audit, _ := json.Marshal(map[string]any{
		"conversionId":  id,
		"messageType":   res.MessageType,
		"controlId":     res.ControlID,
		"status":        postgres.StatusCompleted,
		"resourceCount": res.ResourceCount,
		"warnings":      len(res.Warnings),
	})

	rec := &postgres.ConversionRecord{
		ID:            id,
		MessageType:   res.MessageType,
		ControlID:     res.ControlID,
		Status:        postgres.StatusCompleted,
		ResourceCount: res.ResourceCount,
		Warnings:      res.Warnings,
		Bundle:        bundle,
	}
	events := []*postgres.OutboxEntry{
		{EventType: "bundle.converted", Topic: redpanda.TopicBundles, Key: res.ControlID, Payload: bundle},
		{EventType: "conversion.completed", Topic: redpanda.TopicAudit, Key: res.ControlID, Payload: audit},
	}
	return h.store.Save(ctx, rec, events)
}

// logConversionFailure records rejected messages so the conversion log
// tells the whole story, not just the successes.
func (h *ConvertHandler) logConversionFailure(ctx context.Context, cause error) {
	rec := &postgres.ConversionRecord{
		ID:          uuid.New().String(),
		Status:      postgres.StatusFailed,
		ErrorDetail: cause.Error(),
	}
	audit, _ := json.Marshal(map[string]any{
		"conversionId": rec.ID,
		"status":       postgres.StatusFailed,
		"error":        cause.Error(),
	})
	events := []*postgres.OutboxEntry{
		{EventType: "conversion.failed", Topic: redpanda.TopicAudit, Key: rec.ID, Payload: audit},
	}
	if err := h.store.Save(ctx, rec, events); err != nil {
		h.logger.Error("failed to log rejected message", zap.Error(err))
	}
}

// validateCodings checks the bundle's codings against the terminology
// provider and appends a warning per code the provider does not know.
func (h *ConvertHandler) validateCodings(ctx context.Context, res *conversion.Result) {
	for _, coding := range collectCodings(res.Bundle) {
		known, err := h.term.Lookup(ctx, coding.system, coding.code)
		if err != nil {
			h.logger.Warn("terminology lookup failed",
				zap.String("system", coding.system),
				zap.Error(err))
			return
		}
		if !known {
			res.Warnings = append(res.Warnings,
				"code "+coding.code+" not found in "+coding.system)
		}
	}
}

type codingRef struct {
	system string
	code   string
}

// collectCodings walks the marshaled bundle for coding entries that
// carry both a system and a code.
func collectCodings(doc map[string]any) []codingRef {
	var out []codingRef
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case map[string]any:
			for k, child := range t {
				if k == "coding" {
					if list, ok := child.([]any); ok {
						for _, c := range list {
							if m, ok := c.(map[string]any); ok {
								system, _ := m["system"].(string)
								code, _ := m["code"].(string)
								if system != "" && code != "" {
									out = append(out, codingRef{system: system, code: code})
								}
							}
						}
					}
					continue
				}
				walk(child)
			}
		case []any:
			for _, child := range t {
				walk(child)
			}
		}
	}
	walk(doc)
	return out
}

// countResources tallies emitted resources by type.
func (h *ConvertHandler) countResources(bundle map[string]any) {
	entries, _ := bundle["entry"].([]any)
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		resource, ok := entry["resource"].(map[string]any)
		if !ok {
			continue
		}
		if rt, ok := resource["resourceType"].(string); ok {
			h.metrics.ResourcesGenerated.WithLabelValues(rt).Inc()
		}
	}
}

// operationOutcome renders a fatal conversion error as a FHIR
// OperationOutcome.
func (h *ConvertHandler) operationOutcome(w http.ResponseWriter, cause error) {
	code := "processing"
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(cause, conversion.ErrEmptyMessage), errors.Is(cause, conversion.ErrNoHeader):
		code = "structure"
		status = http.StatusBadRequest
	case errors.Is(cause, conversion.ErrNoSubject):
		code = "required"
	}

	w.Header().Set("Content-Type", "application/fhir+json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(fhir.NewErrorOutcome(code, cause.Error()))
}

func (h *ConvertHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
