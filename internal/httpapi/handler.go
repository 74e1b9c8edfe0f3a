package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"llm-bridge/internal/canonical"
	"llm-bridge/internal/dispatch"
	"llm-bridge/internal/metrics"
)

const maxBodyBytes = 20 << 20

// Handler is the inbound HTTP boundary: one canonical endpoint over the
// dispatcher. Vendor detail stays in the logs; callers get a status and
// a human-readable message.
type Handler struct {
	d   *dispatch.Dispatcher
	m   *metrics.Metrics
	log zerolog.Logger
}

func NewHandler(d *dispatch.Dispatcher, m *metrics.Metrics, log zerolog.Logger) *Handler {
	return &Handler{d: d, m: m, log: log}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/chat/completions", h.chatCompletions)
	return r
}

func (h *Handler) chatCompletions(w http.ResponseWriter, r *http.Request) {
	requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-Id", requestID)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req canonical.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if msg := validate(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	start := time.Now()
	resp, err := h.d.Send(r.Context(), req)
	dur := time.Since(start)

	if err != nil {
		status, public := statusForError(err)
		h.logError(requestID, req, err, status, dur)
		h.m.ObserveRequest(string(req.Vendor), req.Model, status, dur)
		writeError(w, status, public)
		return
	}

	h.log.Info().
		Str("request_id", requestID).
		Str("vendor", string(req.Vendor)).
		Str("model", req.Model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("latency", dur).
		Msg("completion served")
	h.m.ObserveRequest(string(req.Vendor), req.Model, http.StatusOK, dur)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func validate(req canonical.Request) string {
	if strings.TrimSpace(string(req.Vendor)) == "" {
		return "provider is required"
	}
	if strings.TrimSpace(req.Model) == "" {
		return "model is required"
	}
	if len(req.Messages) == 0 {
		return "messages must not be empty"
	}
	return ""
}

// statusForError maps the error taxonomy onto the boundary contract:
// caller bugs are 4xx, vendor 4xx rejections pass through verbatim,
// everything upstream-side collapses to 502/503. Vendor messages are
// exposed only for rejections the caller can act on.
func statusForError(err error) (int, string) {
	e, ok := canonical.AsError(err)
	if !ok {
		return http.StatusInternalServerError, "internal error"
	}
	switch e.Kind {
	case canonical.KindUnsupportedVendor:
		return http.StatusBadRequest, e.VendorMessage
	case canonical.KindConfigurationMissing:
		return http.StatusServiceUnavailable, "vendor credential not configured"
	case canonical.KindTransportFailure:
		return http.StatusBadGateway, "upstream request failed"
	case canonical.KindUpstreamEmptyResponse:
		return http.StatusBadGateway, "upstream returned an empty response"
	case canonical.KindUpstreamRejected:
		if e.HTTPStatus >= 400 && e.HTTPStatus < 500 {
			return e.HTTPStatus, e.VendorMessage
		}
		return http.StatusBadGateway, "upstream rejected the request"
	}
	return http.StatusInternalServerError, "internal error"
}

func (h *Handler) logError(requestID string, req canonical.Request, err error, status int, dur time.Duration) {
	evt := h.log.Error().
		Str("request_id", requestID).
		Str("vendor", string(req.Vendor)).
		Str("model", req.Model).
		Int("status", status).
		Dur("latency", dur)
	if e, ok := canonical.AsError(err); ok {
		evt = evt.Str("kind", string(e.Kind))
		if e.HTTPStatus != 0 {
			evt = evt.Int("upstream_status", e.HTTPStatus)
		}
		if e.VendorMessage != "" {
			evt = evt.Str("vendor_message", e.VendorMessage)
		}
	} else {
		evt = evt.Err(err)
	}
	evt.Msg("completion failed")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
