package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/config"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/ports"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/observability/metrics"
)

const (
	serviceName     = "api"
	maxRequestBytes = 64 << 10
)

type Router struct {
	chat         ports.ChatResponder
	interactions ports.InteractionLister
	metrics      *metrics.HTTPServerMetrics

	limiter          *rate.Limiter
	maxInFlight      int
	backpressureWait time.Duration
	requestTimeout   time.Duration
	listLimit        int
}

// NewRouter builds the chat front end. interactions and httpMetrics are
// optional; nil disables /v1/interactions and /metrics respectively.
func NewRouter(
	cfg config.Config,
	chat ports.ChatResponder,
	interactions ports.InteractionLister,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	rt := &Router{
		chat:             chat,
		interactions:     interactions,
		metrics:          httpMetrics,
		maxInFlight:      cfg.APIMaxInFlight,
		backpressureWait: time.Duration(cfg.APIBackpressureWaitMS) * time.Millisecond,
		requestTimeout:   time.Duration(cfg.APIRequestTimeoutSecs) * time.Second,
		listLimit:        cfg.InteractionListLimit,
	}
	if cfg.APIRateLimitRPS > 0 {
		burst := cfg.APIRateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		rt.limiter = rate.NewLimiter(rate.Limit(cfg.APIRateLimitRPS), burst)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /{$}", rt.chatMessage)
	mux.HandleFunc("POST /v1/chat", rt.chatMessage)
	if rt.interactions != nil {
		mux.HandleFunc("GET /v1/interactions", rt.listInteractions)
	}
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.maxInFlight, rt.backpressureWait, rt.recordRejected)
	handler = rateLimitMiddleware(handler, rt.limiter, rt.recordRejected)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = recoverMiddleware(handler)
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) chatMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := decodeChatMessage(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	if rt.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.requestTimeout)
		defer cancel()
	}

	reply := rt.chat.Reply(ctx, msg)
	slog.Debug("chat_reply_sent",
		"request_id", requestIDFromContext(r.Context()),
		"reply_id", reply.ID,
	)
	writeJSON(w, http.StatusOK, reply)
}

func (rt *Router) listInteractions(w http.ResponseWriter, r *http.Request) {
	limit := rt.listLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, domain.WrapError(domain.ErrInvalidInput, "list interactions", errors.New("limit must be a positive integer")))
			return
		}
		limit = parsed
	}

	items, err := rt.interactions.ListRecent(r.Context(), limit)
	if err != nil {
		slog.Error("interaction_list_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
		writeError(w, err)
		return
	}
	if items == nil {
		items = []domain.Interaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"interactions": items})
}

func (rt *Router) recordRejected(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordRejected(serviceName, reason)
	}
}

func decodeChatMessage(body io.Reader) (domain.ChatMessage, error) {
	var msg domain.ChatMessage
	if err := json.NewDecoder(body).Decode(&msg); err != nil {
		return domain.ChatMessage{}, domain.WrapError(domain.ErrInvalidInput, "decode chat message", err)
	}
	if msg.Role == "" {
		msg.Role = "user"
	}
	return msg, nil
}

func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
