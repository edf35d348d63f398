package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/tckz/go-hit-counter/internal/counter"
	"go.uber.org/zap"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

const resetMessage = "Counter reset to 0"

type CounterResponse struct {
	ID             string `json:"id"`
	Count          int64  `json:"count"`
	FormattedCount string `json:"formatted_count"`
	Timestamp      string `json:"timestamp"`
	ImageURL       string `json:"image_url"`
	Message        string `json:"message,omitempty"`
	Note           string `json:"note,omitempty"`
}

type ErrorResponse struct {
	Error     string            `json:"error"`
	Message   string            `json:"message,omitempty"`
	Endpoints map[string]string `json:"endpoints,omitempty"`
}

var endpoints = map[string]string{
	"GET /?id=page&format=json":    "Get counter value",
	"POST /?id=page&format=json":   "Increment counter",
	"DELETE /?id=page&format=json": "Reset counter",
	"GET /?id=page&format=image":   "Get counter image",
}

// CounterHandler serves the counter endpoint for every method.
type CounterHandler struct {
	svc    *counter.Service
	logger *zap.SugaredLogger
}

func NewCounterHandler(svc *counter.Service, logger *zap.SugaredLogger) *CounterHandler {
	return &CounterHandler{svc: svc, logger: logger}
}

func (h *CounterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := Classify(r)
	ctx := r.Context()

	var snap counter.Snapshot
	var err error
	switch req.Op {
	case OpRead:
		snap, err = h.svc.Read(ctx, req.ID)
	case OpRenderImage:
		var badge counter.Badge
		badge, err = h.svc.RenderImage(ctx, req.ID)
		if err == nil {
			h.writeBadge(w, badge)
			return
		}
	case OpIncrement:
		snap, err = h.svc.Increment(ctx, req.ID)
	case OpReset:
		snap, err = h.svc.Reset(ctx, req.ID)
	default:
		h.writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
		return
	}

	if err != nil {
		h.writeError(w, err)
		return
	}

	if req.Encoding == EncodingImage {
		badge, err := h.svc.Badge(snap)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeBadge(w, badge)
		return
	}

	res := CounterResponse{
		ID:             snap.ID,
		Count:          snap.Count,
		FormattedCount: snap.Formatted(),
		Timestamp:      snap.Timestamp.UTC().Format(timestampLayout),
		ImageURL:       imageURL(r, snap.ID),
		Note:           snap.Note,
	}
	if req.Op == OpReset {
		res.Message = resetMessage
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *CounterHandler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, counter.ErrResetUnsupported) {
		h.writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: "Reset not supported", Message: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Message: err.Error()})
}

func (h *CounterHandler) writeBadge(w http.ResponseWriter, badge counter.Badge) {
	w.Header().Set("Content-Type", mediaSVG)
	noCache(w.Header())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(badge.SVG); err != nil {
		h.logger.Debugf("Write: %v", err)
	}
}

func (h *CounterHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	writeJSON(w, status, v, h.logger)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *zap.SugaredLogger) {
	w.Header().Set("Content-Type", mediaJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debugf("json.Encode: %v", err)
	}
}

func noCache(h http.Header) {
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}

// imageURL points at the badge of id on the endpoint that served r.
func imageURL(r *http.Request, id string) string {
	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: "id=" + url.QueryEscape(id) + "&format=image",
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

func healthHandler(storeName string, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"store":  storeName,
			"time":   time.Now().UTC().Format(timestampLayout),
		}, logger)
	}
}
