package api

import (
	"encoding/json"
	"html/template"
	"mime"
	"net/http"
	"pastelite/cfg"
	"pastelite/pkg/clock"
	"pastelite/pkg/domain"
	"pastelite/svc/svc"
	"pastelite/svc/util"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/hlog"
)

var pasteTmpl = template.Must(template.New("paste").Parse(
	`<!DOCTYPE html><html><head><meta charset="utf-8"><title>Paste</title></head>` +
		`<body><pre>{{.}}</pre></body></html>`))

type Hdl struct {
	paste *svc.Paste
	cfg   *cfg.Cfg
	clock clock.Clock
}

// CreateReq uses pointers so a missing field and a JSON null both mean
// "not given".
type CreateReq struct {
	Content    *string  `json:"content"`
	TTLSeconds *float64 `json:"ttl_seconds"`
	MaxViews   *int64   `json:"max_views"`
}
type CreateResp struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
type GetResp struct {
	Content        string     `json:"content"`
	RemainingViews *int64     `json:"remaining_views"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

func (h *Hdl) CreatePaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		log.Warn().
			Str("content_type", contentType).
			Str("request_id", requestID).
			Msg("invalid Content-Type header")
		writeErr(w, domain.ErrUnsupportedMedia, requestID)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxPasteSize*2)
	var req CreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			log.Warn().Int64("limit", maxErr.Limit).Msg("request body too large")
			writeErr(w, domain.ErrPasteTooLarge, requestID)
			return
		}
		log.Warn().Err(err).Msg("invalid request body")
		writeErr(w, domain.ErrInvalidInput, requestID)
		return
	}
	if req.Content == nil || *req.Content == "" {
		log.Warn().Msg("missing or empty content")
		writeErr(w, domain.ErrInvalidInput, requestID)
		return
	}
	params := domain.CreateParams{
		Content:    *req.Content,
		TTLSeconds: req.TTLSeconds,
		MaxViews:   req.MaxViews,
	}
	paste, err := h.paste.Create(r.Context(), params, h.now(r))
	if err != nil {
		log.Warn().Err(err).Msg("failed to create paste")
		writeErr(w, err, requestID)
		return
	}
	log.Info().
		Str("paste_id", util.RedactID(paste.ID)).
		Interface("ttl_seconds", req.TTLSeconds).
		Interface("max_views", req.MaxViews).
		Msg("paste created")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateResp{
		ID:  paste.ID,
		URL: h.cfg.PublicBaseURL + "/p/" + paste.ID,
	})
}
func (h *Hdl) GetPaste(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	v, err := h.read(r, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err, requestID)
		return
	}
	resp := GetResp{
		Content:        v.Content,
		RemainingViews: v.RemainingViews,
	}
	if v.ExpiresAt != nil {
		t := clock.ToTime(*v.ExpiresAt)
		resp.ExpiresAt = &t
	}
	json.NewEncoder(w).Encode(resp)
}

// ViewPaste renders the paste for a browser. A view here costs the same as
// an API read.
func (h *Hdl) ViewPaste(w http.ResponseWriter, r *http.Request) {
	v, err := h.read(r, chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrPasteNotFound) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Paste not found\n"))
		return
	}
	if err != nil {
		writeErr(w, err, util.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pasteTmpl.Execute(w, v.Content); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("render paste")
	}
}

// read returns either the view, domain.ErrPasteNotFound, or
// domain.ErrInternalServer; nothing else reaches the response.
func (h *Hdl) read(r *http.Request, id string) (*domain.View, error) {
	log := hlog.FromRequest(r)
	v, err := h.paste.Get(r.Context(), id, h.now(r))
	if err == nil {
		log.Info().
			Str("paste_id", util.RedactID(id)).
			Bool("view_limited", v.RemainingViews != nil).
			Msg("paste retrieved")
		return v, nil
	}
	if errors.Is(err, domain.ErrPasteNotFound) {
		log.Info().Str("paste_id", util.RedactID(id)).Msg("paste not found")
		return nil, domain.ErrPasteNotFound
	}
	log.Error().Err(err).Str("paste_id", util.RedactID(id)).Msg("get failed")
	return nil, domain.ErrInternalServer
}
func (h *Hdl) now(r *http.Request) int64 {
	if ms, ok := util.GetNow(r.Context()); ok {
		return ms
	}
	return h.clock.Now()
}
func writeErr(w http.ResponseWriter, err error, requestID string) {
	statusCode := domain.Status(err)
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(statusCode)
	resp := domain.ToResp(err)
	if statusCode >= 500 {
		util.Error().
			Err(err).
			Str("request_id", requestID).
			Msg("internal error with detailed info")
	}
	json.NewEncoder(w).Encode(map[string]string{
		"error":      resp.Error,
		"code":       resp.Code,
		"request_id": requestID,
	})
}
