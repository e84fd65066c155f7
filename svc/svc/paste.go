package svc

import (
	"context"
	"pastelite/cfg"
	"pastelite/metrics"
	"pastelite/pkg/domain"
	"pastelite/svc/store"
	"pastelite/svc/util"

	"github.com/pkg/errors"
)

type Paste struct {
	store *store.Store
	cfg   *cfg.Cfg
}

func NewPaste(st *store.Store, c *cfg.Cfg) *Paste {
	if st == nil || c == nil {
		panic("paste service: nil dependency (store or cfg)")
	}
	return &Paste{store: st, cfg: c}
}

// Create validates size limits and stores the paste at now.
func (p *Paste) Create(ctx context.Context, params domain.CreateParams, now int64) (*domain.Paste, error) {
	if params.Content == "" {
		return nil, domain.ErrInvalidInput
	}
	if int64(len(params.Content)) > p.cfg.MaxPasteSize {
		return nil, domain.ErrPasteTooLarge
	}
	paste, err := p.store.Create(params, now)
	if err != nil {
		return nil, errors.Wrap(err, "create paste")
	}
	metrics.PasteCreated.Inc()
	util.Debug().
		Str("paste_id", util.RedactID(paste.ID)).
		Bool("has_ttl", paste.ExpiresAt != nil).
		Bool("has_view_quota", paste.RemainingViews != nil).
		Str("request_id", util.GetRequestID(ctx)).
		Msg("paste stored")
	return paste, nil
}

// Get reads the paste at now. Every miss comes back as
// domain.ErrPasteNotFound whatever the cause.
func (p *Paste) Get(ctx context.Context, id string, now int64) (*domain.View, error) {
	v, err := p.store.Get(id, now)
	if err != nil {
		if errors.Is(err, domain.ErrPasteNotFound) {
			metrics.PasteNotFound.Inc()
			return nil, domain.ErrPasteNotFound
		}
		return nil, errors.Wrap(err, "get paste")
	}
	metrics.PasteRetrieved.Inc()
	return v, nil
}
