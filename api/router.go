// Package api is the HTTP surface the presentation layer talks to.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouterOptions carries the optional endpoints.
type RouterOptions struct {
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// Ready backs /readyz; nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(handler *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware(handler.logger))
	r.Use(loggingMiddleware(handler.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(req.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, "not_ready", err.Error(), requestIDFromContext(req.Context()))
				return
			}
		}
		writeSuccess(w, http.StatusOK, "ready", nil)
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/proposals", handler.listProposals)
		r.Get("/proposals/{id}", handler.getProposal)
		r.Get("/treasury", handler.getTreasury)
		r.Get("/members/{address}", handler.getMember)
		r.Get("/events", handler.listEvents)
		r.Get("/automation/check", handler.checkAutomation)

		r.Group(func(r chi.Router) {
			r.Use(callerMiddleware)
			r.Post("/contributions", handler.contribute)
			r.Post("/proposals", handler.createProposal)
			r.Post("/proposals/{id}/votes", handler.vote)
			r.Post("/roles", handler.grantRole)
			r.Put("/automation/trigger", handler.setTrigger)
			r.Post("/automation/act", handler.act)
		})
	})
	return r
}
