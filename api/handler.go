package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"crowdfund_dao/contract"
	"crowdfund_dao/contract/dao"
	"crowdfund_dao/eventbus"
	"crowdfund_dao/sdk"
)

// Engine is the contract surface the handlers use; *contract.Contract satisfies it.
type Engine interface {
	Config() dao.Config
	Contribute(ctx context.Context, env sdk.Env, amount dao.Amount) (dao.Member, error)
	GrantRole(ctx context.Context, env sdk.Env, role dao.Role, identity sdk.Address) error
	SetAutomationTrigger(ctx context.Context, env sdk.Env, identity sdk.Address) error
	AutomationTrigger(ctx context.Context) (sdk.Address, error)
	GetMember(ctx context.Context, identity sdk.Address) (dao.Member, error)
	CreateProposal(ctx context.Context, env sdk.Env, args dao.CreateProposalArgs) (uint64, error)
	GetProposal(ctx context.Context, id uint64) (dao.Proposal, error)
	ListProposals(ctx context.Context, now int64, filter dao.ProposalFilter) ([]dao.Proposal, error)
	VoteOnProposal(ctx context.Context, env sdk.Env, id uint64, support bool) error
	ShouldAct(ctx context.Context, now int64) (bool, []uint64, error)
	Act(ctx context.Context, env sdk.Env, ids []uint64) (dao.ActReport, error)
	GetTreasury(ctx context.Context) (dao.Treasury, error)
	Events(ctx context.Context, fromSeq uint64, limit int) ([]dao.Event, error)
}

var _ Engine = (*contract.Contract)(nil)

type Handler struct {
	engine Engine
	clock  func() time.Time
	logger *slog.Logger
}

type HandlerOption func(*Handler)

func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) { h.clock = clock }
}

func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

func NewHandler(engine Engine, opts ...HandlerOption) *Handler {
	h := &Handler{engine: engine, clock: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// env stamps the request with the caller, the server clock and the request id as tx id.
func (h *Handler) env(r *http.Request) sdk.Env {
	return sdk.Env{
		Caller:    callerFromContext(r.Context()),
		Timestamp: h.clock().Unix(),
		TxID:      requestIDFromContext(r.Context()),
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapDomainError(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "err", err, "request_id", requestIDFromContext(r.Context()))
	}
	writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, code, msg string) {
	writeError(w, http.StatusBadRequest, code, msg, requestIDFromContext(r.Context()))
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func proposalID(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid proposal id %q", raw)
	}
	return id, nil
}

func (h *Handler) contribute(w http.ResponseWriter, r *http.Request) {
	var req ContributeRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, r, "invalid_json", err.Error())
		return
	}
	amount, err := dao.ParseAmount(req.Amount)
	if err != nil {
		h.badRequest(w, r, "invalid_input", err.Error())
		return
	}
	m, err := h.engine.Contribute(r.Context(), h.env(r), amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "", memberView(m, h.engine.Config().StakeholderThreshold))
}

func (h *Handler) createProposal(w http.ResponseWriter, r *http.Request) {
	var req CreateProposalRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, r, "invalid_json", err.Error())
		return
	}
	amount, err := dao.ParseAmount(req.Amount)
	if err != nil {
		h.badRequest(w, r, "invalid_input", err.Error())
		return
	}
	env := h.env(r)
	id, err := h.engine.CreateProposal(r.Context(), env, dao.CreateProposalArgs{
		Title:       req.Title,
		Description: req.Description,
		Recipient:   sdk.Address(req.Recipient),
		Amount:      amount,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.engine.GetProposal(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "", proposalView(p, env.Timestamp))
}

func (h *Handler) listProposals(w http.ResponseWriter, r *http.Request) {
	filter, err := dao.ParseProposalFilter(r.URL.Query().Get("filter"))
	if err != nil {
		h.badRequest(w, r, "invalid_input", err.Error())
		return
	}
	now := h.clock().Unix()
	list, err := h.engine.ListProposals(r.Context(), now, filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items := make([]ProposalView, 0, len(list))
	for _, p := range list {
		items = append(items, proposalView(p, now))
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"items":  items,
		"filter": string(filter),
	})
}

func (h *Handler) getProposal(w http.ResponseWriter, r *http.Request) {
	id, err := proposalID(r)
	if err != nil {
		h.badRequest(w, r, "invalid_input", err.Error())
		return
	}
	p, err := h.engine.GetProposal(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", proposalView(p, h.clock().Unix()))
}

func (h *Handler) vote(w http.ResponseWriter, r *http.Request) {
	id, err := proposalID(r)
	if err != nil {
		h.badRequest(w, r, "invalid_input", err.Error())
		return
	}
	var req VoteRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, r, "invalid_json", err.Error())
		return
	}
	if req.Support == nil {
		h.badRequest(w, r, "invalid_input", "support is required")
		return
	}
	if err := h.engine.VoteOnProposal(r.Context(), h.env(r), id, *req.Support); err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "vote recorded", nil)
}

func (h *Handler) grantRole(w http.ResponseWriter, r *http.Request) {
	var req GrantRoleRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, r, "invalid_json", err.Error())
		return
	}
	role, err := dao.ParseRole(req.Role)
	if err != nil {
		h.badRequest(w, r, "invalid_input", err.Error())
		return
	}
	if err := h.engine.GrantRole(r.Context(), h.env(r), role, sdk.Address(req.Identity)); err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "role granted", nil)
}

func (h *Handler) setTrigger(w http.ResponseWriter, r *http.Request) {
	var req SetTriggerRequest
	if err := decode(r, &req); err != nil {
		h.badRequest(w, r, "invalid_json", err.Error())
		return
	}
	if err := h.engine.SetAutomationTrigger(r.Context(), h.env(r), sdk.Address(req.Identity)); err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "trigger set", nil)
}

func (h *Handler) checkAutomation(w http.ResponseWriter, r *http.Request) {
	needed, ids, err := h.engine.ShouldAct(r.Context(), h.clock().Unix())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []uint64{}
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"needed":     needed,
		"candidates": ids,
	})
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request) {
	var req ActRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(w, r, "invalid_json", err.Error())
		return
	}
	env := h.env(r)
	ids := req.IDs
	if len(ids) == 0 {
		_, due, err := h.engine.ShouldAct(r.Context(), env.Timestamp)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		ids = due
	}
	report, err := h.engine.Act(r.Context(), env, ids)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", actView(report))
}

func (h *Handler) getTreasury(w http.ResponseWriter, r *http.Request) {
	t, err := h.engine.GetTreasury(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	trigger, err := h.engine.AutomationTrigger(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cfg := h.engine.Config()
	writeSuccess(w, http.StatusOK, "", TreasuryView{
		Balance:           t.Balance.String(),
		Contributed:       t.Contributed.String(),
		PaidOut:           t.PaidOut.String(),
		FeesRetained:      t.FeesRetained.String(),
		Voters:            t.VoterCount,
		DaoPercentage:     cfg.DaoPercentage,
		StakeholderFee:    cfg.StakeholderThreshold.String(),
		AutomationTrigger: trigger.String(),
	})
}

func (h *Handler) getMember(w http.ResponseWriter, r *http.Request) {
	addr := sdk.Address(strings.TrimSpace(chi.URLParam(r, "address")))
	if addr.IsZero() {
		h.badRequest(w, r, "invalid_input", "address is required")
		return
	}
	m, err := h.engine.GetMember(r.Context(), addr)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", memberView(m, h.engine.Config().StakeholderThreshold))
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	from := parseUintOrDefault(r.URL.Query().Get("from"), 0)
	limit := int(parseUintOrDefault(r.URL.Query().Get("limit"), 100))
	events, err := h.engine.Events(r.Context(), from, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	items := make([]eventbus.Envelope, 0, len(events))
	for _, e := range events {
		items = append(items, eventbus.Envelope{Event: e})
	}
	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"items": items,
		"from":  from,
	})
}

func parseUintOrDefault(raw string, fallback uint64) uint64 {
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}
