package billing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/birriaclub/pos/internal/order"
	"github.com/birriaclub/pos/pkg/enums/payment"
	"github.com/birriaclub/pos/pkg/event"
)

const MaxBodyBytes = 1 << 20

// BillCloser executes a settlement against the billing collaborator.
type BillCloser interface {
	Close(ctx context.Context, ticketID uuid.UUID, settlement Settlement) (*ReceiptSummary, error)
}

type Handler struct {
	logger     apt.Logger
	config     *apt.Config
	tlm        *telemetry.HTTP
	sessions   *order.TicketSessionStore
	splits     *SplitStore
	ticketRepo order.TicketRepo
	closeBill  BillCloser
	publisher  events.Publisher
}

type HandlerDeps struct {
	Sessions   *order.TicketSessionStore
	Splits     *SplitStore
	TicketRepo order.TicketRepo
	CloseBill  BillCloser
	Publisher  events.Publisher
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	splits := hd.Splits
	if splits == nil {
		splits = NewSplitStore()
	}

	return &Handler{
		config:     config,
		logger:     logger,
		tlm:        telemetry.NewHTTP(),
		sessions:   hd.Sessions,
		splits:     splits,
		ticketRepo: hd.TicketRepo,
		closeBill:  hd.CloseBill,
		publisher:  hd.Publisher,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets/{id}/split", func(r chi.Router) {
		r.Post("/", h.BeginSplit)
		r.Get("/", h.GetSplit)
		r.Put("/persons", h.SetPersonCount)
		r.Post("/shares", h.SubmitShare)
		r.Delete("/", h.AbandonSplit)
	})

	r.Post("/tickets/{id}/close", h.CloseTicket)
}

// Split flow

func (h *Handler) BeginSplit(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.BeginSplit")
	defer finish()

	log := h.log(r)

	id, session, ok := h.requireSession(w, r, log)
	if !ok {
		return
	}

	splitter := h.splits.Begin(id)
	if err := splitter.Begin(session.Order); err != nil {
		h.splits.Discard(id)
		h.respondBillingError(w, log, err)
		return
	}

	log.Info("split started", "ticket_id", id.String(), "total", splitter.Total().String())
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, h.splitView(id, splitter))
}

func (h *Handler) SetPersonCount(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetPersonCount")
	defer finish()

	log := h.log(r)

	id, splitter, ok := h.requireSplit(w, r, log)
	if !ok {
		return
	}

	var req PersonCountRequest
	if !h.decodeBody(w, r, log, &req) {
		return
	}

	if err := splitter.SetPersonCount(req.Persons); err != nil {
		h.respondBillingError(w, log, err)
		return
	}

	apt.RespondSuccess(w, h.splitView(id, splitter))
}

func (h *Handler) SubmitShare(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SubmitShare")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, splitter, ok := h.requireSplit(w, r, log)
	if !ok {
		return
	}

	var req ShareRequest
	if !h.decodeBody(w, r, log, &req) {
		return
	}

	method := payment.ByName(req.Method)
	if method == nil {
		log.Debug("unknown payment method", "method", req.Method)
		apt.RespondError(w, http.StatusBadRequest, "Unknown payment method")
		return
	}

	amount, ok := h.parseAmount(w, req.Amount, log)
	if !ok {
		return
	}

	if err := splitter.SubmitShare(*method, amount); err != nil {
		h.respondBillingError(w, log, err)
		return
	}

	switch splitter.State() {
	case StateReconciled:
		log.Info("split reconciled", "ticket_id", id.String(), "persons", splitter.Persons())
		h.publishSplitOutcome(ctx, id, splitter, event.EventTicketSplitReconcile)
	case StateRejected:
		log.Info("split rejected", "ticket_id", id.String(), "discrepancy", splitter.Discrepancy().String())
		h.publishSplitOutcome(ctx, id, splitter, event.EventTicketSplitRejected)
	}

	apt.RespondSuccess(w, h.splitView(id, splitter))
}

func (h *Handler) GetSplit(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetSplit")
	defer finish()

	log := h.log(r)

	id, splitter, ok := h.requireSplit(w, r, log)
	if !ok {
		return
	}

	apt.RespondSuccess(w, h.splitView(id, splitter))
}

func (h *Handler) AbandonSplit(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AbandonSplit")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	h.splits.Discard(id)
	w.WriteHeader(http.StatusNoContent)
}

// CloseTicket settles the bill. With split=true it consumes the reconciled
// splitter; otherwise it builds a single-payer settlement for the given
// method. Either way the payload goes to the close-bill collaborator and
// the engine state for the ticket is discarded on success.
func (h *Handler) CloseTicket(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CloseTicket")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, session, ok := h.requireSession(w, r, log)
	if !ok {
		return
	}

	var req CloseRequest
	if !h.decodeBody(w, r, log, &req) {
		return
	}

	var settlement Settlement
	var err error

	if req.Split {
		splitter, found := h.splits.Get(id)
		if !found {
			apt.RespondError(w, http.StatusConflict, "No split in progress for ticket")
			return
		}
		settlement, err = BuildSplit(session.Order, splitter)
	} else {
		method := payment.ByName(req.Method)
		if method == nil {
			log.Debug("unknown payment method", "method", req.Method)
			apt.RespondError(w, http.StatusBadRequest, "Unknown payment method")
			return
		}
		settlement, err = BuildSingle(session.Order, *method, req.Reference)
	}
	if err != nil {
		h.respondBillingError(w, log, err)
		return
	}

	if h.closeBill == nil {
		log.Error("close-bill client not configured")
		apt.RespondError(w, http.StatusInternalServerError, "Billing collaborator unavailable")
		return
	}

	receipt, err := h.closeBill.Close(ctx, id, settlement)
	if err != nil {
		log.Error("close-bill call failed", "error", err, "ticket_id", id.String())
		apt.RespondError(w, http.StatusBadGateway, "Could not close the bill")
		return
	}

	h.markTicketClosed(ctx, id, log)
	h.publishSettlement(ctx, id, session, settlement)

	h.splits.Discard(id)
	h.sessions.Discard(id)

	apt.RespondSuccess(w, receipt)
}

// Payloads

type PersonCountRequest struct {
	Persons int `json:"persons"`
}

type ShareRequest struct {
	Method string      `json:"method"`
	Amount json.Number `json:"amount"`
}

type CloseRequest struct {
	Split     bool   `json:"split,omitempty"`
	Method    string `json:"method,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// Views

type ShareView struct {
	Person int    `json:"person"`
	Method string `json:"method"`
	Amount string `json:"amount"`
}

type SplitView struct {
	TicketID    string      `json:"ticket_id"`
	State       string      `json:"state"`
	Persons     int         `json:"persons,omitempty"`
	PersonIndex int         `json:"person_index,omitempty"`
	Total       string      `json:"total"`
	Declared    string      `json:"declared"`
	Discrepancy string      `json:"discrepancy,omitempty"`
	Shares      []ShareView `json:"shares,omitempty"`
}

func (h *Handler) splitView(ticketID uuid.UUID, splitter *Splitter) SplitView {
	view := SplitView{
		TicketID:    ticketID.String(),
		State:       splitter.State(),
		Persons:     splitter.Persons(),
		PersonIndex: splitter.PersonIndex(),
		Total:       splitter.Total().String(),
		Declared:    splitter.Declared().String(),
	}
	for i, share := range splitter.Shares() {
		view.Shares = append(view.Shares, ShareView{
			Person: i + 1,
			Method: share.Method.Name,
			Amount: share.Amount.String(),
		})
	}
	if splitter.State() == StateRejected {
		view.Discrepancy = splitter.Discrepancy().String()
	}
	return view
}

// Helpers

func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, *order.TicketSession, bool) {
	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return uuid.Nil, nil, false
	}

	session, err := h.sessions.Get(id)
	if err != nil {
		apt.RespondError(w, http.StatusNotFound, "No open session for ticket")
		return uuid.Nil, nil, false
	}
	return id, session, true
}

func (h *Handler) requireSplit(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, *Splitter, bool) {
	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return uuid.Nil, nil, false
	}

	splitter, found := h.splits.Get(id)
	if !found {
		apt.RespondError(w, http.StatusNotFound, "No split in progress for ticket")
		return uuid.Nil, nil, false
	}
	return id, splitter, true
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid ID parameter", "id", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) parseAmount(w http.ResponseWriter, raw json.Number, log apt.Logger) (decimal.Decimal, bool) {
	if raw == "" {
		apt.RespondError(w, http.StatusBadRequest, "amount is required")
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(raw.String())
	if err != nil {
		log.Debug("invalid amount", "amount", raw.String())
		apt.RespondError(w, http.StatusBadRequest, "Invalid amount")
		return decimal.Zero, false
	}
	return amount, true
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, log apt.Logger, out interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, out); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}
	return true
}

func (h *Handler) respondBillingError(w http.ResponseWriter, log apt.Logger, err error) {
	var vErr order.ValidationError
	var sErr StateError
	switch {
	case errors.As(err, &vErr):
		log.Debug("billing input rejected", "field", vErr.Field, "reason", vErr.Message)
		apt.RespondError(w, http.StatusUnprocessableEntity, vErr.Error())
	case errors.As(err, &sErr):
		log.Info("billing state violation", "op", sErr.Op, "state", sErr.State)
		apt.RespondError(w, http.StatusConflict, sErr.Error())
	default:
		log.Error("billing operation failed", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not process billing operation")
	}
}

func (h *Handler) markTicketClosed(ctx context.Context, id uuid.UUID, log apt.Logger) {
	if h.ticketRepo == nil {
		return
	}
	ticket, err := h.ticketRepo.Get(ctx, id)
	if err != nil || ticket == nil {
		log.Info("cannot load ticket to mark closed", "ticket_id", id.String(), "error", err)
		return
	}
	ticket.MarkClosed()
	if err := h.ticketRepo.Save(ctx, ticket); err != nil {
		log.Error("cannot mark ticket closed", "ticket_id", id.String(), "error", err)
	}
}

func (h *Handler) publishSettlement(ctx context.Context, id uuid.UUID, session *order.TicketSession, settlement Settlement) {
	if h.publisher == nil {
		return
	}

	evt := event.SettlementEvent{
		EventType:  event.EventTicketSettled,
		OccurredAt: time.Now(),
		TicketID:   id.String(),
		TableID:    session.TableID.String(),
		Total:      session.Order.Total().String(),
	}
	if settlement.Split() {
		evt.ShareCount = len(settlement.Shares)
	} else {
		evt.Method = settlement.Method
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal settlement event", "error", err, "ticket_id", id.String())
		return
	}
	if err := h.publisher.Publish(ctx, event.SettlementsTopic, payload); err != nil {
		h.logger.Error("cannot publish settlement event", "error", err, "ticket_id", id.String())
	}
}

func (h *Handler) publishSplitOutcome(ctx context.Context, id uuid.UUID, splitter *Splitter, eventType string) {
	if h.publisher == nil {
		return
	}

	evt := event.SplitOutcomeEvent{
		EventType:  eventType,
		OccurredAt: time.Now(),
		TicketID:   id.String(),
		Persons:    splitter.Persons(),
		Total:      splitter.Total().String(),
		Declared:   splitter.Declared().String(),
	}
	if eventType == event.EventTicketSplitRejected {
		evt.Discrepancy = splitter.Discrepancy().String()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal split outcome event", "error", err, "ticket_id", id.String())
		return
	}
	if err := h.publisher.Publish(ctx, event.SettlementsTopic, payload); err != nil {
		h.logger.Error("cannot publish split outcome event", "error", err, "ticket_id", id.String())
	}
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
