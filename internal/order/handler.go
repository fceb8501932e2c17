package order

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/birriaclub/pos/pkg/event"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	logger     apt.Logger
	config     *apt.Config
	tlm        *telemetry.HTTP
	ticketRepo TicketRepo
	catalog    *ProductCatalog
	sessions   *TicketSessionStore
	publisher  events.Publisher
}

type HandlerDeps struct {
	TicketRepo TicketRepo
	Catalog    *ProductCatalog
	Sessions   *TicketSessionStore
	Publisher  events.Publisher
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	sessions := hd.Sessions
	if sessions == nil {
		sessions = NewTicketSessionStore(2 * time.Hour)
	}

	return &Handler{
		config:     config,
		logger:     logger,
		tlm:        telemetry.NewHTTP(),
		ticketRepo: hd.TicketRepo,
		catalog:    hd.Catalog,
		sessions:   sessions,
		publisher:  hd.Publisher,
	}
}

// Sessions exposes the session store so the billing handler can read the
// same open tickets.
func (h *Handler) Sessions() *TicketSessionStore {
	return h.sessions
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets", func(r chi.Router) {
		r.Post("/", h.OpenTicket)
		r.Get("/{id}", h.GetTicket)
		r.Post("/{id}/resume", h.ResumeTicket)
		r.Post("/{id}/save", h.SaveTicket)
		r.Delete("/{id}", h.DiscardTicket)

		r.Route("/{id}/items", func(r chi.Router) {
			r.Post("/", h.AddItem)
			r.Put("/{index}", h.UpdateItem)
			r.Delete("/{index}", h.RemoveItem)
		})
	})

	r.Route("/tables/{tableID}/tickets", func(r chi.Router) {
		r.Get("/", h.ListTableTickets)
	})

	r.Route("/products/{id}", func(r chi.Router) {
		r.Get("/entry-flow", h.GetEntryFlow)
	})
}

// Ticket lifecycle

func (h *Handler) OpenTicket(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.OpenTicket")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	req, ok := h.decodeOpenTicketPayload(w, r, log)
	if !ok {
		return
	}

	if req.TableID == uuid.Nil {
		log.Debug("missing table id in open ticket request")
		apt.RespondError(w, http.StatusBadRequest, "table_id is required")
		return
	}

	ticket := NewTicket(req.TableID)
	ticket.Takeaway = req.Takeaway
	ticket.CustomerName = req.CustomerName
	ticket.BeforeCreate()

	if err := ticket.SetItems(nil); err != nil {
		log.Error("cannot initialize ticket items", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not open ticket")
		return
	}

	if err := h.ticketRepo.Create(ctx, ticket); err != nil {
		log.Error("cannot create ticket", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not open ticket")
		return
	}

	session := h.sessions.Open(ticket.ID, ticket.TableID, NewOrder())
	session.Takeaway = ticket.Takeaway

	links := apt.RESTfulLinksFor(ticket)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, h.ticketView(ticket.ID, session), links...)
}

// ResumeTicket rebuilds an editing session from the persisted ticket. The
// snapshots win over the live catalog: the guest pays the quoted price.
func (h *Handler) ResumeTicket(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ResumeTicket")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	ticket, err := h.ticketRepo.Get(ctx, id)
	if err != nil || ticket == nil {
		log.Error("ticket not found", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusNotFound, "Ticket not found")
		return
	}

	if ticket.Status != "open" {
		apt.RespondError(w, http.StatusBadRequest, "Ticket is not open")
		return
	}

	ord, err := Hydrate(ticket.Items)
	if err != nil {
		log.Error("cannot hydrate ticket", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not resume ticket")
		return
	}

	session := h.sessions.Open(ticket.ID, ticket.TableID, ord)
	session.Takeaway = ticket.Takeaway

	apt.RespondSuccess(w, h.ticketView(ticket.ID, session))
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetTicket")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	session, err := h.sessions.Get(id)
	if err != nil {
		apt.RespondError(w, http.StatusNotFound, "No open session for ticket")
		return
	}

	apt.RespondSuccess(w, h.ticketView(id, session))
}

// SaveTicket persists the full item list and ends the editing session. The
// engine's aggregate is discarded; the persisted document is the ticket
// from here on.
func (h *Handler) SaveTicket(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SaveTicket")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	session, err := h.sessions.Get(id)
	if err != nil {
		apt.RespondError(w, http.StatusNotFound, "No open session for ticket")
		return
	}

	if session.Order.Len() == 0 {
		apt.RespondError(w, http.StatusBadRequest, "Cannot save an empty ticket")
		return
	}

	snapshots := session.Order.Snapshots()
	total := session.Order.Total().String()

	// Drop-then-readd: the collaborator replaces the stored item list
	// wholesale rather than diffing against it.
	if err := h.ticketRepo.ReplaceItems(ctx, id, snapshots, total); err != nil {
		log.Error("cannot save ticket items", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not save ticket")
		return
	}

	h.publishTicketSaved(ctx, session)
	h.sessions.Discard(id)

	apt.Respond(w, http.StatusOK, map[string]string{"ticket_id": id.String(), "total": total}, nil)
}

func (h *Handler) DiscardTicket(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DiscardTicket")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	h.sessions.Discard(id)
	w.WriteHeader(http.StatusNoContent)
}

// Line mutations

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AddItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	session, err := h.sessions.Get(id)
	if err != nil {
		apt.RespondError(w, http.StatusNotFound, "No open session for ticket")
		return
	}

	req, ok := h.decodeAddItemPayload(w, r, log)
	if !ok {
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		log.Debug("invalid product id", "product_id", req.ProductID)
		apt.RespondError(w, http.StatusBadRequest, "Invalid product_id")
		return
	}

	product, err := h.catalog.Ensure(ctx, productID)
	if err != nil {
		log.Info("product not in catalog", "product_id", productID.String(), "error", err)
		apt.RespondError(w, http.StatusNotFound, "Product not found")
		return
	}

	quantity, ok := h.parseQuantity(w, req.Quantity, log)
	if !ok {
		return
	}

	if err := session.Order.AddItem(product, quantity, req.Variant); err != nil {
		h.respondEngineError(w, log, err)
		return
	}

	if req.Notes != "" {
		if i := session.Order.slotIndex(product.ID, req.Variant); i >= 0 {
			_ = session.Order.SetNotes(i, req.Notes)
		}
	}

	h.publishItemEvent(ctx, event.EventTicketItemAdded, session, product, quantity, req.Variant)

	apt.RespondSuccess(w, h.ticketView(id, session))
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	index, ok := h.parseIndexParam(w, r, log)
	if !ok {
		return
	}

	session, err := h.sessions.Get(id)
	if err != nil {
		apt.RespondError(w, http.StatusNotFound, "No open session for ticket")
		return
	}

	req, ok := h.decodeUpdateItemPayload(w, r, log)
	if !ok {
		return
	}

	quantity, ok := h.parseQuantity(w, req.Quantity, log)
	if !ok {
		return
	}

	if err := session.Order.UpdateItem(index, quantity, req.Variant); err != nil {
		h.respondEngineError(w, log, err)
		return
	}

	if req.Notes != nil {
		_ = session.Order.SetNotes(index, *req.Notes)
	}

	if li, err := session.Order.ItemAt(index); err == nil {
		h.publishItemEvent(ctx, event.EventTicketItemUpdated, session, li.Product, li.Quantity, li.Variant)
	}

	apt.RespondSuccess(w, h.ticketView(id, session))
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RemoveItem")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	index, ok := h.parseIndexParam(w, r, log)
	if !ok {
		return
	}

	session, err := h.sessions.Get(id)
	if err != nil {
		apt.RespondError(w, http.StatusNotFound, "No open session for ticket")
		return
	}

	removed, err := session.Order.ItemAt(index)
	if err != nil {
		h.respondEngineError(w, log, err)
		return
	}

	if err := session.Order.RemoveItem(index); err != nil {
		h.respondEngineError(w, log, err)
		return
	}

	h.publishItemEvent(ctx, event.EventTicketItemRemoved, session, removed.Product, removed.Quantity, removed.Variant)

	apt.RespondSuccess(w, h.ticketView(id, session))
}

// Queries

func (h *Handler) ListTableTickets(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListTableTickets")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableIDStr := chi.URLParam(r, "tableID")
	tableID, err := uuid.Parse(tableIDStr)
	if err != nil {
		log.Debug("invalid table ID", "tableID", tableIDStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid table ID")
		return
	}

	tickets, err := h.ticketRepo.ListByTable(ctx, tableID)
	if err != nil {
		log.Error("error retrieving tickets", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not retrieve tickets")
		return
	}

	apt.RespondCollection(w, tickets, "ticket")
}

// GetEntryFlow tells the UI which input-capture flow a product needs
// before a line for it can be accepted.
func (h *Handler) GetEntryFlow(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetEntryFlow")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	product, err := h.catalog.Ensure(ctx, id)
	if err != nil {
		log.Info("product not in catalog", "product_id", id.String(), "error", err)
		apt.RespondError(w, http.StatusNotFound, "Product not found")
		return
	}

	kind := Classify(product)
	apt.RespondSuccess(w, map[string]interface{}{
		"product_id": product.ID.String(),
		"entry_flow": kind.Code(),
		"variants":   product.Variants,
	})
}

// Payloads

type OpenTicketRequest struct {
	TableID      uuid.UUID `json:"table_id"`
	Takeaway     bool      `json:"takeaway"`
	CustomerName string    `json:"customer_name,omitempty"`
}

type AddItemRequest struct {
	ProductID string      `json:"product_id"`
	Quantity  json.Number `json:"quantity"`
	Variant   string      `json:"variant,omitempty"`
	Notes     string      `json:"notes,omitempty"`
}

type UpdateItemRequest struct {
	Quantity json.Number `json:"quantity"`
	Variant  string      `json:"variant,omitempty"`
	Notes    *string     `json:"notes,omitempty"`
}

func (h *Handler) decodeOpenTicketPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (OpenTicketRequest, bool) {
	var req OpenTicketRequest
	if !h.decodeBody(w, r, log, &req) {
		return OpenTicketRequest{}, false
	}
	return req, true
}

func (h *Handler) decodeAddItemPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (AddItemRequest, bool) {
	var req AddItemRequest
	if !h.decodeBody(w, r, log, &req) {
		return AddItemRequest{}, false
	}
	return req, true
}

func (h *Handler) decodeUpdateItemPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (UpdateItemRequest, bool) {
	var req UpdateItemRequest
	if !h.decodeBody(w, r, log, &req) {
		return UpdateItemRequest{}, false
	}
	return req, true
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

// Views

type LineView struct {
	Index     int    `json:"index"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	Variant   string `json:"variant,omitempty"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
	Notes     string `json:"notes,omitempty"`
}

type TicketView struct {
	TicketID string     `json:"ticket_id"`
	TableID  string     `json:"table_id"`
	Takeaway bool       `json:"takeaway,omitempty"`
	Items    []LineView `json:"items"`
	Total    string     `json:"total"`
}

func (h *Handler) ticketView(ticketID uuid.UUID, session *TicketSession) TicketView {
	items := session.Order.Items()
	views := make([]LineView, 0, len(items))
	for i, li := range items {
		views = append(views, LineView{
			Index:     i,
			ProductID: li.Product.ID.String(),
			Name:      li.Product.Name,
			Quantity:  li.Quantity.String(),
			Variant:   li.Variant,
			UnitPrice: li.Product.UnitPrice.String(),
			LineTotal: li.LineTotal().String(),
			Notes:     li.Notes,
		})
	}
	return TicketView{
		TicketID: ticketID.String(),
		TableID:  session.TableID.String(),
		Takeaway: session.Takeaway,
		Items:    views,
		Total:    session.Order.Total().String(),
	}
}

// Helpers

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

func (h *Handler) parseIndexParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (int, bool) {
	indexStr := chi.URLParam(r, "index")
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		log.Debug("invalid index parameter", "index", indexStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid line index")
		return 0, false
	}
	return index, true
}

func (h *Handler) parseQuantity(w http.ResponseWriter, raw json.Number, log apt.Logger) (decimal.Decimal, bool) {
	if raw == "" {
		apt.RespondError(w, http.StatusBadRequest, "quantity is required")
		return decimal.Zero, false
	}
	quantity, err := decimal.NewFromString(raw.String())
	if err != nil {
		log.Debug("invalid quantity", "quantity", raw.String())
		apt.RespondError(w, http.StatusBadRequest, "Invalid quantity")
		return decimal.Zero, false
	}
	return quantity, true
}

func (h *Handler) respondEngineError(w http.ResponseWriter, log apt.Logger, err error) {
	var vErr ValidationError
	var iErr IndexError
	switch {
	case errors.As(err, &vErr):
		log.Debug("line rejected", "field", vErr.Field, "reason", vErr.Message)
		apt.RespondError(w, http.StatusUnprocessableEntity, vErr.Error())
	case errors.As(err, &iErr):
		log.Debug("stale line reference", "index", iErr.Index, "len", iErr.Len)
		apt.RespondError(w, http.StatusConflict, iErr.Error())
	default:
		log.Error("ticket mutation failed", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update ticket")
	}
}

func (h *Handler) publishItemEvent(ctx context.Context, eventType string, session *TicketSession, product *Product, quantity decimal.Decimal, variant string) {
	if h.publisher == nil {
		return
	}

	evt := event.TicketItemEvent{
		EventType:   eventType,
		OccurredAt:  time.Now(),
		TicketID:    session.TicketID.String(),
		ProductID:   product.ID.String(),
		Quantity:    quantity.String(),
		Variant:     variant,
		LineTotal:   quantity.Mul(product.UnitPrice).String(),
		ProductName: product.Name,
		TableID:     session.TableID.String(),
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal ticket item event", "error", err, "ticket_id", session.TicketID.String())
		return
	}
	if err := h.publisher.Publish(ctx, event.TicketItemsTopic, payload); err != nil {
		h.logger.Error("cannot publish ticket item event", "error", err, "ticket_id", session.TicketID.String())
	}
}

func (h *Handler) publishTicketSaved(ctx context.Context, session *TicketSession) {
	if h.publisher == nil {
		return
	}

	evt := event.TicketSavedEvent{
		EventType:  event.EventTicketSaved,
		OccurredAt: time.Now(),
		TicketID:   session.TicketID.String(),
		TableID:    session.TableID.String(),
		ItemCount:  session.Order.Len(),
		Total:      session.Order.Total().String(),
		Takeaway:   session.Takeaway,
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("cannot marshal ticket saved event", "error", err, "ticket_id", session.TicketID.String())
		return
	}
	if err := h.publisher.Publish(ctx, event.TicketItemsTopic, payload); err != nil {
		h.logger.Error("cannot publish ticket saved event", "error", err, "ticket_id", session.TicketID.String())
	}
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
